package postgres

import (
	"context"
	"cryptochat/domain"
	cerrors "cryptochat/errors"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"
)

const conversationColumns = `id, is_group, name, COALESCE(pair_key, ''), created_at, updated_at`

func (s *Store) ConversationIDsFor(ctx context.Context, profileID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT conversation_id FROM conversation_participants WHERE profile_id = $1`, profileID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (s *Store) DirectConversationIDsWith(ctx context.Context, conversationIDs []string, otherID string) ([]string, error) {
	if len(conversationIDs) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT p.conversation_id
		FROM conversation_participants p
		JOIN conversations c ON c.id = p.conversation_id
		WHERE p.conversation_id = ANY($1) AND p.profile_id = $2 AND NOT c.is_group`,
		conversationIDs, otherID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// CreateDirect relies on the partial unique index over pair_key: a concurrent
// creator for the same pair blocks on the index, then sees the committed row
// and returns it instead of inserting a duplicate.
func (s *Store) CreateDirect(ctx context.Context, conversation domain.Conversation, a, b string) (domain.Conversation, error) {
	var resolved domain.Conversation
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var count int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM profiles WHERE id = ANY($1)`,
			lo.Uniq([]string{a, b})).Scan(&count); err != nil {
			return err
		}
		if count != len(lo.Uniq([]string{a, b})) {
			return cerrors.ErrProfileNotFound
		}

		at := pgTime(conversation.CreatedAt)
		tag, err := tx.Exec(ctx, `
			INSERT INTO conversations (id, is_group, pair_key, created_at, updated_at)
			VALUES ($1, FALSE, $2, $3, $3)
			ON CONFLICT (pair_key) WHERE pair_key IS NOT NULL DO NOTHING`,
			conversation.ID, conversation.PairKey, at)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			row := tx.QueryRow(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE pair_key = $1`, conversation.PairKey)
			resolved, err = scanConversation(row)
			return err
		}

		for _, id := range []string{a, b} {
			if _, err = tx.Exec(ctx, `
				INSERT INTO conversation_participants (conversation_id, profile_id, joined_at, last_read)
				VALUES ($1, $2, $3, $3)`, conversation.ID, id, at); err != nil {
				return err
			}
		}
		resolved = conversation
		resolved.CreatedAt, resolved.UpdatedAt = at, at
		return nil
	})
	if err != nil {
		return domain.Conversation{}, err
	}
	return resolved, nil
}

func (s *Store) CreateGroup(ctx context.Context, conversation domain.Conversation, memberIDs []string) error {
	members := lo.Uniq(memberIDs)
	return s.inTx(ctx, func(tx pgx.Tx) error {
		var count int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM profiles WHERE id = ANY($1)`, members).Scan(&count); err != nil {
			return err
		}
		if count != len(members) {
			return cerrors.ErrProfileNotFound
		}
		at := pgTime(conversation.CreatedAt)
		if _, err := tx.Exec(ctx, `
			INSERT INTO conversations (id, is_group, name, created_at, updated_at)
			VALUES ($1, TRUE, $2, $3, $3)`, conversation.ID, conversation.Name, at); err != nil {
			return err
		}
		for _, id := range members {
			if _, err := tx.Exec(ctx, `
				INSERT INTO conversation_participants (conversation_id, profile_id, joined_at, last_read)
				VALUES ($1, $2, $3, $3)`, conversation.ID, id, at); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) GetConversation(ctx context.Context, id string) (domain.Conversation, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id)
	return scanConversation(row)
}

func (s *Store) GetParticipant(ctx context.Context, conversationID, profileID string) (domain.Participant, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT conversation_id, profile_id, joined_at, last_read
		FROM conversation_participants WHERE conversation_id = $1 AND profile_id = $2`,
		conversationID, profileID)
	return scanParticipant(row)
}

func (s *Store) ListParticipants(ctx context.Context, conversationID string) ([]domain.Participant, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT conversation_id, profile_id, joined_at, last_read
		FROM conversation_participants WHERE conversation_id = $1 ORDER BY profile_id`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var participants []domain.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// MarkRead raises the boundary to the committed updated_at of the
// conversation. An append still holding the row lock commits a later
// created_at, so it stays unread.
func (s *Store) MarkRead(ctx context.Context, conversationID, profileID string) (domain.Participant, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE conversation_participants p
		SET last_read = GREATEST(p.last_read, c.updated_at)
		FROM conversations c
		WHERE c.id = p.conversation_id AND p.conversation_id = $1 AND p.profile_id = $2
		RETURNING p.conversation_id, p.profile_id, p.joined_at, p.last_read`,
		conversationID, profileID)
	return scanParticipant(row)
}

func (s *Store) ListConversations(ctx context.Context) ([]domain.Conversation, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+conversationColumns+` FROM conversations ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var conversations []domain.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, c)
	}
	return conversations, rows.Err()
}

func scanConversation(row pgx.Row) (domain.Conversation, error) {
	var c domain.Conversation
	if err := row.Scan(&c.ID, &c.IsGroup, &c.Name, &c.PairKey, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Conversation{}, cerrors.ErrConversationNotFound
		}
		return domain.Conversation{}, err
	}
	return c, nil
}

func scanParticipant(row pgx.Row) (domain.Participant, error) {
	var p domain.Participant
	if err := row.Scan(&p.ConversationID, &p.ProfileID, &p.JoinedAt, &p.LastRead); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Participant{}, cerrors.ErrNotParticipant
		}
		return domain.Participant{}, err
	}
	return p, nil
}
