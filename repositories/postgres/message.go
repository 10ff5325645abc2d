package postgres

import (
	"context"
	"cryptochat/domain"
	cerrors "cryptochat/errors"
	"cryptochat/repositories"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"
)

const messageColumns = `id, conversation_id, sender_id, content, status, created_at, updated_at`

// StoreMessage locks the conversation row so appends to one conversation are
// serialized, keeping creation times strictly increasing.
func (s *Store) StoreMessage(ctx context.Context, message domain.Message) (domain.Message, error) {
	stored := message
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var updatedAt time.Time
		err := tx.QueryRow(ctx, `SELECT updated_at FROM conversations WHERE id = $1 FOR UPDATE`,
			message.ConversationID).Scan(&updatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return cerrors.ErrConversationNotFound
			}
			return err
		}
		var member bool
		if err = tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM conversation_participants WHERE conversation_id = $1 AND profile_id = $2)`,
			message.ConversationID, message.SenderID).Scan(&member); err != nil {
			return err
		}
		if !member {
			return cerrors.ErrNotParticipant
		}

		stored.CreatedAt = pgTime(message.CreatedAt)
		if !stored.CreatedAt.After(updatedAt) {
			stored.CreatedAt = updatedAt.Add(time.Microsecond)
		}
		stored.UpdatedAt = stored.CreatedAt
		if stored.Status == "" {
			stored.Status = domain.MessageSent
		}
		if _, err = tx.Exec(ctx, `
			INSERT INTO messages (`+messageColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			stored.ID, stored.ConversationID, stored.SenderID, stored.Content, stored.Status,
			stored.CreatedAt, stored.UpdatedAt); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE conversations SET updated_at = $2 WHERE id = $1`,
			stored.ConversationID, stored.CreatedAt)
		return err
	})
	if err != nil {
		return domain.Message{}, err
	}
	return stored, nil
}

func (s *Store) GetMessages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at, id COLLATE "C"`, conversationID)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

// GetMessagesPage orders by (created_at, id) like the badger keys, so cursors
// are interchangeable between backends.
func (s *Store) GetMessagesPage(ctx context.Context, conversationID string, cursor *string, limit int) ([]domain.Message, *string, error) {
	if limit <= 0 && s.limitMessages != nil {
		limit = *s.limitMessages
	}
	after, afterID := time.Time{}, ""
	if cursor != nil {
		var err error
		if after, afterID, err = repositories.ParseCursor(*cursor); err != nil {
			return nil, nil, err
		}
	}

	// LIMIT NULL means no limit; one extra row tells whether a next page exists.
	var fetch *int64
	if limit > 0 {
		fetch = lo.ToPtr(int64(limit) + 1)
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE conversation_id = $1
		  AND ($2::boolean = FALSE OR (created_at, id COLLATE "C") > ($3, $4::text COLLATE "C"))
		ORDER BY created_at, id COLLATE "C"
		LIMIT $5`, conversationID, cursor != nil, after, afterID, fetch)
	if err != nil {
		return nil, nil, err
	}
	messages, err := collectMessages(rows)
	if err != nil {
		return nil, nil, err
	}

	var next *string
	if limit > 0 && len(messages) > limit {
		messages = messages[:limit]
		next = lo.ToPtr(repositories.FormatCursor(messages[len(messages)-1]))
	}
	return messages, next, nil
}

func (s *Store) LastMessage(ctx context.Context, conversationID string) (*domain.Message, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC, id COLLATE "C" DESC
		LIMIT 1`, conversationID)
	message, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &message, nil
}

func (s *Store) CountUnread(ctx context.Context, conversationID string, after time.Time, readerID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM messages
		WHERE conversation_id = $1 AND created_at > $2 AND sender_id <> $3`,
		conversationID, after, readerID).Scan(&count)
	return count, err
}

func scanMessage(row pgx.Row) (domain.Message, error) {
	var m domain.Message
	err := row.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func collectMessages(rows pgx.Rows) ([]domain.Message, error) {
	defer rows.Close()
	messages := []domain.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
