//go:generate go run go.uber.org/mock/mockgen -source=conversation.go -destination=../mocks/mock_conversation_repository.go -package=mocks
package repositories

import (
	"context"
	"cryptochat/domain"
	cerrors "cryptochat/errors"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

type IConversationRepository interface {
	ConversationIDsFor(ctx context.Context, profileID string) ([]string, error)
	DirectConversationIDsWith(ctx context.Context, conversationIDs []string, otherID string) ([]string, error)
	CreateDirect(ctx context.Context, conversation domain.Conversation, a, b string) (domain.Conversation, error)
	CreateGroup(ctx context.Context, conversation domain.Conversation, memberIDs []string) error
	GetConversation(ctx context.Context, id string) (domain.Conversation, error)
	GetParticipant(ctx context.Context, conversationID, profileID string) (domain.Participant, error)
	ListParticipants(ctx context.Context, conversationID string) ([]domain.Participant, error)
	MarkRead(ctx context.Context, conversationID, profileID string) (domain.Participant, error)
	ListConversations(ctx context.Context) ([]domain.Conversation, error)
}

type ConversationRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewConversationRepository(db *badger.DB, log *slog.Logger) *ConversationRepository {
	return &ConversationRepository{db: db, log: log}
}

// ConversationIDsFor scans the reverse membership index of a profile.
func (c ConversationRepository) ConversationIDsFor(_ context.Context, profileID string) ([]string, error) {
	var ids []string
	err := c.db.View(func(txn *badger.Txn) error {
		prefix := memberPrefix(profileID)
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			ids = append(ids, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	return ids, err
}

// DirectConversationIDsWith keeps the 1:1 conversations among conversationIDs
// in which otherID also participates.
func (c ConversationRepository) DirectConversationIDsWith(_ context.Context, conversationIDs []string, otherID string) ([]string, error) {
	var shared []string
	err := c.db.View(func(txn *badger.Txn) error {
		for _, id := range conversationIDs {
			member, err := exists(txn, participantKey(id, otherID))
			if err != nil {
				return err
			}
			if !member {
				continue
			}
			var conversation domain.Conversation
			if err = getJSON(txn, conversationKey(id), &conversation); err != nil {
				return notFound(err, cerrors.ErrConversationNotFound)
			}
			if !conversation.IsGroup {
				shared = append(shared, id)
			}
		}
		return nil
	})
	return shared, err
}

// CreateDirect stores a 1:1 conversation and both participant rows in one
// serializable transaction. The pair index makes it converge: when another
// caller created the conversation for the same pair first, that conversation
// is returned and nothing is written.
func (c ConversationRepository) CreateDirect(ctx context.Context, conversation domain.Conversation, a, b string) (domain.Conversation, error) {
	var resolved domain.Conversation
	err := update(ctx, c.db, c.log, func(txn *badger.Txn) error {
		item, err := txn.Get(pairIndexKey(conversation.PairKey))
		switch {
		case err == nil:
			existingID, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			return getJSON(txn, conversationKey(string(existingID)), &resolved)
		case !isKeyNotFound(err):
			return err
		}

		for _, id := range []string{a, b} {
			found, err := exists(txn, profileKey(id))
			if err != nil {
				return err
			}
			if !found {
				return cerrors.ErrProfileNotFound
			}
		}
		if err = txn.Set(pairIndexKey(conversation.PairKey), []byte(conversation.ID)); err != nil {
			return err
		}
		if err = setJSON(txn, conversationKey(conversation.ID), conversation); err != nil {
			return err
		}
		for _, id := range []string{a, b} {
			if err = addParticipant(txn, domain.NewParticipant(conversation.ID, id, conversation.CreatedAt)); err != nil {
				return err
			}
		}
		resolved = conversation
		return nil
	})
	if err != nil {
		return domain.Conversation{}, err
	}
	return resolved, nil
}

func (c ConversationRepository) CreateGroup(ctx context.Context, conversation domain.Conversation, memberIDs []string) error {
	return update(ctx, c.db, c.log, func(txn *badger.Txn) error {
		for _, id := range memberIDs {
			found, err := exists(txn, profileKey(id))
			if err != nil {
				return err
			}
			if !found {
				return cerrors.ErrProfileNotFound
			}
		}
		if err := setJSON(txn, conversationKey(conversation.ID), conversation); err != nil {
			return err
		}
		for _, id := range lo.Uniq(memberIDs) {
			if err := addParticipant(txn, domain.NewParticipant(conversation.ID, id, conversation.CreatedAt)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c ConversationRepository) GetConversation(_ context.Context, id string) (domain.Conversation, error) {
	var conversation domain.Conversation
	err := c.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, conversationKey(id), &conversation)
	})
	if err != nil {
		return domain.Conversation{}, notFound(err, cerrors.ErrConversationNotFound)
	}
	return conversation, nil
}

func (c ConversationRepository) GetParticipant(_ context.Context, conversationID, profileID string) (domain.Participant, error) {
	var participant domain.Participant
	err := c.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, participantKey(conversationID, profileID), &participant)
	})
	if err != nil {
		return domain.Participant{}, notFound(err, cerrors.ErrNotParticipant)
	}
	return participant, nil
}

func (c ConversationRepository) ListParticipants(_ context.Context, conversationID string) ([]domain.Participant, error) {
	var participants []domain.Participant
	err := c.db.View(func(txn *badger.Txn) error {
		var err error
		participants, err = scanJSON[domain.Participant](txn, participantPrefix(conversationID))
		return err
	})
	return participants, err
}

// MarkRead moves the unread boundary of a participant up to the conversation
// UpdatedAt, the creation time of its latest committed message. The boundary
// never goes backwards. A message committed afterwards is stamped strictly
// after that UpdatedAt, so it always counts as unread.
func (c ConversationRepository) MarkRead(ctx context.Context, conversationID, profileID string) (domain.Participant, error) {
	var participant domain.Participant
	err := update(ctx, c.db, c.log, func(txn *badger.Txn) error {
		if err := getJSON(txn, participantKey(conversationID, profileID), &participant); err != nil {
			return notFound(err, cerrors.ErrNotParticipant)
		}
		var conversation domain.Conversation
		if err := getJSON(txn, conversationKey(conversationID), &conversation); err != nil {
			return notFound(err, cerrors.ErrConversationNotFound)
		}
		participant.LastRead = latest(participant.LastRead, conversation.UpdatedAt)
		return setJSON(txn, participantKey(conversationID, profileID), participant)
	})
	if err != nil {
		return domain.Participant{}, err
	}
	return participant, nil
}

func (c ConversationRepository) ListConversations(_ context.Context) ([]domain.Conversation, error) {
	var conversations []domain.Conversation
	err := c.db.View(func(txn *badger.Txn) error {
		var err error
		conversations, err = scanJSON[domain.Conversation](txn, []byte("conv:"))
		return err
	})
	return conversations, err
}

func addParticipant(txn *badger.Txn, participant domain.Participant) error {
	if err := setJSON(txn, participantKey(participant.ConversationID, participant.ProfileID), participant); err != nil {
		return err
	}
	return txn.Set(memberKey(participant.ProfileID, participant.ConversationID), []byte{})
}

func latest(times ...time.Time) time.Time {
	return lo.MaxBy(times, func(a, b time.Time) bool { return a.After(b) })
}
