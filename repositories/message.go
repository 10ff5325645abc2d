//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"context"
	"cryptochat/domain"
	cerrors "cryptochat/errors"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

type IMessageRepository interface {
	StoreMessage(ctx context.Context, message domain.Message) (domain.Message, error)
	GetMessages(ctx context.Context, conversationID string) ([]domain.Message, error)
	GetMessagesPage(ctx context.Context, conversationID string, cursor *string, limit int) ([]domain.Message, *string, error)
	LastMessage(ctx context.Context, conversationID string) (*domain.Message, error)
	CountUnread(ctx context.Context, conversationID string, after time.Time, readerID string) (int, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) *MessageRepository {
	return &MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// StoreMessage persists a message and touches the conversation in the same
// transaction. The key is formatted as "msg:{conversation}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using the UUID as a tie-breaker.
//
// Creation times are strictly increasing per conversation: a message stamped
// at or before the conversation's UpdatedAt is moved one nanosecond after it.
func (m MessageRepository) StoreMessage(ctx context.Context, message domain.Message) (domain.Message, error) {
	var stored domain.Message
	err := update(ctx, m.db, m.log, func(txn *badger.Txn) error {
		stored = message
		var conversation domain.Conversation
		if err := getJSON(txn, conversationKey(message.ConversationID), &conversation); err != nil {
			return notFound(err, cerrors.ErrConversationNotFound)
		}
		member, err := exists(txn, participantKey(message.ConversationID, message.SenderID))
		if err != nil {
			return err
		}
		if !member {
			return cerrors.ErrNotParticipant
		}

		if !stored.CreatedAt.After(conversation.UpdatedAt) {
			stored.CreatedAt = conversation.UpdatedAt.Add(time.Nanosecond)
		}
		stored.UpdatedAt = stored.CreatedAt
		if stored.Status == "" {
			stored.Status = domain.MessageSent
		}
		if err = setJSON(txn, messageKey(stored.ConversationID, stored.CreatedAt, stored.ID), stored); err != nil {
			return err
		}
		conversation.UpdatedAt = stored.CreatedAt
		return setJSON(txn, conversationKey(conversation.ID), conversation)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return stored, nil
}

// GetMessages returns every message of the conversation, oldest first.
func (m MessageRepository) GetMessages(_ context.Context, conversationID string) ([]domain.Message, error) {
	messages := []domain.Message{}
	err := m.db.View(func(txn *badger.Txn) error {
		found, err := scanJSON[domain.Message](txn, messagePrefix(conversationID))
		messages = append(messages, found...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// GetMessagesPage walks the conversation oldest first, starting after cursor.
// A limit <= 0 falls back to the configured limitMessages, then to no limit.
// The returned cursor is the key suffix of the last message of the page and
// is nil once the conversation is exhausted.
func (m MessageRepository) GetMessagesPage(_ context.Context, conversationID string, cursor *string, limit int) ([]domain.Message, *string, error) {
	if limit <= 0 && m.limitMessages != nil {
		limit = *m.limitMessages
	}
	if cursor != nil {
		if _, _, err := ParseCursor(*cursor); err != nil {
			return nil, nil, err
		}
	}
	messages := []domain.Message{}
	var next *string
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := messagePrefix(conversationID)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		seekKey := prefix
		if cursor != nil {
			seekKey = append(append([]byte{}, prefix...), []byte(*cursor)...)
		}
		it.Seek(seekKey)
		if cursor != nil && it.ValidForPrefix(prefix) && string(it.Item().Key()) == string(seekKey) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(messages) == limit {
				m.log.Debug(fmt.Sprintf("Maximum of %d message reached", limit))
				next = lo.ToPtr(FormatCursor(messages[len(messages)-1]))
				return nil
			}
			var message domain.Message
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &message)
			}); err != nil {
				return err
			}
			messages = append(messages, message)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return messages, next, nil
}

func (m MessageRepository) LastMessage(_ context.Context, conversationID string) (*domain.Message, error) {
	var last *domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := messagePrefix(conversationID)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Every key of the conversation sorts before prefix + 0xFF.
		it.Seek(append(append([]byte{}, prefix...), 0xFF))
		if !it.ValidForPrefix(prefix) {
			return nil
		}
		var message domain.Message
		if err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &message)
		}); err != nil {
			return err
		}
		last = &message
		return nil
	})
	return last, err
}

// CountUnread counts messages created strictly after the boundary and not
// sent by readerID. Thanks to the padded timestamp in the key the scan starts
// at the boundary, so the cost is proportional to the unread messages.
func (m MessageRepository) CountUnread(_ context.Context, conversationID string, after time.Time, readerID string) (int, error) {
	count := 0
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := messagePrefix(conversationID)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		seekKey := prefix
		if !after.IsZero() {
			seekKey = []byte(fmt.Sprintf("%s%019d", prefix, after.UnixNano()+1))
		}
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			var message domain.Message
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &message)
			}); err != nil {
				return err
			}
			if message.SenderID != readerID {
				count++
			}
		}
		return nil
	})
	return count, err
}

// FormatCursor renders the position of a message as "{%019d nanos}:{id}",
// which is also the suffix of its storage key.
func FormatCursor(message domain.Message) string {
	return fmt.Sprintf("%019d:%s", message.CreatedAt.UnixNano(), message.ID)
}

func ParseCursor(cursor string) (time.Time, string, error) {
	nanos, id, ok := strings.Cut(cursor, ":")
	if !ok || id == "" {
		return time.Time{}, "", cerrors.ErrInvalidCursor
	}
	n, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return time.Time{}, "", cerrors.ErrInvalidCursor
	}
	return time.Unix(0, n).UTC(), id, nil
}
