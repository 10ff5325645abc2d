package services

import (
	"context"
	"cryptochat/contract"
	"cryptochat/domain"
	"cryptochat/domain/event"
	cerrors "cryptochat/errors"
	"cryptochat/repositories"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const rewardDescription = "Sent a message"

type IChatService interface {
	StartConversation(ctx context.Context, currentUserID, otherUserID string) (domain.Conversation, error)
	CreateGroupConversation(ctx context.Context, creatorID, name string, memberIDs []string) (domain.Conversation, error)
	SendMessage(ctx context.Context, currentUserID, conversationID, content string) (domain.Message, error)
	ListMessages(ctx context.Context, currentUserID, conversationID string) ([]domain.Message, error)
	ListMessagesPage(ctx context.Context, currentUserID, conversationID string, cursor *string, limit int) ([]domain.Message, *string, error)
	ReadConversation(ctx context.Context, currentUserID, conversationID string) ([]domain.Message, error)
	MarkRead(ctx context.Context, currentUserID, conversationID string) error
	CountUnread(ctx context.Context, currentUserID, conversationID string) (int, error)
	ListConversations(ctx context.Context, currentUserID string) ([]domain.ConversationSummary, error)
}

// ICensor masks forbidden words and reports the ones it found.
type ICensor interface {
	Censor(content string) (string, []string)
}

type ChatConfig struct {
	MessageReward    int64
	MaxContentLength int
}

type ChatService struct {
	conversations repositories.IConversationRepository
	messages      repositories.IMessageRepository
	ledger        ILedgerService
	censor        ICensor
	events        contract.IEventPublisher
	config        ChatConfig
	log           *slog.Logger
}

func NewChatService(
	conversations repositories.IConversationRepository,
	messages repositories.IMessageRepository,
	ledger ILedgerService,
	censor ICensor,
	events contract.IEventPublisher,
	config ChatConfig,
	log *slog.Logger,
) *ChatService {
	return &ChatService{
		conversations: conversations,
		messages:      messages,
		ledger:        ledger,
		censor:        censor,
		events:        events,
		config:        config,
		log:           log,
	}
}

func (c *ChatService) StartConversation(ctx context.Context, currentUserID, otherUserID string) (domain.Conversation, error) {
	id, err := c.ResolveDirectConversation(ctx, currentUserID, otherUserID)
	if err != nil {
		return domain.Conversation{}, err
	}
	conversation, err := c.conversations.GetConversation(ctx, id)
	if err != nil {
		return domain.Conversation{}, logFailure(c.log, "Get conversation", err, "conversation_id", id)
	}
	return conversation, nil
}

// ResolveDirectConversation returns the 1:1 conversation between both
// profiles, creating it with its two participants when none exists.
// The result does not depend on argument order, and concurrent first-time
// calls converge on the same conversation.
func (c *ChatService) ResolveDirectConversation(ctx context.Context, currentUserID, otherUserID string) (string, error) {
	if currentUserID == otherUserID {
		return "", cerrors.ErrSelfConversation
	}
	wrap := func(err error) error {
		err = fmt.Errorf("%w: %w", cerrors.ErrStartConversation, err)
		return logFailure(c.log, "Start conversation", err, "current_user_id", currentUserID, "other_user_id", otherUserID)
	}

	ids, err := c.conversations.ConversationIDsFor(ctx, currentUserID)
	if err != nil {
		return "", wrap(err)
	}
	if len(ids) > 0 {
		shared, err := c.conversations.DirectConversationIDsWith(ctx, ids, otherUserID)
		if err != nil {
			return "", wrap(err)
		}
		if len(shared) > 0 {
			return shared[0], nil
		}
	}

	conversation := domain.NewDirectConversation(uuid.NewString(), currentUserID, otherUserID, time.Now().UTC())
	created, err := c.conversations.CreateDirect(ctx, conversation, currentUserID, otherUserID)
	if err != nil {
		return "", wrap(err)
	}
	if created.ID == conversation.ID {
		c.log.Info("Conversation started", "conversation_id", created.ID, "current_user_id", currentUserID, "other_user_id", otherUserID)
	}
	return created.ID, nil
}

func (c *ChatService) CreateGroupConversation(ctx context.Context, creatorID, name string, memberIDs []string) (domain.Conversation, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Conversation{}, fmt.Errorf("%w: group name is required", cerrors.ErrInvalidRequest)
	}
	members := lo.Uniq(append([]string{creatorID}, memberIDs...))
	conversation := domain.NewGroupConversation(uuid.NewString(), name, time.Now().UTC())
	if err := c.conversations.CreateGroup(ctx, conversation, members); err != nil {
		return domain.Conversation{}, logFailure(c.log, "Create group", err, "creator_id", creatorID)
	}
	c.log.Info("Group created", "conversation_id", conversation.ID, "members", len(members))
	return conversation, nil
}

// AppendMessage stores the message and touches the conversation in one write.
func (c *ChatService) AppendMessage(ctx context.Context, conversationID, senderID, content string) (domain.Message, error) {
	if strings.TrimSpace(content) == "" {
		return domain.Message{}, cerrors.ErrEmptyMessage
	}
	if c.config.MaxContentLength > 0 && utf8.RuneCountInString(content) > c.config.MaxContentLength {
		return domain.Message{}, cerrors.ErrMessageTooLong
	}
	now := time.Now().UTC()
	message, err := c.messages.StoreMessage(ctx, domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		Status:         domain.MessageSent,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return domain.Message{}, logFailure(c.log, "Append message", err, "conversation_id", conversationID, "sender_id", senderID)
	}
	return message, nil
}

// SendMessage censors the content, appends it and rewards the sender.
// A failed reward does not fail the send: the message is already stored.
func (c *ChatService) SendMessage(ctx context.Context, currentUserID, conversationID, content string) (domain.Message, error) {
	if strings.TrimSpace(content) == "" {
		return domain.Message{}, cerrors.ErrEmptyMessage
	}
	censored, words := c.censor.Censor(content)

	message, err := c.AppendMessage(ctx, conversationID, currentUserID, censored)
	if err != nil {
		return domain.Message{}, err
	}

	if len(words) > 0 {
		evt := event.MessageCensored{
			MessageID:      message.ID,
			ConversationID: conversationID,
			SenderID:       currentUserID,
			Words:          words,
			At:             message.CreatedAt,
		}
		if err := c.events.Publish(ctx, evt); err != nil {
			c.log.Warn("Censorship event dropped", "message_id", message.ID, "error", err)
		}
	}

	if c.config.MessageReward != 0 {
		if _, _, err := c.ledger.GrantCredits(ctx, currentUserID, c.config.MessageReward, domain.TransactionMessageSent, rewardDescription); err != nil {
			c.log.Warn("Message reward not granted", "message_id", message.ID, "sender_id", currentUserID, "error", err)
		}
	}
	return message, nil
}

func (c *ChatService) ListMessages(ctx context.Context, currentUserID, conversationID string) ([]domain.Message, error) {
	if _, err := c.participant(ctx, conversationID, currentUserID); err != nil {
		return nil, err
	}
	messages, err := c.messages.GetMessages(ctx, conversationID)
	if err != nil {
		return nil, logFailure(c.log, "List messages", err, "conversation_id", conversationID)
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, nil
}

// ListMessagesPage returns up to limit messages after cursor, oldest first,
// and the cursor of the next page when there is one.
func (c *ChatService) ListMessagesPage(ctx context.Context, currentUserID, conversationID string, cursor *string, limit int) ([]domain.Message, *string, error) {
	if _, err := c.participant(ctx, conversationID, currentUserID); err != nil {
		return nil, nil, err
	}
	messages, next, err := c.messages.GetMessagesPage(ctx, conversationID, cursor, limit)
	if err != nil {
		return nil, nil, logFailure(c.log, "List messages page", err, "conversation_id", conversationID)
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, next, nil
}

// ReadConversation marks read before listing: every message covered by the
// new boundary is already committed, so it is part of the returned history.
func (c *ChatService) ReadConversation(ctx context.Context, currentUserID, conversationID string) ([]domain.Message, error) {
	if err := c.MarkRead(ctx, currentUserID, conversationID); err != nil {
		return nil, err
	}
	return c.ListMessages(ctx, currentUserID, conversationID)
}

func (c *ChatService) MarkRead(ctx context.Context, currentUserID, conversationID string) error {
	if _, err := c.participant(ctx, conversationID, currentUserID); err != nil {
		return err
	}
	if _, err := c.conversations.MarkRead(ctx, conversationID, currentUserID); err != nil {
		return logFailure(c.log, "Mark read", err, "conversation_id", conversationID, "profile_id", currentUserID)
	}
	return nil
}

func (c *ChatService) CountUnread(ctx context.Context, currentUserID, conversationID string) (int, error) {
	participant, err := c.participant(ctx, conversationID, currentUserID)
	if err != nil {
		return 0, err
	}
	count, err := c.messages.CountUnread(ctx, conversationID, participant.LastRead, currentUserID)
	if err != nil {
		return 0, logFailure(c.log, "Count unread", err, "conversation_id", conversationID)
	}
	return count, nil
}

// ListConversations returns the conversations of the profile, most recently
// active first, with their last message and unread count.
func (c *ChatService) ListConversations(ctx context.Context, currentUserID string) ([]domain.ConversationSummary, error) {
	ids, err := c.conversations.ConversationIDsFor(ctx, currentUserID)
	if err != nil {
		return nil, logFailure(c.log, "List conversations", err, "profile_id", currentUserID)
	}

	summaries := make([]domain.ConversationSummary, 0, len(ids))
	for _, id := range ids {
		summary, err := c.summarize(ctx, id, currentUserID)
		if err != nil {
			return nil, logFailure(c.log, "Summarize conversation", err, "conversation_id", id)
		}
		summaries = append(summaries, summary)
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Conversation.UpdatedAt.After(summaries[j].Conversation.UpdatedAt)
	})
	return summaries, nil
}

func (c *ChatService) summarize(ctx context.Context, conversationID, profileID string) (domain.ConversationSummary, error) {
	conversation, err := c.conversations.GetConversation(ctx, conversationID)
	if err != nil {
		return domain.ConversationSummary{}, err
	}
	participants, err := c.conversations.ListParticipants(ctx, conversationID)
	if err != nil {
		return domain.ConversationSummary{}, err
	}
	self, ok := lo.Find(participants, func(p domain.Participant) bool { return p.ProfileID == profileID })
	if !ok {
		return domain.ConversationSummary{}, cerrors.ErrNotParticipant
	}
	last, err := c.messages.LastMessage(ctx, conversationID)
	if err != nil {
		return domain.ConversationSummary{}, err
	}
	unread, err := c.messages.CountUnread(ctx, conversationID, self.LastRead, profileID)
	if err != nil {
		return domain.ConversationSummary{}, err
	}
	return domain.ConversationSummary{
		Conversation:   conversation,
		ParticipantIDs: lo.Map(participants, func(p domain.Participant, _ int) string { return p.ProfileID }),
		LastMessage:    last,
		UnreadCount:    unread,
	}, nil
}

// participant checks the conversation exists and the profile belongs to it.
func (c *ChatService) participant(ctx context.Context, conversationID, profileID string) (domain.Participant, error) {
	if _, err := c.conversations.GetConversation(ctx, conversationID); err != nil {
		return domain.Participant{}, logFailure(c.log, "Get conversation", err, "conversation_id", conversationID)
	}
	participant, err := c.conversations.GetParticipant(ctx, conversationID, profileID)
	if err != nil {
		return domain.Participant{}, logFailure(c.log, "Get participant", err, "conversation_id", conversationID, "profile_id", profileID)
	}
	return participant, nil
}
