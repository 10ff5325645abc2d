package services

import (
	"context"
	"cryptochat/domain"
	"cryptochat/domain/event"
	cerrors "cryptochat/errors"
	"cryptochat/mocks"
	"cryptochat/moderation"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestChatService_ResolveDirectConversation_IsSymmetricAndIdempotent(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	// Given two profiles without any conversation
	f := newFixture(t)
	alice, bob := f.seed(t, "alice"), f.seed(t, "bob")

	// When both sides resolve the conversation, twice
	first, err := f.chat.ResolveDirectConversation(ctx, alice.ID, bob.ID)
	req.NoError(err)
	again, err := f.chat.ResolveDirectConversation(ctx, alice.ID, bob.ID)
	req.NoError(err)
	reversed, err := f.chat.ResolveDirectConversation(ctx, bob.ID, alice.ID)
	req.NoError(err)

	// Then a single conversation with both participants exists
	req.Equal(first, again)
	req.Equal(first, reversed)
	participants, err := f.repos.Conversations.ListParticipants(ctx, first)
	req.NoError(err)
	req.Len(participants, 2)
	conversation, err := f.repos.Conversations.GetConversation(ctx, first)
	req.NoError(err)
	req.False(conversation.IsGroup)
}

func TestChatService_ResolveDirectConversation_ConcurrentCallsConverge(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	// Given two profiles resolving their conversation at the same time
	f := newFixture(t)
	alice, bob := f.seed(t, "alice"), f.seed(t, "bob")

	const callers = 16
	ids := make([]string, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := alice.ID, bob.ID
			if i%2 == 1 {
				a, b = b, a
			}
			ids[i], errs[i] = f.chat.ResolveDirectConversation(ctx, a, b)
		}(i)
	}
	wg.Wait()

	// Then everyone gets the same conversation and no duplicate was left behind
	for i := range ids {
		req.NoError(errs[i])
		req.Equal(ids[0], ids[i])
	}
	all, err := f.repos.Conversations.ListConversations(ctx)
	req.NoError(err)
	req.Len(all, 1)
}

func TestChatService_ResolveDirectConversation_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("should reject a conversation with yourself", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)
		alice := f.seed(t, "alice")

		_, err := f.chat.ResolveDirectConversation(ctx, alice.ID, alice.ID)

		req.ErrorIs(err, cerrors.ErrSelfConversation)
	})

	t.Run("should report an unknown profile as a failed start", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)
		alice := f.seed(t, "alice")

		_, err := f.chat.ResolveDirectConversation(ctx, alice.ID, "ghost")

		req.ErrorIs(err, cerrors.ErrStartConversation)
		req.ErrorIs(err, cerrors.ErrProfileNotFound)
	})

	t.Run("should wrap store failures", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		conversations := mocks.NewMockIConversationRepository(ctrl)
		svc := NewChatService(conversations, nil, nil, nil, nil, ChatConfig{}, slog.Default())

		conversations.EXPECT().ConversationIDsFor(gomock.Any(), "u1").Return(nil, errors.New("disk on fire"))

		_, err := svc.ResolveDirectConversation(ctx, "u1", "u2")

		req.ErrorIs(err, cerrors.ErrStartConversation)
	})
}

func TestChatService_ResolveDirectConversation_ReusesExistingConversation(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	conversations := mocks.NewMockIConversationRepository(ctrl)
	svc := NewChatService(conversations, nil, nil, nil, nil, ChatConfig{}, slog.Default())

	// Given u1 already shares conversation c2 with u2
	conversations.EXPECT().ConversationIDsFor(gomock.Any(), "u1").Return([]string{"c1", "c2"}, nil)
	conversations.EXPECT().DirectConversationIDsWith(gomock.Any(), []string{"c1", "c2"}, "u2").Return([]string{"c2"}, nil)
	conversations.EXPECT().CreateDirect(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	// When u1 resolves the conversation with u2
	id, err := svc.ResolveDirectConversation(context.Background(), "u1", "u2")

	// Then the existing one is returned and nothing is created
	req.NoError(err)
	req.Equal("c2", id)
}

func TestChatService_SendAndReadScenario(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	// Given u1 and u2 with a fresh conversation
	f := newFixture(t)
	u1, u2 := f.seed(t, "u1"), f.seed(t, "u2")
	conversation, err := f.chat.StartConversation(ctx, u1.ID, u2.ID)
	req.NoError(err)

	// When u1 sends a message
	sent, err := f.chat.SendMessage(ctx, u1.ID, conversation.ID, "hello")
	req.NoError(err)
	req.Equal(domain.MessageSent, sent.Status)

	// Then u2 has one unread message and u1 none
	unread, err := f.chat.CountUnread(ctx, u2.ID, conversation.ID)
	req.NoError(err)
	req.Equal(1, unread)
	unread, err = f.chat.CountUnread(ctx, u1.ID, conversation.ID)
	req.NoError(err)
	req.Zero(unread)

	// And u2 reading the conversation clears it
	messages, err := f.chat.ReadConversation(ctx, u2.ID, conversation.ID)
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal("hello", messages[0].Content)
	unread, err = f.chat.CountUnread(ctx, u2.ID, conversation.ID)
	req.NoError(err)
	req.Zero(unread)

	// And u1 earned the reward with a matching ledger entry
	balance, err := f.ledger.Balance(ctx, u1.ID)
	req.NoError(err)
	req.Equal(int64(testReward), balance)
	history, err := f.ledger.History(ctx, u1.ID)
	req.NoError(err)
	req.Len(history, 1)
	req.Equal(domain.TransactionMessageSent, history[0].Type)
	req.Equal(int64(testReward), history[0].Amount)
	req.Equal("Sent a message", *history[0].Description)
}

func TestChatService_SendMessage_CensorsContent(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	// Given a conversation between two profiles
	f := newFixture(t)
	u1, u2 := f.seed(t, "u1"), f.seed(t, "u2")
	conversation, err := f.chat.StartConversation(ctx, u1.ID, u2.ID)
	req.NoError(err)

	// When u1 sends a forbidden word
	sent, err := f.chat.SendMessage(ctx, u1.ID, conversation.ID, "this is a SCAM")

	// Then the stored content is masked and the hit is counted
	req.NoError(err)
	req.Equal("this is a ****", sent.Content)
	total, perWord := f.censored.Stats()
	req.Equal(uint64(1), total)
	req.Equal(uint64(1), perWord["scam"])
}

func TestChatService_SendMessage_PublishesCensoredEvent(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	messages := mocks.NewMockIMessageRepository(ctrl)
	transactions := mocks.NewMockITransactionRepository(ctrl)
	publisher := mocks.NewMockIEventPublisher(ctrl)
	moderator, err := moderation.NewModerator([]string{"ponzi"}, '#', slog.Default())
	req.NoError(err)
	ledger := NewLedgerService(transactions, nil, slog.Default())
	svc := NewChatService(nil, messages, ledger, moderator, publisher, ChatConfig{MessageReward: 5, MaxContentLength: 100}, slog.Default())

	messages.EXPECT().StoreMessage(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, m domain.Message) (domain.Message, error) { return m, nil })
	transactions.EXPECT().Grant(gomock.Any(), gomock.Any()).Return(int64(5), nil)

	// Then the censorship event carries the matched word
	publisher.EXPECT().Publish(gomock.Any(), gomock.AssignableToTypeOf(event.MessageCensored{})).
		DoAndReturn(func(_ context.Context, e event.DomainEvent) error {
			censored := e.(event.MessageCensored)
			req.Equal("c1", censored.ConversationID)
			req.Equal([]string{"ponzi"}, censored.Words)
			return nil
		})

	// When a censored message is sent
	sent, err := svc.SendMessage(context.Background(), "u1", "c1", "a ponzi")

	req.NoError(err)
	req.Equal("a #####", sent.Content)
}

func TestChatService_SendMessage_RewardFailureKeepsMessage(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	messages := mocks.NewMockIMessageRepository(ctrl)
	transactions := mocks.NewMockITransactionRepository(ctrl)
	moderator, err := moderation.NewModerator(nil, '*', slog.Default())
	req.NoError(err)
	ledger := NewLedgerService(transactions, nil, slog.Default())
	svc := NewChatService(nil, messages, ledger, moderator, nil, ChatConfig{MessageReward: 5}, slog.Default())

	// Given the ledger cannot be written
	messages.EXPECT().StoreMessage(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, m domain.Message) (domain.Message, error) { return m, nil })
	transactions.EXPECT().Grant(gomock.Any(), gomock.Any()).Return(int64(0), errors.New("ledger unavailable"))

	// When a message is sent
	sent, err := svc.SendMessage(context.Background(), "u1", "c1", "hello")

	// Then the send still succeeds
	req.NoError(err)
	req.Equal("hello", sent.Content)
	req.NotEmpty(sent.ID)
}

func TestChatService_AppendMessage_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1, u2, outsider := f.seed(t, "u1"), f.seed(t, "u2"), f.seed(t, "outsider")
	conversation, err := f.chat.StartConversation(ctx, u1.ID, u2.ID)
	require.NoError(t, err)

	tests := []struct {
		name     string
		sender   string
		content  string
		expected error
	}{
		{name: "blank content", sender: u1.ID, content: "  \n\t", expected: cerrors.ErrEmptyMessage},
		{name: "too long", sender: u1.ID, content: strings.Repeat("é", 201), expected: cerrors.ErrMessageTooLong},
		{name: "outsider", sender: outsider.ID, content: "hi", expected: cerrors.ErrNotParticipant},
		{name: "at the limit", sender: u1.ID, content: strings.Repeat("é", 200)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.chat.AppendMessage(ctx, conversation.ID, tt.sender, tt.content)
			if tt.expected == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestChatService_ListMessages_KeepsOrderOverManyAppends(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	// Given 120 messages appended back to back
	f := newFixture(t)
	u1, u2 := f.seed(t, "u1"), f.seed(t, "u2")
	conversation, err := f.chat.StartConversation(ctx, u1.ID, u2.ID)
	req.NoError(err)
	var sent []string
	for i := 0; i < 120; i++ {
		m, err := f.chat.AppendMessage(ctx, conversation.ID, u1.ID, "message")
		req.NoError(err)
		sent = append(sent, m.ID)
	}

	// When listing them
	messages, err := f.chat.ListMessages(ctx, u2.ID, conversation.ID)
	req.NoError(err)

	// Then they come back in append order with strictly increasing times
	req.Len(messages, 120)
	for i, m := range messages {
		req.Equal(sent[i], m.ID)
		if i > 0 {
			req.True(m.CreatedAt.After(messages[i-1].CreatedAt))
		}
	}
}

func TestChatService_ListMessages_EmptyAndForbidden(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	u1, u2, outsider := f.seed(t, "u1"), f.seed(t, "u2"), f.seed(t, "outsider")
	conversation, err := f.chat.StartConversation(ctx, u1.ID, u2.ID)
	req.NoError(err)

	messages, err := f.chat.ListMessages(ctx, u1.ID, conversation.ID)
	req.NoError(err)
	req.NotNil(messages)
	req.Empty(messages)

	_, err = f.chat.ListMessages(ctx, outsider.ID, conversation.ID)
	req.ErrorIs(err, cerrors.ErrNotParticipant)

	_, err = f.chat.ListMessages(ctx, u1.ID, "missing")
	req.ErrorIs(err, cerrors.ErrConversationNotFound)

	err = f.chat.MarkRead(ctx, outsider.ID, conversation.ID)
	req.ErrorIs(err, cerrors.ErrNotParticipant)
	err = f.chat.MarkRead(ctx, u1.ID, "missing")
	req.ErrorIs(err, cerrors.ErrConversationNotFound)
	_, err = f.chat.ReadConversation(ctx, outsider.ID, conversation.ID)
	req.ErrorIs(err, cerrors.ErrNotParticipant)
}

func TestChatService_ListMessagesPage(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	u1, u2 := f.seed(t, "u1"), f.seed(t, "u2")
	conversation, err := f.chat.StartConversation(ctx, u1.ID, u2.ID)
	req.NoError(err)
	for i := 0; i < 5; i++ {
		_, err := f.chat.AppendMessage(ctx, conversation.ID, u1.ID, "m")
		req.NoError(err)
	}

	first, cursor, err := f.chat.ListMessagesPage(ctx, u2.ID, conversation.ID, nil, 3)
	req.NoError(err)
	req.Len(first, 3)
	req.NotNil(cursor)

	rest, cursor, err := f.chat.ListMessagesPage(ctx, u2.ID, conversation.ID, cursor, 3)
	req.NoError(err)
	req.Len(rest, 2)
	req.Nil(cursor)
}

func TestChatService_ListConversations(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	// Given u1 talking to u2 then to u3, u3 having sent the latest message
	f := newFixture(t)
	u1, u2, u3 := f.seed(t, "u1"), f.seed(t, "u2"), f.seed(t, "u3")
	withU2, err := f.chat.StartConversation(ctx, u1.ID, u2.ID)
	req.NoError(err)
	withU3, err := f.chat.StartConversation(ctx, u1.ID, u3.ID)
	req.NoError(err)
	_, err = f.chat.SendMessage(ctx, u1.ID, withU2.ID, "hi u2")
	req.NoError(err)
	_, err = f.chat.SendMessage(ctx, u3.ID, withU3.ID, "hi u1")
	req.NoError(err)
	_, err = f.chat.SendMessage(ctx, u3.ID, withU3.ID, "still there?")
	req.NoError(err)

	// When u1 lists the conversations
	summaries, err := f.chat.ListConversations(ctx, u1.ID)
	req.NoError(err)

	// Then the most recent comes first with its unread count
	req.Len(summaries, 2)
	req.Equal(withU3.ID, summaries[0].Conversation.ID)
	req.Equal(2, summaries[0].UnreadCount)
	req.Equal("still there?", summaries[0].LastMessage.Content)
	req.ElementsMatch([]string{u1.ID, u3.ID}, summaries[0].ParticipantIDs)
	req.Equal(withU2.ID, summaries[1].Conversation.ID)
	req.Zero(summaries[1].UnreadCount)

	// And a profile without conversations gets an empty list
	lonely := f.seed(t, "lonely")
	summaries, err = f.chat.ListConversations(ctx, lonely.ID)
	req.NoError(err)
	req.Empty(summaries)
}

func TestChatService_CreateGroupConversation(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	u1, u2, u3 := f.seed(t, "u1"), f.seed(t, "u2"), f.seed(t, "u3")

	group, err := f.chat.CreateGroupConversation(ctx, u1.ID, " traders ", []string{u2.ID, u3.ID, u2.ID, u1.ID})
	req.NoError(err)
	req.True(group.IsGroup)
	req.Equal("traders", *group.Name)
	participants, err := f.repos.Conversations.ListParticipants(ctx, group.ID)
	req.NoError(err)
	req.Len(participants, 3)

	// A group never counts as the direct conversation of two members
	direct, err := f.chat.ResolveDirectConversation(ctx, u1.ID, u2.ID)
	req.NoError(err)
	req.NotEqual(group.ID, direct)

	_, err = f.chat.CreateGroupConversation(ctx, u1.ID, "  ", nil)
	req.ErrorIs(err, cerrors.ErrInvalidRequest)
}

func TestChatService_MarkRead_IsMonotonic(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	u1, u2 := f.seed(t, "u1"), f.seed(t, "u2")
	conversation, err := f.chat.StartConversation(ctx, u1.ID, u2.ID)
	req.NoError(err)
	_, err = f.chat.SendMessage(ctx, u1.ID, conversation.ID, "first")
	req.NoError(err)

	req.NoError(f.chat.MarkRead(ctx, u2.ID, conversation.ID))
	before, err := f.repos.Conversations.GetParticipant(ctx, conversation.ID, u2.ID)
	req.NoError(err)

	// Marking again never moves it backwards
	after, err := f.repos.Conversations.MarkRead(ctx, conversation.ID, u2.ID)
	req.NoError(err)
	req.False(after.LastRead.Before(before.LastRead))

	// A message sent afterwards is unread again
	_, err = f.chat.SendMessage(ctx, u1.ID, conversation.ID, "second")
	req.NoError(err)
	unread, err := f.chat.CountUnread(ctx, u2.ID, conversation.ID)
	req.NoError(err)
	req.Equal(1, unread)
}
