package repositories

import (
	"context"
	"cryptochat/domain"
	cerrors "cryptochat/errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_Create_Direct_Conversation(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	ctx := context.Background()
	alice, bob := seedProfile(t, db, "alice"), seedProfile(t, db, "bob")
	repository := NewConversationRepository(db, slog.Default())

	conv, err := repository.CreateDirect(ctx, domain.NewDirectConversation(uuid.NewString(), alice.ID, bob.ID, time.Now().UTC()), alice.ID, bob.ID)
	req.NoError(err)
	req.False(conv.IsGroup)

	participants, err := repository.ListParticipants(ctx, conv.ID)
	req.NoError(err)
	req.Len(participants, 2)

	for _, id := range []string{alice.ID, bob.ID} {
		ids, err := repository.ConversationIDsFor(ctx, id)
		req.NoError(err)
		req.Equal([]string{conv.ID}, ids)
	}

	shared, err := repository.DirectConversationIDsWith(ctx, []string{conv.ID}, bob.ID)
	req.NoError(err)
	req.Equal([]string{conv.ID}, shared)
}

func Test_Create_Direct_Returns_Existing_Pair(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	ctx := context.Background()
	alice, bob := seedProfile(t, db, "alice"), seedProfile(t, db, "bob")
	repository := NewConversationRepository(db, slog.Default())

	first := seedDirect(t, db, alice, bob)

	// Reversed order resolves to the same pair
	second, err := repository.CreateDirect(ctx, domain.NewDirectConversation(uuid.NewString(), bob.ID, alice.ID, time.Now().UTC()), bob.ID, alice.ID)
	req.NoError(err)
	req.Equal(first.ID, second.ID)

	ids, err := repository.ConversationIDsFor(ctx, alice.ID)
	req.NoError(err)
	req.Len(ids, 1)
}

func Test_Create_Direct_Concurrent_Callers_Converge(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	ctx := context.Background()
	alice, bob := seedProfile(t, db, "alice"), seedProfile(t, db, "bob")
	repository := NewConversationRepository(db, slog.Default())

	var wg sync.WaitGroup
	ids := make([]string, 16)
	errs := make([]error, 16)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := alice.ID, bob.ID
			if i%2 == 1 {
				a, b = b, a
			}
			conv, err := repository.CreateDirect(ctx, domain.NewDirectConversation(uuid.NewString(), a, b, time.Now().UTC()), a, b)
			ids[i], errs[i] = conv.ID, err
		}(i)
	}
	wg.Wait()

	for i := range ids {
		req.NoError(errs[i])
		req.Equal(ids[0], ids[i])
	}
	convs, err := repository.ListConversations(ctx)
	req.NoError(err)
	req.Len(convs, 1)
}

func Test_Create_Direct_Unknown_Profile(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	alice := seedProfile(t, db, "alice")
	repository := NewConversationRepository(db, slog.Default())

	_, err := repository.CreateDirect(context.Background(), domain.NewDirectConversation(uuid.NewString(), alice.ID, "ghost", time.Now().UTC()), alice.ID, "ghost")
	req.ErrorIs(err, cerrors.ErrProfileNotFound)

	convs, err := repository.ListConversations(context.Background())
	req.NoError(err)
	req.Empty(convs)
}

func Test_Group_Is_Not_A_Direct_Conversation(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	ctx := context.Background()
	alice, bob := seedProfile(t, db, "alice"), seedProfile(t, db, "bob")
	repository := NewConversationRepository(db, slog.Default())

	group := domain.NewGroupConversation(uuid.NewString(), "crypto", time.Now().UTC())
	req.NoError(repository.CreateGroup(ctx, group, []string{alice.ID, bob.ID, bob.ID}))

	participants, err := repository.ListParticipants(ctx, group.ID)
	req.NoError(err)
	req.Len(participants, 2)

	shared, err := repository.DirectConversationIDsWith(ctx, []string{group.ID}, bob.ID)
	req.NoError(err)
	req.Empty(shared)
}

func Test_Mark_Read_Never_Goes_Backwards(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	ctx := context.Background()
	alice, bob := seedProfile(t, db, "alice"), seedProfile(t, db, "bob")
	conv := seedDirect(t, db, alice, bob)
	repository := NewConversationRepository(db, slog.Default())
	messages := NewMessageRepository(db, slog.Default(), nil)

	// Given a message stamped in the future
	future := time.Now().UTC().Add(time.Hour)
	stored, err := messages.StoreMessage(ctx, domain.Message{ID: uuid.NewString(), ConversationID: conv.ID, SenderID: alice.ID, Content: "hi", CreatedAt: future})
	req.NoError(err)

	// When bob marks the conversation read
	participant, err := repository.MarkRead(ctx, conv.ID, bob.ID)
	req.NoError(err)

	// Then the boundary covers the latest message
	req.True(participant.LastRead.Equal(stored.CreatedAt))
	count, err := messages.CountUnread(ctx, conv.ID, participant.LastRead, bob.ID)
	req.NoError(err)
	req.Zero(count)

	// And marking again does not move it
	again, err := repository.MarkRead(ctx, conv.ID, bob.ID)
	req.NoError(err)
	req.True(again.LastRead.Equal(participant.LastRead))

	_, err = repository.MarkRead(ctx, conv.ID, "ghost")
	req.ErrorIs(err, cerrors.ErrNotParticipant)
}

func Test_Message_Committed_After_Mark_Read_Stays_Unread(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	ctx := context.Background()
	alice, bob := seedProfile(t, db, "alice"), seedProfile(t, db, "bob")
	conv := seedDirect(t, db, alice, bob)
	repository := NewConversationRepository(db, slog.Default())
	messages := NewMessageRepository(db, slog.Default(), nil)

	// Given a message stamped before its write commits
	stampedAt := time.Now().UTC()
	time.Sleep(2 * time.Millisecond)

	// When bob marks the conversation read in between
	participant, err := repository.MarkRead(ctx, conv.ID, bob.ID)
	req.NoError(err)
	_, err = messages.StoreMessage(ctx, domain.Message{ID: uuid.NewString(), ConversationID: conv.ID, SenderID: alice.ID, Content: "late", CreatedAt: stampedAt})
	req.NoError(err)

	// Then bob still sees it as unread
	participant, err = repository.GetParticipant(ctx, conv.ID, bob.ID)
	req.NoError(err)
	count, err := messages.CountUnread(ctx, conv.ID, participant.LastRead, bob.ID)
	req.NoError(err)
	req.Equal(1, count)
}
