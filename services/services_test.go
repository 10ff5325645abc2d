package services

import (
	"context"
	"cryptochat/auth"
	"cryptochat/contract"
	"cryptochat/domain"
	"cryptochat/domain/event"
	"cryptochat/moderation"
	"cryptochat/repositories"
	"cryptochat/search"
	"cryptochat/sink"
	"cryptochat/storage"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testReward = 5

// syncPublisher hands events straight to the sinks so tests observe
// derived views without waiting for a background worker.
type syncPublisher struct {
	sinks []contract.EventSink
}

func (s syncPublisher) Publish(ctx context.Context, e event.DomainEvent) error {
	for _, sk := range s.sinks {
		if err := sk.Consume(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

type fixture struct {
	repos    repositories.Repositories
	chat     *ChatService
	ledger   *LedgerService
	profiles *ProfileService
	auth     *AuthService
	censored *sink.CensorshipSink
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	log := slog.Default()

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	writer, err := search.OpenWriter("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })
	index := search.NewProfileIndex(writer, log)

	objects, err := storage.NewDiskObjectStore(t.TempDir(), "http://localhost:8080", log)
	require.NoError(t, err)

	moderator, err := moderation.NewModerator([]string{"scam", "rugpull"}, '*', log)
	require.NoError(t, err)

	censored := sink.NewCensorshipSink(log)
	events := syncPublisher{sinks: []contract.EventSink{sink.NewSearchSink(index, log), censored}}

	repos := repositories.NewBadgerRepositories(db, log, nil)
	ledger := NewLedgerService(repos.Transactions, repos.Profiles, log)
	return fixture{
		repos:    repos,
		ledger:   ledger,
		chat:     NewChatService(repos.Conversations, repos.Messages, ledger, moderator, events, ChatConfig{MessageReward: testReward, MaxContentLength: 200}, log),
		profiles: NewProfileService(repos.Profiles, index, objects, events, 1<<20, log),
		auth:     NewAuthService(repos.Users, repos.Profiles, auth.NewTokenManager("test-secret", "cryptochat", time.Hour), events, log),
		censored: censored,
	}
}

// seed stores a profile directly, skipping password hashing.
func (f fixture) seed(t *testing.T, username string) domain.Profile {
	t.Helper()
	now := time.Now().UTC()
	profile := domain.Profile{ID: uuid.NewString(), Username: username, CreatedAt: now, UpdatedAt: now}
	user := repositories.User{ID: profile.ID, Email: username + "@example.com", PasswordHash: "hash", Roles: []string{"user"}, CreatedAt: now}
	require.NoError(t, f.repos.Users.CreateUser(context.Background(), user, profile))
	return profile
}
