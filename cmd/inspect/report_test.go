package main

import (
	"bytes"
	"context"
	"cryptochat/domain"
	"cryptochat/repositories"
	"cryptochat/services"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRenderLedger_CountsDrift(t *testing.T) {
	req := require.New(t)
	rows := []ledgerRow{
		{Profile: domain.Profile{ID: "0123456789abcdef", Username: "alice"}, Reconciliation: services.Reconciliation{Balance: 10, LedgerSum: 10}},
		{Profile: domain.Profile{ID: "b", Username: "bob"}, Reconciliation: services.Reconciliation{Balance: 7, LedgerSum: 5}},
	}
	var out bytes.Buffer

	drifting := renderLedger(&out, rows, false)

	req.Equal(1, drifting)
	req.Contains(out.String(), "01234567")
	req.NotContains(out.String(), "0123456789abcdef")
	req.Contains(out.String(), "bob")
}

func TestCollectLedgerAndConversations(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	log := slog.Default()

	// Given a store with two profiles, a conversation and a reward
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })
	repos := repositories.NewBadgerRepositories(db, log, nil)
	ledger := services.NewLedgerService(repos.Transactions, repos.Profiles, log)

	var ids []string
	for _, username := range []string{"alice", "bob"} {
		now := time.Now().UTC()
		profile := domain.Profile{ID: uuid.NewString(), Username: username, CreatedAt: now, UpdatedAt: now}
		user := repositories.User{ID: profile.ID, Email: username + "@example.com", PasswordHash: "hash", CreatedAt: now}
		req.NoError(repos.Users.CreateUser(ctx, user, profile))
		ids = append(ids, profile.ID)
	}
	conversation, err := repos.Conversations.CreateDirect(ctx, domain.NewDirectConversation(uuid.NewString(), ids[0], ids[1], time.Now().UTC()), ids[0], ids[1])
	req.NoError(err)
	_, err = repos.Messages.StoreMessage(ctx, domain.Message{ID: uuid.NewString(), ConversationID: conversation.ID, SenderID: ids[0], Content: "gm", CreatedAt: time.Now().UTC()})
	req.NoError(err)
	_, _, err = ledger.GrantCredits(ctx, ids[0], 5, domain.TransactionMessageSent, "Sent a message")
	req.NoError(err)

	// When the report is collected
	rows, err := collectLedger(ctx, repos.Profiles, ledger)
	req.NoError(err)
	conversations, err := collectConversations(ctx, repos.Conversations, repos.Messages)
	req.NoError(err)

	// Then nothing drifts and the activity is counted
	var out bytes.Buffer
	req.Zero(renderLedger(&out, rows, true))
	req.Len(rows, 2)
	req.Len(conversations, 1)
	req.Equal(2, conversations[0].Participants)
	req.Equal(1, conversations[0].Messages)
	renderConversations(&out, conversations)
	req.Contains(out.String(), "direct")
}
