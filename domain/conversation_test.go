package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPairKey_IsOrderIndependent(t *testing.T) {
	req := require.New(t)
	req.Equal(PairKey("u1", "u2"), PairKey("u2", "u1"))
	req.Equal("u1|u2", PairKey("u2", "u1"))
	req.NotEqual(PairKey("u1", "u2"), PairKey("u1", "u3"))
}

func TestNewDirectConversation(t *testing.T) {
	req := require.New(t)
	at := time.Now().UTC()

	conv := NewDirectConversation("c1", "u2", "u1", at)

	req.False(conv.IsGroup)
	req.Nil(conv.Name)
	req.Equal("u1|u2", conv.PairKey)
	req.Equal(at, conv.CreatedAt)
	req.Equal(at, conv.UpdatedAt)
}

func TestParticipant_Unread(t *testing.T) {
	req := require.New(t)
	joined := time.Now().UTC()
	p := NewParticipant("c1", "u2", joined)

	// Given a participant that never read, the boundary is the join time
	req.Equal(joined, p.LastRead)

	req.True(p.Unread(Message{SenderID: "u1", CreatedAt: joined.Add(time.Second)}))
	req.False(p.Unread(Message{SenderID: "u2", CreatedAt: joined.Add(time.Second)}), "own messages are never unread")
	req.False(p.Unread(Message{SenderID: "u1", CreatedAt: joined}), "boundary is exclusive")
	req.False(p.Unread(Message{SenderID: "u1", CreatedAt: joined.Add(-time.Second)}))
}

func TestProfile_Apply(t *testing.T) {
	req := require.New(t)
	name := "Alice"
	p := Profile{ID: "u1", Username: "alice"}
	at := time.Now().UTC()

	updated := p.Apply(ProfileUpdate{DisplayName: &name}, at)

	req.Equal("Alice", updated.Name())
	req.Nil(updated.Bio)
	req.Equal(at, updated.UpdatedAt)
	req.Equal("alice", p.Name(), "original is left untouched")
}

func TestTransactionType_Valid(t *testing.T) {
	req := require.New(t)
	req.True(TransactionMessageSent.Valid())
	req.True(TransactionCryptoSale.Valid())
	req.False(TransactionType("gift").Valid())
}
