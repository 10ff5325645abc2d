package domain

import (
	"sort"
	"strings"
	"time"
)

const pairSeparator = "|"

// Conversation is either a 1:1 conversation or a named group channel.
// PairKey is only set for 1:1 conversations and is unique across the store.
type Conversation struct {
	ID        string    `json:"id"`
	IsGroup   bool      `json:"is_group"`
	Name      *string   `json:"name,omitempty"`
	PairKey   string    `json:"pair_key,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PairKey builds the order-independent key of a 1:1 conversation.
// PairKey(a, b) == PairKey(b, a).
func PairKey(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, pairSeparator)
}

func NewDirectConversation(id, a, b string, at time.Time) Conversation {
	return Conversation{
		ID:        id,
		IsGroup:   false,
		PairKey:   PairKey(a, b),
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func NewGroupConversation(id, name string, at time.Time) Conversation {
	return Conversation{
		ID:        id,
		IsGroup:   true,
		Name:      &name,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

// ConversationSummary is one row of a profile's conversation list.
type ConversationSummary struct {
	Conversation   Conversation `json:"conversation"`
	ParticipantIDs []string     `json:"participant_ids"`
	LastMessage    *Message     `json:"last_message,omitempty"`
	UnreadCount    int          `json:"unread_count"`
}
