// Package domain contains core concepts of the chat system.
// This file defines Participant memberships and the unread boundary.
// No runtime, network, or UI logic should be added here.
package domain

import "time"

// Participant links a profile to a conversation.
// LastRead is the unread boundary: messages created strictly after it,
// and not sent by the participant, are unread.
type Participant struct {
	ConversationID string    `json:"conversation_id"`
	ProfileID      string    `json:"profile_id"`
	JoinedAt       time.Time `json:"joined_at"`
	LastRead       time.Time `json:"last_read"`
}

func NewParticipant(conversationID, profileID string, at time.Time) Participant {
	return Participant{
		ConversationID: conversationID,
		ProfileID:      profileID,
		JoinedAt:       at,
		LastRead:       at,
	}
}

// Unread reports whether the message counts as unread for this participant.
func (p Participant) Unread(m Message) bool {
	return m.SenderID != p.ProfileID && m.CreatedAt.After(p.LastRead)
}
