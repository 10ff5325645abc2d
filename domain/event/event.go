package event

import (
	"cryptochat/domain"
	"time"
)

type DomainEvent interface {
	ProfileID() string
}

// ProfileChanged is emitted after a profile row has been created or modified.
type ProfileChanged struct {
	Profile domain.Profile
	At      time.Time
}

func (p ProfileChanged) ProfileID() string {
	return p.Profile.ID
}

// MessageCensored is emitted when moderation masked words of a sent message.
type MessageCensored struct {
	MessageID      string
	ConversationID string
	SenderID       string
	Words          []string
	At             time.Time
}

func (m MessageCensored) ProfileID() string {
	return m.SenderID
}
