package domain

import "time"

// Profile is the public identity record of a user.
// Credits is a denormalized running total of the profile's transactions.
type Profile struct {
	ID            string     `json:"id"`
	Username      string     `json:"username"`
	DisplayName   *string    `json:"display_name,omitempty"`
	AvatarURL     *string    `json:"avatar_url,omitempty"`
	Bio           *string    `json:"bio,omitempty"`
	WalletAddress *string    `json:"wallet_address,omitempty"`
	Credits       int64      `json:"credits"`
	LastSeen      *time.Time `json:"last_seen,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Name returns the display name when set, the username otherwise.
func (p Profile) Name() string {
	if p.DisplayName != nil && *p.DisplayName != "" {
		return *p.DisplayName
	}
	return p.Username
}

// ProfileUpdate carries the editable fields of a profile.
// A nil field is left untouched.
type ProfileUpdate struct {
	DisplayName   *string `json:"display_name" validate:"omitempty,max=50"`
	Bio           *string `json:"bio" validate:"omitempty,max=280"`
	WalletAddress *string `json:"wallet_address" validate:"omitempty,max=128"`
}

func (p Profile) Apply(update ProfileUpdate, at time.Time) Profile {
	if update.DisplayName != nil {
		p.DisplayName = update.DisplayName
	}
	if update.Bio != nil {
		p.Bio = update.Bio
	}
	if update.WalletAddress != nil {
		p.WalletAddress = update.WalletAddress
	}
	p.UpdatedAt = at
	return p
}
