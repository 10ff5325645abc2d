//go:generate go run go.uber.org/mock/mockgen -source=profile.go -destination=../mocks/mock_profile_repository.go -package=mocks
package repositories

import (
	"context"
	"cryptochat/domain"
	cerrors "cryptochat/errors"
	"errors"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

type IProfileRepository interface {
	GetProfile(ctx context.Context, id string) (domain.Profile, error)
	GetProfiles(ctx context.Context, ids []string) ([]domain.Profile, error)
	UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (domain.Profile, error)
	SetAvatar(ctx context.Context, id, avatarURL string) (domain.Profile, error)
	TouchLastSeen(ctx context.Context, id string, at time.Time) error
	ListProfiles(ctx context.Context) ([]domain.Profile, error)
}

type ProfileRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewProfileRepository(db *badger.DB, log *slog.Logger) *ProfileRepository {
	return &ProfileRepository{db: db, log: log}
}

func (p ProfileRepository) GetProfile(_ context.Context, id string) (domain.Profile, error) {
	var profile domain.Profile
	err := p.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, profileKey(id), &profile)
	})
	if err != nil {
		return domain.Profile{}, notFound(err, cerrors.ErrProfileNotFound)
	}
	return profile, nil
}

// GetProfiles returns the profiles matching ids, in the order of ids.
// Unknown ids are skipped.
func (p ProfileRepository) GetProfiles(_ context.Context, ids []string) ([]domain.Profile, error) {
	profiles := make([]domain.Profile, 0, len(ids))
	err := p.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			var profile domain.Profile
			err := getJSON(txn, profileKey(id), &profile)
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			profiles = append(profiles, profile)
		}
		return nil
	})
	return profiles, err
}

func (p ProfileRepository) UpdateProfile(ctx context.Context, id string, upd domain.ProfileUpdate) (domain.Profile, error) {
	return p.modify(ctx, id, func(profile domain.Profile) domain.Profile {
		return profile.Apply(upd, time.Now().UTC())
	})
}

func (p ProfileRepository) SetAvatar(ctx context.Context, id, avatarURL string) (domain.Profile, error) {
	return p.modify(ctx, id, func(profile domain.Profile) domain.Profile {
		profile.AvatarURL = &avatarURL
		profile.UpdatedAt = time.Now().UTC()
		return profile
	})
}

func (p ProfileRepository) TouchLastSeen(ctx context.Context, id string, at time.Time) error {
	_, err := p.modify(ctx, id, func(profile domain.Profile) domain.Profile {
		profile.LastSeen = &at
		return profile
	})
	return err
}

func (p ProfileRepository) ListProfiles(_ context.Context) ([]domain.Profile, error) {
	var profiles []domain.Profile
	err := p.db.View(func(txn *badger.Txn) error {
		var err error
		profiles, err = scanJSON[domain.Profile](txn, []byte("profile:"))
		return err
	})
	return profiles, err
}

// modify applies fn to the stored profile inside a serializable transaction,
// so concurrent credit grants on the same profile are never overwritten.
func (p ProfileRepository) modify(ctx context.Context, id string, fn func(domain.Profile) domain.Profile) (domain.Profile, error) {
	var updated domain.Profile
	err := update(ctx, p.db, p.log, func(txn *badger.Txn) error {
		var profile domain.Profile
		if err := getJSON(txn, profileKey(id), &profile); err != nil {
			return notFound(err, cerrors.ErrProfileNotFound)
		}
		updated = fn(profile)
		return setJSON(txn, profileKey(id), updated)
	})
	if err != nil {
		return domain.Profile{}, err
	}
	return updated, nil
}

func createProfile(txn *badger.Txn, profile domain.Profile) error {
	taken, err := exists(txn, usernameKey(profile.Username))
	if err != nil {
		return err
	}
	if taken {
		return cerrors.ErrUsernameTaken
	}
	if err = txn.Set(usernameKey(profile.Username), []byte(profile.ID)); err != nil {
		return err
	}
	return setJSON(txn, profileKey(profile.ID), profile)
}
