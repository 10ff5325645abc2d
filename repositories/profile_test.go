package repositories

import (
	"context"
	"cryptochat/domain"
	cerrors "cryptochat/errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func Test_Create_User_And_Fetch_By_Email(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	ctx := context.Background()
	alice := seedProfile(t, db, "alice")
	users := NewUserRepository(db, slog.Default())

	user, err := users.GetUserByEmail(ctx, "ALICE@example.com")
	req.NoError(err)
	req.Equal(alice.ID, user.ID)

	_, err = users.GetUserByEmail(ctx, "nobody@example.com")
	req.ErrorIs(err, cerrors.ErrUserNotFound)
}

func Test_Create_User_Conflicts(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	ctx := context.Background()
	seedProfile(t, db, "alice")
	users := NewUserRepository(db, slog.Default())
	now := time.Now().UTC()

	// Same email
	id := uuid.NewString()
	err := users.CreateUser(ctx,
		User{ID: id, Email: "alice@example.com", PasswordHash: "hash", CreatedAt: now},
		domain.Profile{ID: id, Username: "other", CreatedAt: now, UpdatedAt: now})
	req.ErrorIs(err, cerrors.ErrUserAlreadyExists)

	// Same username, any case
	err = users.CreateUser(ctx,
		User{ID: id, Email: "other@example.com", PasswordHash: "hash", CreatedAt: now},
		domain.Profile{ID: id, Username: "ALICE", CreatedAt: now, UpdatedAt: now})
	req.ErrorIs(err, cerrors.ErrUsernameTaken)

	// Nothing was half written
	_, err = users.GetUserByEmail(ctx, "other@example.com")
	req.ErrorIs(err, cerrors.ErrUserNotFound)
	_, err = NewProfileRepository(db, slog.Default()).GetProfile(ctx, id)
	req.ErrorIs(err, cerrors.ErrProfileNotFound)
}

func Test_Update_Profile(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	ctx := context.Background()
	alice := seedProfile(t, db, "alice")
	repository := NewProfileRepository(db, slog.Default())

	updated, err := repository.UpdateProfile(ctx, alice.ID, domain.ProfileUpdate{DisplayName: lo.ToPtr("Alice")})
	req.NoError(err)
	req.Equal("Alice", updated.Name())

	updated, err = repository.SetAvatar(ctx, alice.ID, "http://localhost/avatars/a.png")
	req.NoError(err)
	req.Equal("http://localhost/avatars/a.png", *updated.AvatarURL)
	req.Equal("Alice", *updated.DisplayName)

	seen := time.Now().UTC()
	req.NoError(repository.TouchLastSeen(ctx, alice.ID, seen))
	fetched, err := repository.GetProfile(ctx, alice.ID)
	req.NoError(err)
	req.True(fetched.LastSeen.Equal(seen))

	_, err = repository.UpdateProfile(ctx, "ghost", domain.ProfileUpdate{})
	req.ErrorIs(err, cerrors.ErrProfileNotFound)
}

func Test_Get_Profiles_Skips_Unknown(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	alice, bob := seedProfile(t, db, "alice"), seedProfile(t, db, "bob")
	repository := NewProfileRepository(db, slog.Default())

	profiles, err := repository.GetProfiles(context.Background(), []string{bob.ID, "ghost", alice.ID})
	req.NoError(err)
	req.Len(profiles, 2)
	req.Equal(bob.ID, profiles[0].ID)
	req.Equal(alice.ID, profiles[1].ID)

	all, err := repository.ListProfiles(context.Background())
	req.NoError(err)
	req.Len(all, 2)
}
