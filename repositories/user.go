//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"context"
	"cryptochat/domain"
	cerrors "cryptochat/errors"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

type IUserRepository interface {
	CreateUser(ctx context.Context, user User, profile domain.Profile) error
	GetUserByEmail(ctx context.Context, email string) (User, error)
}

type UserRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewUserRepository(db *badger.DB, log *slog.Logger) *UserRepository {
	return &UserRepository{db: db, log: log}
}

// User is the credential record behind a profile. ID is shared with the profile.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateUser persists the credentials and the profile created on first
// authentication in one transaction: either both exist afterwards or neither.
func (u UserRepository) CreateUser(ctx context.Context, user User, profile domain.Profile) error {
	return update(ctx, u.db, u.log, func(txn *badger.Txn) error {
		taken, err := exists(txn, userKey(user.Email))
		if err != nil {
			return err
		}
		if taken {
			return cerrors.ErrUserAlreadyExists
		}
		if err = createProfile(txn, profile); err != nil {
			return err
		}
		return setJSON(txn, userKey(user.Email), user)
	})
}

func (u UserRepository) GetUserByEmail(_ context.Context, email string) (User, error) {
	var user User
	err := u.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, userKey(email), &user)
	})
	if err != nil {
		return User{}, notFound(err, cerrors.ErrUserNotFound)
	}
	return user, nil
}
