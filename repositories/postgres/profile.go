package postgres

import (
	"context"
	"cryptochat/domain"
	cerrors "cryptochat/errors"
	"cryptochat/repositories"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"
)

const profileColumns = `id, username, display_name, avatar_url, bio, wallet_address, credits, last_seen, created_at, updated_at`

func (s *Store) GetProfile(ctx context.Context, id string) (domain.Profile, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	return scanProfile(row)
}

// GetProfiles returns the profiles matching ids, in the order of ids.
func (s *Store) GetProfiles(ctx context.Context, ids []string) ([]domain.Profile, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	found, err := collectProfiles(rows)
	if err != nil {
		return nil, err
	}
	byID := lo.KeyBy(found, func(p domain.Profile) string { return p.ID })
	profiles := make([]domain.Profile, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			profiles = append(profiles, p)
		}
	}
	return profiles, nil
}

func (s *Store) UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (domain.Profile, error) {
	const query = `
		UPDATE profiles SET
			display_name = COALESCE($2, display_name),
			bio = COALESCE($3, bio),
			wallet_address = COALESCE($4, wallet_address),
			updated_at = $5
		WHERE id = $1
		RETURNING ` + profileColumns
	row := s.pool.QueryRow(ctx, query, id, update.DisplayName, update.Bio, update.WalletAddress, pgTime(time.Now()))
	return scanProfile(row)
}

func (s *Store) SetAvatar(ctx context.Context, id, avatarURL string) (domain.Profile, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE profiles SET avatar_url = $2, updated_at = $3 WHERE id = $1 RETURNING `+profileColumns,
		id, avatarURL, pgTime(time.Now()))
	return scanProfile(row)
}

func (s *Store) TouchLastSeen(ctx context.Context, id string, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `UPDATE profiles SET last_seen = $2 WHERE id = $1`, id, pgTime(at))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return cerrors.ErrProfileNotFound
	}
	return nil
}

func (s *Store) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collectProfiles(rows)
}

// CreateUser inserts the profile and its credentials in one transaction.
func (s *Store) CreateUser(ctx context.Context, user repositories.User, profile domain.Profile) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO profiles (id, username, display_name, credits, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			profile.ID, profile.Username, profile.DisplayName, profile.Credits,
			pgTime(profile.CreatedAt), pgTime(profile.UpdatedAt))
		if err != nil {
			return mapUniqueViolation(err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO users (id, email, password_hash, roles, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			user.ID, user.Email, user.PasswordHash, user.Roles, pgTime(user.CreatedAt))
		return mapUniqueViolation(err)
	})
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (repositories.User, error) {
	var user repositories.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, roles, created_at FROM users WHERE LOWER(email) = LOWER($1)`, email).
		Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Roles, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repositories.User{}, cerrors.ErrUserNotFound
		}
		return repositories.User{}, err
	}
	return user, nil
}

func mapUniqueViolation(err error) error {
	if err == nil {
		return nil
	}
	code, constraint := pgCode(err)
	if code != uniqueViolation {
		return err
	}
	switch constraint {
	case usernameUniqueIndex:
		return cerrors.ErrUsernameTaken
	case emailUniqueIndex, "profiles_pkey", "users_pkey":
		return cerrors.ErrUserAlreadyExists
	default:
		return err
	}
}

func scanProfile(row pgx.Row) (domain.Profile, error) {
	var p domain.Profile
	if err := row.Scan(&p.ID, &p.Username, &p.DisplayName, &p.AvatarURL, &p.Bio, &p.WalletAddress,
		&p.Credits, &p.LastSeen, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Profile{}, cerrors.ErrProfileNotFound
		}
		return domain.Profile{}, err
	}
	return p, nil
}

func collectProfiles(rows pgx.Rows) ([]domain.Profile, error) {
	defer rows.Close()
	var profiles []domain.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}
