package postgres

import (
	"context"
	"cryptochat/repositories"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ensure Store satisfies every repository interface at compile time.
var (
	_ repositories.IProfileRepository      = (*Store)(nil)
	_ repositories.IConversationRepository = (*Store)(nil)
	_ repositories.IMessageRepository      = (*Store)(nil)
	_ repositories.ITransactionRepository  = (*Store)(nil)
	_ repositories.IUserRepository         = (*Store)(nil)
	_ repositories.Pinger                  = (*Store)(nil)
)

const (
	uniqueViolation = "23505"
	checkViolation  = "23514"

	usernameUniqueIndex = "profiles_username_unique_idx"
	emailUniqueIndex    = "users_email_unique_idx"
)

// Store provides Postgres-backed persistence for every repository.
type Store struct {
	pool          *pgxpool.Pool
	log           *slog.Logger
	limitMessages *int
}

// NewStore creates a new Store and runs migrations.
func NewStore(ctx context.Context, databaseURL string, log *slog.Logger, limitMessages *int) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool, log: log, limitMessages: limitMessages}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Repositories exposes the store through the repository bundle.
func (s *Store) Repositories() repositories.Repositories {
	return repositories.Repositories{
		Profiles:      s,
		Conversations: s,
		Messages:      s,
		Transactions:  s,
		Users:         s,
		Pinger:        s,
	}
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			display_name TEXT,
			avatar_url TEXT,
			bio TEXT,
			wallet_address TEXT,
			credits BIGINT NOT NULL DEFAULT 0 CHECK (credits >= 0),
			last_seen TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS profiles_username_unique_idx ON profiles (LOWER(username));`,
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY REFERENCES profiles(id) ON DELETE CASCADE,
			email TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			roles TEXT[] NOT NULL DEFAULT '{user}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_email_unique_idx ON users (LOWER(email));`,
		`CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			is_group BOOLEAN NOT NULL DEFAULT FALSE,
			name TEXT,
			pair_key TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS conversations_pair_key_unique_idx ON conversations (pair_key) WHERE pair_key IS NOT NULL;`,
		`CREATE TABLE IF NOT EXISTS conversation_participants (
			conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
			profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
			joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_read TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (conversation_id, profile_id)
		);`,
		`CREATE INDEX IF NOT EXISTS conversation_participants_profile_idx ON conversation_participants (profile_id);`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
			sender_id TEXT NOT NULL REFERENCES profiles(id),
			content TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'sent' CHECK (status IN ('sent', 'delivered', 'read')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS messages_conversation_created_idx ON messages (conversation_id, created_at, id);`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
			amount BIGINT NOT NULL,
			transaction_type TEXT NOT NULL CHECK (transaction_type IN ('message_sent', 'message_read', 'reward_earned', 'crypto_purchase', 'crypto_sale')),
			description TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS transactions_profile_created_idx ON transactions (profile_id, created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

// inTx runs fn in a transaction, committing on success and rolling back otherwise.
func (s *Store) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func pgCode(err error) (string, string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	return "", ""
}

// postgres keeps microseconds; truncating up front keeps returned values
// identical to what a later read sees.
func pgTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
