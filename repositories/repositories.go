package repositories

import (
	"context"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// Repositories groups the store accessors behind one storage backend.
type Repositories struct {
	Profiles      IProfileRepository
	Conversations IConversationRepository
	Messages      IMessageRepository
	Transactions  ITransactionRepository
	Users         IUserRepository
	Pinger        Pinger
}

type Pinger interface {
	Ping(ctx context.Context) error
}

func NewBadgerRepositories(db *badger.DB, log *slog.Logger, limitMessages *int) Repositories {
	return Repositories{
		Profiles:      NewProfileRepository(db, log),
		Conversations: NewConversationRepository(db, log),
		Messages:      NewMessageRepository(db, log, limitMessages),
		Transactions:  NewTransactionRepository(db, log),
		Users:         NewUserRepository(db, log),
		Pinger:        badgerPinger{db: db},
	}
}

type badgerPinger struct {
	db *badger.DB
}

func (b badgerPinger) Ping(_ context.Context) error {
	if b.db.IsClosed() {
		return badger.ErrDBClosed
	}
	return nil
}
