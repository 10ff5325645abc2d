//go:generate go run go.uber.org/mock/mockgen -source=transaction.go -destination=../mocks/mock_transaction_repository.go -package=mocks
package repositories

import (
	"context"
	"cryptochat/domain"
	cerrors "cryptochat/errors"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

type ITransactionRepository interface {
	Grant(ctx context.Context, transaction domain.Transaction) (int64, error)
	ListTransactions(ctx context.Context, profileID string) ([]domain.Transaction, error)
	SumTransactions(ctx context.Context, profileID string) (int64, error)
}

type TransactionRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewTransactionRepository(db *badger.DB, log *slog.Logger) *TransactionRepository {
	return &TransactionRepository{db: db, log: log}
}

// Grant appends the ledger entry and moves the profile balance by its amount
// in one serializable transaction, returning the new balance. Concurrent
// grants on the same profile conflict and are replayed, never lost.
func (t TransactionRepository) Grant(ctx context.Context, transaction domain.Transaction) (int64, error) {
	var balance int64
	err := update(ctx, t.db, t.log, func(txn *badger.Txn) error {
		var profile domain.Profile
		if err := getJSON(txn, profileKey(transaction.ProfileID), &profile); err != nil {
			return notFound(err, cerrors.ErrProfileNotFound)
		}
		balance = profile.Credits + transaction.Amount
		if balance < 0 {
			return cerrors.ErrInsufficientCredits
		}
		key := transactionKey(transaction.ProfileID, transaction.CreatedAt, transaction.ID)
		if err := setJSON(txn, key, transaction); err != nil {
			return err
		}
		profile.Credits = balance
		return setJSON(txn, profileKey(profile.ID), profile)
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// ListTransactions returns the ledger of a profile, newest first.
func (t TransactionRepository) ListTransactions(_ context.Context, profileID string) ([]domain.Transaction, error) {
	var transactions []domain.Transaction
	err := t.db.View(func(txn *badger.Txn) error {
		var err error
		transactions, err = scanJSON[domain.Transaction](txn, transactionPrefix(profileID))
		return err
	})
	if err != nil {
		return nil, err
	}
	return lo.Reverse(transactions), nil
}

func (t TransactionRepository) SumTransactions(ctx context.Context, profileID string) (int64, error) {
	transactions, err := t.ListTransactions(ctx, profileID)
	if err != nil {
		return 0, err
	}
	return lo.SumBy(transactions, func(tx domain.Transaction) int64 { return tx.Amount }), nil
}
