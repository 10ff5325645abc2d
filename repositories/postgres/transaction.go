package postgres

import (
	"context"
	"cryptochat/domain"
	cerrors "cryptochat/errors"
	"errors"

	"github.com/jackc/pgx/v5"
)

// Grant moves the balance with a relative UPDATE and appends the ledger entry
// in the same transaction. The CHECK (credits >= 0) constraint rejects debits
// that would overdraw the profile.
func (s *Store) Grant(ctx context.Context, transaction domain.Transaction) (int64, error) {
	var balance int64
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`UPDATE profiles SET credits = credits + $2 WHERE id = $1 RETURNING credits`,
			transaction.ProfileID, transaction.Amount).Scan(&balance)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return cerrors.ErrProfileNotFound
			}
			if code, _ := pgCode(err); code == checkViolation {
				return cerrors.ErrInsufficientCredits
			}
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO transactions (id, profile_id, amount, transaction_type, description, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			transaction.ID, transaction.ProfileID, transaction.Amount, transaction.Type,
			transaction.Description, pgTime(transaction.CreatedAt))
		return err
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (s *Store) ListTransactions(ctx context.Context, profileID string) ([]domain.Transaction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, profile_id, amount, transaction_type, description, created_at
		FROM transactions WHERE profile_id = $1
		ORDER BY created_at DESC, id DESC`, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var transactions []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.ID, &t.ProfileID, &t.Amount, &t.Type, &t.Description, &t.CreatedAt); err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func (s *Store) SumTransactions(ctx context.Context, profileID string) (int64, error) {
	var sum int64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0)::BIGINT FROM transactions WHERE profile_id = $1`, profileID).Scan(&sum)
	return sum, err
}
