package services

import (
	"context"
	"cryptochat/domain"
	cerrors "cryptochat/errors"
	"cryptochat/repositories"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type ILedgerService interface {
	GrantCredits(ctx context.Context, profileID string, amount int64, txType domain.TransactionType, description string) (domain.Transaction, int64, error)
	Balance(ctx context.Context, profileID string) (int64, error)
	History(ctx context.Context, profileID string) ([]domain.Transaction, error)
	Reconcile(ctx context.Context, profileID string) (Reconciliation, error)
}

// Reconciliation compares the denormalized balance of a profile with the
// sum of its ledger entries.
type Reconciliation struct {
	ProfileID string `json:"profile_id"`
	Balance   int64  `json:"balance"`
	LedgerSum int64  `json:"ledger_sum"`
}

func (r Reconciliation) Drift() int64 {
	return r.Balance - r.LedgerSum
}

type LedgerService struct {
	transactions repositories.ITransactionRepository
	profiles     repositories.IProfileRepository
	log          *slog.Logger
}

func NewLedgerService(transactions repositories.ITransactionRepository, profiles repositories.IProfileRepository, log *slog.Logger) *LedgerService {
	return &LedgerService{transactions: transactions, profiles: profiles, log: log}
}

// GrantCredits appends a ledger entry and moves the balance by amount in
// one atomic write. A negative amount debits the profile; a debit that
// would overdraw it is rejected and nothing is written.
func (l *LedgerService) GrantCredits(ctx context.Context, profileID string, amount int64, txType domain.TransactionType, description string) (domain.Transaction, int64, error) {
	if amount == 0 {
		return domain.Transaction{}, 0, cerrors.ErrInvalidAmount
	}
	if !txType.Valid() {
		return domain.Transaction{}, 0, cerrors.ErrInvalidTransactionType
	}
	transaction := domain.Transaction{
		ID:        uuid.NewString(),
		ProfileID: profileID,
		Amount:    amount,
		Type:      txType,
		CreatedAt: time.Now().UTC(),
	}
	if description != "" {
		transaction.Description = &description
	}

	balance, err := l.transactions.Grant(ctx, transaction)
	if err != nil {
		return domain.Transaction{}, 0, logFailure(l.log, "Grant credits", err, "profile_id", profileID, "amount", amount)
	}
	l.log.Debug("Credits granted", "profile_id", profileID, "amount", amount, "type", txType, "balance", balance)
	return transaction, balance, nil
}

func (l *LedgerService) Balance(ctx context.Context, profileID string) (int64, error) {
	profile, err := l.profiles.GetProfile(ctx, profileID)
	if err != nil {
		return 0, logFailure(l.log, "Get balance", err, "profile_id", profileID)
	}
	return profile.Credits, nil
}

// History returns the ledger of the profile, newest first.
func (l *LedgerService) History(ctx context.Context, profileID string) ([]domain.Transaction, error) {
	if _, err := l.profiles.GetProfile(ctx, profileID); err != nil {
		return nil, logFailure(l.log, "Get history", err, "profile_id", profileID)
	}
	transactions, err := l.transactions.ListTransactions(ctx, profileID)
	if err != nil {
		return nil, logFailure(l.log, "Get history", err, "profile_id", profileID)
	}
	if transactions == nil {
		transactions = []domain.Transaction{}
	}
	return transactions, nil
}

func (l *LedgerService) Reconcile(ctx context.Context, profileID string) (Reconciliation, error) {
	balance, err := l.Balance(ctx, profileID)
	if err != nil {
		return Reconciliation{}, err
	}
	sum, err := l.transactions.SumTransactions(ctx, profileID)
	if err != nil {
		return Reconciliation{}, logFailure(l.log, "Sum transactions", err, "profile_id", profileID)
	}
	return Reconciliation{ProfileID: profileID, Balance: balance, LedgerSum: sum}, nil
}
