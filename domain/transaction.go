package domain

import "time"

type TransactionType string

const (
	TransactionMessageSent    TransactionType = "message_sent"
	TransactionMessageRead    TransactionType = "message_read"
	TransactionRewardEarned   TransactionType = "reward_earned"
	TransactionCryptoPurchase TransactionType = "crypto_purchase"
	TransactionCryptoSale     TransactionType = "crypto_sale"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionMessageSent, TransactionMessageRead, TransactionRewardEarned,
		TransactionCryptoPurchase, TransactionCryptoSale:
		return true
	default:
		return false
	}
}

// Transaction is an append-only credit ledger entry.
type Transaction struct {
	ID          string          `json:"id"`
	ProfileID   string          `json:"profile_id"`
	Amount      int64           `json:"amount"`
	Type        TransactionType `json:"transaction_type"`
	Description *string         `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
