package domain

import (
	"time"
)

const (
	// UnknownAccount is the sentinel account identifier used when no account
	// number could be recovered from the statement. The orchestrator replaces
	// it with a token derived from the uploaded filename.
	UnknownAccount = "unknown-account"

	// UnknownDescription is used when a row carries no recoverable description.
	UnknownDescription = "Unknown transaction"
)

// Transaction is one normalized statement line. Parsers emit these without
// identifiers; the orchestrator stamps StatementID and the persistence layer
// assigns TransactionID.
type Transaction struct {
	TransactionID string `json:"transaction_id,omitempty"`

	// StatementID is shared by every transaction produced from one upload
	// batch and is the key used for batch-level deletion.
	StatementID string `json:"statement_id,omitempty"`

	Date        time.Time `json:"date"`
	Description string    `json:"description"`

	// Amount is signed: positive for money IN (credit), negative for money
	// OUT (debit).
	Amount float64 `json:"amount"`

	// CategoryID is always nil at parse time; categorization happens
	// downstream.
	CategoryID *string `json:"category_id"`

	AccountID string `json:"account_id"`
}
