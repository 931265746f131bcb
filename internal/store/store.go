package store

import (
	"context"
	"time"

	"github.com/ledgerline/statement-ingest/internal/domain"
)

// TransactionStore is the persistence collaborator for normalized
// transactions. Implementations assign transaction identifiers on insert and
// supply whatever batch atomicity they can; the parsing core treats inserts
// as all-or-nothing.
type TransactionStore interface {
	// InsertTransactions bulk-inserts one upload batch. Transactions without
	// a TransactionID get one assigned.
	InsertTransactions(ctx context.Context, txs []*domain.Transaction) error

	// ListByStatement returns every transaction stamped with the statement id.
	ListByStatement(ctx context.Context, statementID string) ([]*domain.Transaction, error)

	// QueryByDateRange returns transactions dated within [start, end].
	QueryByDateRange(ctx context.Context, start, end time.Time) ([]*domain.Transaction, error)

	// DeleteByStatement removes one upload batch and reports how many rows
	// it removed.
	DeleteByStatement(ctx context.Context, statementID string) (int64, error)

	// SummarizeByAccount aggregates income/expense totals per account over
	// a date range.
	SummarizeByAccount(ctx context.Context, start, end time.Time) ([]AccountSummary, error)

	// Close releases any underlying client resources.
	Close() error
}

// AccountSummary is one account's aggregate over a date range.
type AccountSummary struct {
	AccountID        string  `json:"account_id"`
	Income           float64 `json:"income"`
	Expenses         float64 `json:"expenses"`
	Net              float64 `json:"net"`
	TransactionCount int64   `json:"transaction_count"`
}
