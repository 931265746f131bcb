package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/ledgerline/statement-ingest/internal/domain"
)

// TransactionRow is the transactions table schema. Domain transactions are
// mapped in and out of this shape at the repository boundary.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED
	StatementID   string `bigquery:"statement_id"`   // REQUIRED
	AccountID     string `bigquery:"account_id"`     // REQUIRED

	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED
	TransactionTS   time.Time  `bigquery:"transaction_ts"`   // REQUIRED

	Description string              `bigquery:"description"` // REQUIRED
	Amount      float64             `bigquery:"amount"`      // REQUIRED
	CategoryID  bigquery.NullString `bigquery:"category_id"` // NULLABLE

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

func rowFromTransaction(tx *domain.Transaction, now time.Time) *TransactionRow {
	row := &TransactionRow{
		TransactionID:   tx.TransactionID,
		StatementID:     tx.StatementID,
		AccountID:       tx.AccountID,
		TransactionDate: civil.DateOf(tx.Date),
		TransactionTS:   tx.Date,
		Description:     tx.Description,
		Amount:          tx.Amount,
		CreatedTS:       now,
	}
	if tx.CategoryID != nil {
		row.CategoryID = bigquery.NullString{StringVal: *tx.CategoryID, Valid: true}
	}
	return row
}

func (r *TransactionRow) toTransaction() *domain.Transaction {
	tx := &domain.Transaction{
		TransactionID: r.TransactionID,
		StatementID:   r.StatementID,
		AccountID:     r.AccountID,
		Date:          r.TransactionTS,
		Description:   r.Description,
		Amount:        r.Amount,
	}
	if r.CategoryID.Valid {
		v := r.CategoryID.StringVal
		tx.CategoryID = &v
	}
	return tx
}
