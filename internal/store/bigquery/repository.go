package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/ledgerline/statement-ingest/internal/domain"
	"github.com/ledgerline/statement-ingest/internal/store"
)

const transactionsTable = "transactions"

// Repository is the BigQuery implementation of store.TransactionStore.
type Repository struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewRepository creates a repository bound to one project and dataset.
func NewRepository(ctx context.Context, projectID, datasetID string) (*Repository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: bigquery client: %w", err)
	}
	return &Repository{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
	}, nil
}

// Close releases the underlying client.
func (r *Repository) Close() error {
	return r.client.Close()
}

// InsertTransactions bulk-inserts one upload batch via the streaming
// inserter. The inserter accepts the whole batch or reports an error for it;
// row-level failures surface as a PutMultiError.
func (r *Repository) InsertTransactions(ctx context.Context, txs []*domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([]*TransactionRow, 0, len(txs))
	for _, tx := range txs {
		if tx.StatementID == "" {
			return fmt.Errorf("InsertTransactions: transaction missing statement id")
		}
		if tx.TransactionID == "" {
			tx.TransactionID = uuid.NewString()
		}
		rows = append(rows, rowFromTransaction(tx, now))
	}

	table := r.client.DatasetInProject(r.projectID, r.datasetID).Table(transactionsTable)
	if err := table.Inserter().Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertTransactions: inserting rows: %w", err)
	}
	return nil
}

// ListByStatement returns one upload batch ordered by date.
func (r *Repository) ListByStatement(ctx context.Context, statementID string) ([]*domain.Transaction, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT *
		FROM `+"`%s.%s.%s`"+`
		WHERE statement_id = @statement_id
		ORDER BY transaction_ts ASC
	`, r.projectID, r.datasetID, transactionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "statement_id", Value: statementID},
	}
	return r.queryTransactions(ctx, q)
}

// QueryByDateRange returns transactions dated within [start, end].
func (r *Repository) QueryByDateRange(ctx context.Context, start, end time.Time) ([]*domain.Transaction, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT *
		FROM `+"`%s.%s.%s`"+`
		WHERE transaction_ts BETWEEN @start_ts AND @end_ts
		ORDER BY transaction_ts ASC
	`, r.projectID, r.datasetID, transactionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "start_ts", Value: start},
		{Name: "end_ts", Value: end},
	}
	return r.queryTransactions(ctx, q)
}

func (r *Repository) queryTransactions(ctx context.Context, q *bigquery.Query) ([]*domain.Transaction, error) {
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("queryTransactions: reading query: %w", err)
	}

	var txs []*domain.Transaction
	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("queryTransactions: iterating results: %w", err)
		}
		txs = append(txs, row.toTransaction())
	}
	return txs, nil
}

// DeleteByStatement removes one upload batch and reports the removed count.
func (r *Repository) DeleteByStatement(ctx context.Context, statementID string) (int64, error) {
	count, err := r.countByStatement(ctx, statementID)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}

	q := r.client.Query(fmt.Sprintf(`
		DELETE FROM `+"`%s.%s.%s`"+`
		WHERE statement_id = @statement_id
	`, r.projectID, r.datasetID, transactionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "statement_id", Value: statementID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("DeleteByStatement: running delete: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return 0, fmt.Errorf("DeleteByStatement: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return 0, fmt.Errorf("DeleteByStatement: job error: %w", err)
	}

	return count, nil
}

func (r *Repository) countByStatement(ctx context.Context, statementID string) (int64, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT COUNT(*) AS n
		FROM `+"`%s.%s.%s`"+`
		WHERE statement_id = @statement_id
	`, r.projectID, r.datasetID, transactionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "statement_id", Value: statementID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return 0, fmt.Errorf("countByStatement: reading query: %w", err)
	}

	var row struct {
		N int64 `bigquery:"n"`
	}
	if err := it.Next(&row); err != nil && err != iterator.Done {
		return 0, fmt.Errorf("countByStatement: iterating results: %w", err)
	}
	return row.N, nil
}

// SummarizeByAccount aggregates income/expense totals per account.
func (r *Repository) SummarizeByAccount(ctx context.Context, start, end time.Time) ([]store.AccountSummary, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT
			account_id,
			SUM(IF(amount > 0, amount, 0)) AS income,
			SUM(IF(amount < 0, -amount, 0)) AS expenses,
			SUM(amount) AS net,
			COUNT(*) AS transaction_count
		FROM `+"`%s.%s.%s`"+`
		WHERE transaction_ts BETWEEN @start_ts AND @end_ts
		GROUP BY account_id
		ORDER BY account_id ASC
	`, r.projectID, r.datasetID, transactionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "start_ts", Value: start},
		{Name: "end_ts", Value: end},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("SummarizeByAccount: reading query: %w", err)
	}

	var sums []store.AccountSummary
	for {
		var row struct {
			AccountID        string  `bigquery:"account_id"`
			Income           float64 `bigquery:"income"`
			Expenses         float64 `bigquery:"expenses"`
			Net              float64 `bigquery:"net"`
			TransactionCount int64   `bigquery:"transaction_count"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("SummarizeByAccount: iterating results: %w", err)
		}
		sums = append(sums, store.AccountSummary{
			AccountID:        row.AccountID,
			Income:           row.Income,
			Expenses:         row.Expenses,
			Net:              row.Net,
			TransactionCount: row.TransactionCount,
		})
	}
	return sums, nil
}

var _ store.TransactionStore = (*Repository)(nil)
