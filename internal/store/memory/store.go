package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/statement-ingest/internal/domain"
	"github.com/ledgerline/statement-ingest/internal/store"
)

// Store keeps transactions in memory. It backs tests and local runs; data is
// lost on restart.
type Store struct {
	mu  sync.RWMutex
	txs map[string]*domain.Transaction
}

// NewStore creates an empty in-memory transaction store.
func NewStore() *Store {
	return &Store{
		txs: make(map[string]*domain.Transaction),
	}
}

// InsertTransactions implements store.TransactionStore. The whole batch is
// inserted under one lock, so callers observe it atomically.
func (s *Store) InsertTransactions(ctx context.Context, txs []*domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tx := range txs {
		if tx.StatementID == "" {
			return fmt.Errorf("InsertTransactions: transaction missing statement id")
		}
		if tx.TransactionID == "" {
			tx.TransactionID = uuid.NewString()
		}
		cp := *tx
		s.txs[tx.TransactionID] = &cp
	}
	return nil
}

// ListByStatement implements store.TransactionStore.
func (s *Store) ListByStatement(ctx context.Context, statementID string) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Transaction
	for _, tx := range s.txs {
		if tx.StatementID == statementID {
			cp := *tx
			result = append(result, &cp)
		}
	}
	sortByDate(result)
	return result, nil
}

// QueryByDateRange implements store.TransactionStore.
func (s *Store) QueryByDateRange(ctx context.Context, start, end time.Time) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Transaction
	for _, tx := range s.txs {
		if tx.Date.Before(start) || tx.Date.After(end) {
			continue
		}
		cp := *tx
		result = append(result, &cp)
	}
	sortByDate(result)
	return result, nil
}

// DeleteByStatement implements store.TransactionStore.
func (s *Store) DeleteByStatement(ctx context.Context, statementID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, tx := range s.txs {
		if tx.StatementID == statementID {
			delete(s.txs, id)
			removed++
		}
	}
	return removed, nil
}

// SummarizeByAccount implements store.TransactionStore.
func (s *Store) SummarizeByAccount(ctx context.Context, start, end time.Time) ([]store.AccountSummary, error) {
	txs, err := s.QueryByDateRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	byAccount := make(map[string]*store.AccountSummary)
	for _, tx := range txs {
		sum, ok := byAccount[tx.AccountID]
		if !ok {
			sum = &store.AccountSummary{AccountID: tx.AccountID}
			byAccount[tx.AccountID] = sum
		}
		if tx.Amount > 0 {
			sum.Income += tx.Amount
		} else {
			sum.Expenses += -tx.Amount
		}
		sum.Net += tx.Amount
		sum.TransactionCount++
	}

	result := make([]store.AccountSummary, 0, len(byAccount))
	for _, sum := range byAccount {
		result = append(result, *sum)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].AccountID < result[j].AccountID
	})
	return result, nil
}

// Close implements store.TransactionStore.
func (s *Store) Close() error {
	return nil
}

func sortByDate(txs []*domain.Transaction) {
	sort.Slice(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.Before(txs[j].Date)
		}
		return txs[i].TransactionID < txs[j].TransactionID
	})
}

var _ store.TransactionStore = (*Store)(nil)
