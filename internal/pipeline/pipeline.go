package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ledgerline/statement-ingest/internal/assist"
	"github.com/ledgerline/statement-ingest/internal/domain"
	"github.com/ledgerline/statement-ingest/internal/store"
)

// Result is what the caller of ProcessStatement sees. Failures are always
// reported here, never as a panic or raw error escaping the pipeline.
type Result struct {
	Success          bool   `json:"success"`
	StatementID      string `json:"statement_id,omitempty"`
	TransactionCount int    `json:"transactions_count,omitempty"`
	Error            string `json:"error,omitempty"`
}

// Processor runs the strategy chain over one uploaded statement and hands
// the normalized transactions to the persistence collaborator. It holds no
// mutable state; concurrent uploads only share the store.
type Processor struct {
	strategies []ParseStrategy
	store      store.TransactionStore
	log        zerolog.Logger
}

// NewProcessor builds a processor with the default strategy chain.
func NewProcessor(txStore store.TransactionStore, extractor *assist.Extractor, log zerolog.Logger) *Processor {
	return &Processor{
		strategies: defaultStrategies(extractor, log),
		store:      txStore,
		log:        log,
	}
}

// NewProcessorWithStrategies builds a processor with an explicit chain;
// used by tests to isolate orchestration from parsing.
func NewProcessorWithStrategies(txStore store.TransactionStore, log zerolog.Logger, strategies ...ParseStrategy) *Processor {
	return &Processor{
		strategies: strategies,
		store:      txStore,
		log:        log,
	}
}

var nonAccountToken = regexp.MustCompile(`[^a-z0-9-]`)

// SanitizeFileName turns an uploaded filename into an account-fallback
// token: lowercase, extension stripped, everything outside [a-z0-9-]
// replaced with '-'.
func SanitizeFileName(fileName string) string {
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	return nonAccountToken.ReplaceAllString(strings.ToLower(base), "-")
}

// ProcessStatement parses one uploaded file and persists the result. The
// whole call is recovered: unexpected panics become a failure Result.
func (p *Processor) ProcessStatement(ctx context.Context, content []byte, fileName string) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Interface("panic", r).Str("file", fileName).Msg("statement processing panicked")
			result = Result{Error: fmt.Sprintf("internal error processing %s", fileName)}
		}
	}()

	if len(content) == 0 {
		return Result{Error: "statement file is empty"}
	}

	stmt := RawStatement{
		Text:            string(content),
		FileName:        fileName,
		AccountFallback: SanitizeFileName(fileName),
	}

	txs, err := p.runStrategies(ctx, stmt)
	if err != nil {
		p.log.Error().Err(err).Str("file", fileName).Msg("statement parsing failed")
		return Result{Error: err.Error()}
	}

	statementID := uuid.NewString()
	batch := make([]*domain.Transaction, 0, len(txs))
	for i := range txs {
		tx := txs[i]
		if tx.AccountID == domain.UnknownAccount {
			tx.AccountID = stmt.AccountFallback
		}
		tx.StatementID = statementID
		batch = append(batch, &tx)
	}

	if err := p.store.InsertTransactions(ctx, batch); err != nil {
		p.log.Error().Err(err).Str("file", fileName).Msg("persisting transactions failed")
		return Result{Error: fmt.Sprintf("storing transactions: %v", err)}
	}

	p.log.Info().
		Str("file", fileName).
		Str("statement_id", statementID).
		Int("count", len(batch)).
		Msg("statement processed")

	return Result{
		Success:          true,
		StatementID:      statementID,
		TransactionCount: len(batch),
	}
}

// runStrategies walks the ordered chain and stops at the first strategy
// that yields transactions. An empty final result is not an error; it means
// the statement contained nothing recoverable.
func (p *Processor) runStrategies(ctx context.Context, stmt RawStatement) ([]domain.Transaction, error) {
	for _, s := range p.strategies {
		txs, err := s.Parse(ctx, stmt)
		if err != nil {
			return nil, fmt.Errorf("strategy %s: %w", s.Name(), err)
		}
		if len(txs) > 0 {
			p.log.Debug().Str("strategy", s.Name()).Int("count", len(txs)).Msg("strategy produced transactions")
			return txs, nil
		}
	}
	return nil, nil
}
