package pipeline

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/ledgerline/statement-ingest/internal/assist"
	"github.com/ledgerline/statement-ingest/internal/domain"
	"github.com/ledgerline/statement-ingest/internal/parser"
)

// RawStatement is one uploaded file's content for the duration of a single
// processing call.
type RawStatement struct {
	Text            string
	FileName        string
	AccountFallback string
}

// ParseStrategy is one layer of the fallback chain. Strategies return an
// empty slice for "no result, try the next one"; an error aborts processing.
type ParseStrategy interface {
	Name() string
	Parse(ctx context.Context, stmt RawStatement) ([]domain.Transaction, error)
}

// assistedStrategy wraps the model-backed extractor. It cannot fail: every
// adapter-level failure already collapses to an empty result.
type assistedStrategy struct {
	extractor *assist.Extractor
}

func (s *assistedStrategy) Name() string { return "assisted" }

func (s *assistedStrategy) Parse(ctx context.Context, stmt RawStatement) ([]domain.Transaction, error) {
	return s.extractor.TryExtract(ctx, stmt.Text, stmt.FileName), nil
}

// structuredStrategy runs the tolerant CSV parser and defers to the line
// scanner when the content has no tabular structure at all.
type structuredStrategy struct {
	log zerolog.Logger
}

func (s *structuredStrategy) Name() string { return "structured" }

func (s *structuredStrategy) Parse(ctx context.Context, stmt RawStatement) ([]domain.Transaction, error) {
	txs, err := parser.ParseStructured(stmt.Text, stmt.AccountFallback, s.log)
	if err == nil {
		return txs, nil
	}
	if !errors.Is(err, parser.ErrNotTabular) {
		return nil, err
	}

	s.log.Info().Str("file", stmt.FileName).Msg("statement not tabular, scanning lines")
	return parser.ParseUnstructured(stmt.Text, stmt.AccountFallback), nil
}

// defaultStrategies builds the ordered fallback chain: assisted extraction
// first, then the structured parser with its internal line-scanner fallback.
func defaultStrategies(extractor *assist.Extractor, log zerolog.Logger) []ParseStrategy {
	return []ParseStrategy{
		&assistedStrategy{extractor: extractor},
		&structuredStrategy{log: log},
	}
}
