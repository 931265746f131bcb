package assist

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/ledgerline/statement-ingest/internal/domain"
	"github.com/ledgerline/statement-ingest/internal/parser"
)

// requestTimeout bounds one external generation call. A timeout is treated
// the same as any other network failure: empty result, fall back.
const requestTimeout = 30 * time.Second

// Extractor is the assisted-extraction first pass. Every failure mode
// (missing credential, network error, malformed reply) collapses to an
// empty result so the orchestrator can move on to the next strategy.
type Extractor struct {
	gen Generator
	log zerolog.Logger
}

// NewExtractor wires an extractor around a generator. gen may be nil, in
// which case extraction is disabled and TryExtract returns nothing without
// touching the network.
func NewExtractor(gen Generator, log zerolog.Logger) *Extractor {
	return &Extractor{gen: gen, log: log}
}

// TryExtract submits a bounded excerpt of the statement text to the model
// and defensively parses the reply as a JSON array of transactions. It never
// returns an error; an empty slice means "try the next strategy".
func (e *Extractor) TryExtract(ctx context.Context, text, fileName string) []domain.Transaction {
	if e == nil || e.gen == nil {
		return nil
	}

	hints := parser.AccountHints(text)
	prompt := buildExtractionPrompt(text, fileName, hints)

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	reply, err := e.gen.GenerateText(ctx, prompt)
	if err != nil {
		e.log.Warn().Err(err).Str("file", fileName).Msg("assisted extraction: generation failed")
		return nil
	}

	arr, err := locateJSONArray(reply)
	if err != nil {
		e.log.Warn().Err(err).Str("file", fileName).Msg("assisted extraction: reply had no JSON array")
		return nil
	}

	var items []interface{}
	if err := json.Unmarshal([]byte(arr), &items); err != nil {
		e.log.Warn().Err(err).Str("file", fileName).Msg("assisted extraction: malformed JSON array")
		return nil
	}

	txs := mapItems(items, hints, time.Now().UTC())
	e.log.Info().Int("count", len(txs)).Str("file", fileName).Msg("assisted extraction produced transactions")
	return txs
}
