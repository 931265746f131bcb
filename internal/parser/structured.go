package parser

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ledgerline/statement-ingest/internal/domain"
)

// ErrNotTabular signals that the statement text is not delimited tabular
// data at all. The caller is expected to fall back to the line scanner.
var ErrNotTabular = errors.New("statement text is not tabular")

// creditKeywords mark a description as money IN when the type column is
// inconclusive.
var creditKeywords = []string{"payment", "refund", "credit", "deposit"}

// ParseStructured parses statement text as tolerant delimited data and maps
// each surviving row to a normalized transaction. It returns ErrNotTabular
// (wrapped) when the content has no tabular structure; individual malformed
// rows are skipped, never fatal.
func ParseStructured(text, accountFallback string, log zerolog.Logger) ([]domain.Transaction, error) {
	accountID, ok := extractAccountFromCSV(text, log)
	if !ok {
		accountID = accountFallback
	}

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, ErrNotTabular
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\uFEFF"))
	}
	if len(header) < 2 {
		// A single column of free-form text is prose, not a table.
		return nil, ErrNotTabular
	}

	now := time.Now().UTC()
	var txs []domain.Transaction

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Debug().Err(err).Msg("structured parse: skipping malformed row")
			continue
		}

		rec := NewRecord(header, row)
		tx, ok := normalizeRow(rec, accountID, now)
		if !ok {
			continue
		}
		txs = append(txs, tx)
	}

	return txs, nil
}

// normalizeRow maps one record to a transaction. The second return is false
// when the row's final amount fails the DropZeroAndNaN policy.
func normalizeRow(rec Record, accountID string, now time.Time) (domain.Transaction, bool) {
	date := NormalizeDate(rec.Get(ResolveField(rec, dateAliases)), now)

	description := rec.Get(ResolveField(rec, descriptionAliases))
	if description == "" {
		description = domain.UnknownDescription
	}

	amount := NormalizeAmount(rec.Get(ResolveField(rec, amountAliases)))
	credit := inferCredit(rec, description)

	// Literal Deposits/Withdrawals columns override both the type column and
	// the amount column. Withdrawals wins when both are positive.
	if deposit := NormalizeAmount(rec.Get("Deposits")); rec.Has("Deposits") && deposit > 0 {
		credit = true
		amount = deposit
	}
	if withdrawal := NormalizeAmount(rec.Get("Withdrawals")); rec.Has("Withdrawals") && withdrawal > 0 {
		credit = false
		amount = withdrawal
	}

	signed := applySign(amount, credit)
	if !DropZeroAndNaN.Keep(signed) {
		return domain.Transaction{}, false
	}

	rowAccount := accountID
	for _, name := range accountAliases {
		if v := strings.TrimSpace(rec.Get(name)); v != "" {
			rowAccount = v
			break
		}
	}

	return domain.Transaction{
		Date:        date,
		Description: description,
		Amount:      signed,
		AccountID:   rowAccount,
	}, true
}

// inferCredit applies the type-column rule, then the description keyword
// scan when the type column is inconclusive.
func inferCredit(rec Record, description string) bool {
	typeVal := strings.ToLower(strings.TrimSpace(rec.Get(ResolveField(rec, typeAliases))))
	if strings.Contains(typeVal, "credit") || typeVal == "cr" {
		return true
	}
	return descriptionSuggestsCredit(description)
}

func descriptionSuggestsCredit(description string) bool {
	lower := strings.ToLower(description)
	for _, kw := range creditKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
