package parser

import (
	"encoding/csv"
	"io"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

var (
	// Loosely structured statements print the account number as a bare
	// 12-digit run somewhere in the text.
	longAccountPattern = regexp.MustCompile(`\d{12}`)

	// CSV-shaped statements sometimes carry a shorter account number as the
	// first value of the first column.
	shortAccountPattern = regexp.MustCompile(`^\d{8,}$`)
)

// ExtractAccountNumber scans loosely structured plaintext for an embedded
// 12-digit account number. The second return is false when none is present.
func ExtractAccountNumber(text string) (string, bool) {
	m := longAccountPattern.FindString(text)
	return m, m != ""
}

// AccountHints returns every distinct 12-digit run in the text, in
// order of first appearance.
func AccountHints(text string) []string {
	seen := make(map[string]bool)
	var hints []string
	for _, m := range longAccountPattern.FindAllString(text, -1) {
		if !seen[m] {
			seen[m] = true
			hints = append(hints, m)
		}
	}
	return hints
}

// extractAccountFromCSV inspects the first few parsed rows of CSV-shaped text
// for a known account column, then falls back to checking whether the first
// column's first value is an 8+-digit run. This is a best-effort scan:
// malformed CSV is logged and treated as "no account found".
func extractAccountFromCSV(text string, log zerolog.Logger) (string, bool) {
	const maxRows = 5

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		log.Debug().Err(err).Msg("account scan: unreadable header")
		return "", false
	}

	var rows []Record
	for len(rows) < maxRows {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Debug().Err(err).Msg("account scan: skipping malformed row")
			continue
		}
		rows = append(rows, NewRecord(header, row))
	}

	for _, rec := range rows {
		for _, name := range accountAliases {
			if v := strings.TrimSpace(rec.Get(name)); v != "" {
				return v, true
			}
		}
	}

	if len(rows) > 0 && len(rows[0].Columns()) > 0 {
		first := rows[0].Get(rows[0].Columns()[0])
		if shortAccountPattern.MatchString(first) {
			return first, true
		}
	}

	return "", false
}
