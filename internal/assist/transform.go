package assist

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ledgerline/statement-ingest/internal/domain"
	"github.com/ledgerline/statement-ingest/internal/parser"
)

// locateJSONArray extracts the JSON array from a model reply that may be
// wrapped in code fences or explanatory prose.
func locateJSONArray(raw string) (string, error) {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("locateJSONArray: no JSON array in model reply")
	}
	return s[start : end+1], nil
}

// mapItems converts the parsed JSON array into normalized transactions,
// coercing each field defensively. Items whose amount is NaN are dropped;
// zero amounts are kept under the DropNaNOnly policy.
func mapItems(items []interface{}, accountHints []string, now time.Time) []domain.Transaction {
	txs := make([]domain.Transaction, 0, len(items))

	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		tx := domain.Transaction{
			Date:        coerceDate(obj["date"], now),
			Description: coerceDescription(obj["description"]),
			Amount:      coerceAmount(obj["amount"]),
			AccountID:   coerceAccount(obj, accountHints),
		}

		if !parser.DropNaNOnly.Keep(tx.Amount) {
			continue
		}
		txs = append(txs, tx)
	}

	return txs
}

func coerceDate(v interface{}, now time.Time) time.Time {
	s, ok := v.(string)
	if !ok {
		return now
	}
	return parser.NormalizeDate(strings.TrimSpace(s), now)
}

func coerceDescription(v interface{}) string {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return domain.UnknownDescription
	}
	return strings.TrimSpace(s)
}

// coerceAmount accepts a JSON number directly, or strips non-numeric
// characters from a string and parses the remainder. Anything else is 0.
func coerceAmount(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		return parser.NormalizeAmount(val)
	default:
		return 0
	}
}

func coerceAccount(obj map[string]interface{}, accountHints []string) string {
	if s, ok := obj["accountNumber"].(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	if len(accountHints) > 0 {
		return accountHints[0]
	}
	return domain.UnknownAccount
}
