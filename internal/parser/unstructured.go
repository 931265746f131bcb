package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/ledgerline/statement-ingest/internal/domain"
)

var (
	// A line that is nothing but a long digit run is a standalone account
	// number header, not a transaction.
	accountHeaderLine = regexp.MustCompile(`^\d{8,}$`)

	// First decimal-with-two-places token on an amount line.
	amountToken = regexp.MustCompile(`\d[\d,]*\.\d{2}`)
)

// lineScanCreditKeywords extend the structured keywords with the bare "cr"
// marker that loosely formatted statements print after credit descriptions.
// "cr" is matched as a standalone token so that words like "grocery" do not
// flip the sign.
var (
	lineScanCreditKeywords = []string{"credit", "payment", "refund", "deposit"}
	crToken                = regexp.MustCompile(`\bcr\b`)
)

// ParseUnstructured is the last-resort parser for statements with no tabular
// structure. It scans for date lines and treats the following line as the
// description and the one after that as the amount source. Lines that do not
// fit the triplet shape are skipped; this parser has no failure signal.
func ParseUnstructured(text, accountFallback string) []domain.Transaction {
	accountID := accountFallback
	if acc, ok := ExtractAccountNumber(text); ok {
		accountID = acc
	}

	lines := strings.Split(text, "\n")
	now := time.Now().UTC()

	var txs []domain.Transaction
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" || accountHeaderLine.MatchString(line) {
			continue
		}
		if !dayFirstDatePattern.MatchString(line) {
			continue
		}
		if i+2 >= len(lines) {
			break
		}

		description := strings.TrimSpace(lines[i+1])
		if description == "" {
			description = domain.UnknownDescription
		}

		token := amountToken.FindString(lines[i+2])
		if token == "" {
			continue
		}
		amount := NormalizeAmount(token)

		lower := strings.ToLower(description)
		credit := crToken.MatchString(lower)
		for _, kw := range lineScanCreditKeywords {
			if strings.Contains(lower, kw) {
				credit = true
				break
			}
		}

		txs = append(txs, domain.Transaction{
			Date:        NormalizeDate(line, now),
			Description: description,
			Amount:      applySign(amount, credit),
			AccountID:   accountID,
		})
		i += 2
	}

	return txs
}
