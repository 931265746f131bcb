package assist

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ledgerline/statement-ingest/internal/domain"
)

// fakeGenerator returns a canned reply or error and records whether it was
// called at all.
type fakeGenerator struct {
	reply  string
	err    error
	called bool
}

func (f *fakeGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	f.called = true
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func TestTryExtractNoGenerator(t *testing.T) {
	e := NewExtractor(nil, zerolog.Nop())
	txs := e.TryExtract(context.Background(), "Date,Amount\n01/02/24,4.50\n", "stmt.csv")
	if txs != nil {
		t.Fatalf("TryExtract() with no generator = %v, want nil", txs)
	}
}

func TestTryExtractParsesWrappedArray(t *testing.T) {
	gen := &fakeGenerator{
		reply: "Here is the extracted data:\n```json\n" +
			`[{"date":"2024-02-01","description":"GROCERY","amount":-45.0,"accountNumber":"111122223333"},` +
			`{"date":"2024-02-02","description":"SALARY","amount":250000,"accountNumber":null}]` +
			"\n```\nLet me know if you need anything else.",
	}
	e := NewExtractor(gen, zerolog.Nop())

	txs := e.TryExtract(context.Background(), "raw statement text", "stmt.csv")
	if len(txs) != 2 {
		t.Fatalf("TryExtract() returned %d transactions, want 2", len(txs))
	}
	if txs[0].Amount != -45.0 || txs[1].Amount != 250000 {
		t.Errorf("amounts = %v, %v", txs[0].Amount, txs[1].Amount)
	}
	if txs[0].AccountID != "111122223333" {
		t.Errorf("AccountID = %q, want reported account number", txs[0].AccountID)
	}
	if txs[1].AccountID != domain.UnknownAccount {
		t.Errorf("AccountID = %q, want unknown-account with no hints", txs[1].AccountID)
	}
	if txs[0].CategoryID != nil {
		t.Error("CategoryID must be nil")
	}
}

func TestTryExtractAccountHintFallback(t *testing.T) {
	gen := &fakeGenerator{
		reply: `[{"date":"2024-02-01","description":"COFFEE","amount":-4.5}]`,
	}
	e := NewExtractor(gen, zerolog.Nop())

	text := "account 999888777666\nsome statement body"
	txs := e.TryExtract(context.Background(), text, "stmt.txt")
	if len(txs) != 1 {
		t.Fatalf("got %d transactions, want 1", len(txs))
	}
	if txs[0].AccountID != "999888777666" {
		t.Errorf("AccountID = %q, want pre-scanned hint", txs[0].AccountID)
	}
}

func TestTryExtractKeepsZeroAmounts(t *testing.T) {
	gen := &fakeGenerator{
		reply: `[{"date":"2024-02-01","description":"FEE WAIVED","amount":0},` +
			`{"date":"2024-02-02","description":"JUNK","amount":"not a number at all"}]`,
	}
	e := NewExtractor(gen, zerolog.Nop())

	txs := e.TryExtract(context.Background(), "text", "stmt.csv")
	// The string amount coerces to 0 as well; both survive under the
	// drop-NaN-only policy.
	if len(txs) != 2 {
		t.Fatalf("got %d transactions, want 2 (zero amounts kept)", len(txs))
	}
	for _, tx := range txs {
		if tx.Amount != 0 {
			t.Errorf("amount = %v, want 0", tx.Amount)
		}
	}
}

func TestTryExtractFailureModes(t *testing.T) {
	tests := []struct {
		name string
		gen  *fakeGenerator
	}{
		{name: "network error", gen: &fakeGenerator{err: errors.New("dial timeout")}},
		{name: "no array in reply", gen: &fakeGenerator{reply: "I could not find any transactions."}},
		{name: "malformed array", gen: &fakeGenerator{reply: "[{not json]"}},
		{name: "empty array", gen: &fakeGenerator{reply: "[]"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExtractor(tt.gen, zerolog.Nop())
			txs := e.TryExtract(context.Background(), "text", "stmt.csv")
			if len(txs) != 0 {
				t.Errorf("TryExtract() = %d transactions, want 0", len(txs))
			}
			if !tt.gen.called {
				t.Error("generator was never invoked")
			}
		})
	}
}

func TestTryExtractNonObjectItemsSkipped(t *testing.T) {
	gen := &fakeGenerator{
		reply: `["stray string", {"date":"2024-02-01","description":"OK","amount":1.5}, 42]`,
	}
	e := NewExtractor(gen, zerolog.Nop())

	txs := e.TryExtract(context.Background(), "text", "stmt.csv")
	if len(txs) != 1 {
		t.Fatalf("got %d transactions, want 1", len(txs))
	}
	if txs[0].Description != "OK" {
		t.Errorf("description = %q", txs[0].Description)
	}
}
