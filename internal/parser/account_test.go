package parser

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestExtractAccountNumber(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{
			name: "twelve digit run in header text",
			text: "Account Statement\n123456789012\n01/02/24",
			want: "123456789012",
			ok:   true,
		},
		{
			name: "embedded in sentence",
			text: "Statement for account 999888777666 issued March 2024",
			want: "999888777666",
			ok:   true,
		},
		{
			name: "short runs ignored",
			text: "ref 12345678",
			ok:   false,
		},
		{
			name: "no digits at all",
			text: "hello world",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractAccountNumber(tt.text)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ExtractAccountNumber() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestExtractAccountFromCSV(t *testing.T) {
	log := zerolog.Nop()

	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{
			name: "account column in early rows",
			text: "Date,account,Amount\n01/02/24,55512345,45.00\n",
			want: "55512345",
			ok:   true,
		},
		{
			name: "first column holds digit run",
			text: "Reference,Amount\n1234567890,45.00\n",
			want: "1234567890",
			ok:   true,
		},
		{
			name: "no account anywhere",
			text: "Date,Description,Amount\n01/02/24,COFFEE,4.50\n",
			ok:   false,
		},
		{
			name: "empty input",
			text: "",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractAccountFromCSV(tt.text, log)
			if ok != tt.ok || got != tt.want {
				t.Errorf("extractAccountFromCSV() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestExtractAccountHints(t *testing.T) {
	text := "acct 111122223333 and again 111122223333 then 444455556666"
	hints := AccountHints(text)
	if len(hints) != 2 {
		t.Fatalf("AccountHints() returned %d hints, want 2", len(hints))
	}
	if hints[0] != "111122223333" || hints[1] != "444455556666" {
		t.Errorf("AccountHints() = %v, want deduplicated in first-seen order", hints)
	}
}
