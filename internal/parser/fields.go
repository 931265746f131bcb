package parser

import (
	"strings"
)

// Record is one parsed statement row: a mapping of column name to raw value
// that also remembers column order, since fallback resolution needs the
// first column in insertion order.
type Record struct {
	columns []string
	values  map[string]string
}

// NewRecord builds a Record from a header and a row of values. Extra values
// beyond the header are dropped; missing values are left unset.
func NewRecord(header, row []string) Record {
	r := Record{
		columns: make([]string, 0, len(header)),
		values:  make(map[string]string, len(header)),
	}
	for i, col := range header {
		col = strings.TrimSpace(col)
		if col == "" {
			continue
		}
		r.columns = append(r.columns, col)
		if i < len(row) {
			r.values[col] = strings.TrimSpace(row[i])
		} else {
			r.values[col] = ""
		}
	}
	return r
}

// Columns returns the column names in insertion order.
func (r Record) Columns() []string {
	return r.columns
}

// Get returns the raw value for an exact column name.
func (r Record) Get(name string) string {
	return r.values[name]
}

// Has reports whether the record has a column with the exact name.
func (r Record) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// ResolveField returns the first of candidates present as a column in the
// record. If none match it falls back to the record's first column, and
// returns the empty string for a record with no columns at all.
func ResolveField(r Record, candidates []string) string {
	for _, name := range candidates {
		if r.Has(name) {
			return name
		}
	}
	if len(r.columns) > 0 {
		return r.columns[0]
	}
	return ""
}

// Known column-name spellings per logical field, in resolution order.
// Collected from statements of different issuers; matching is exact, the
// alias lists carry the casing variants seen in the wild.
var (
	accountAliases = []string{
		"account", "account_number", "account_no", "accountNumber",
		"Account", "Account Number", "Account No", "ACCOUNT NUMBER",
	}
	dateAliases = []string{
		"date", "transaction_date", "trans_date", "posting_date",
		"Date", "Trans Date", "Transaction Date", "Posting Date", "DATE",
	}
	descriptionAliases = []string{
		"description", "details", "narrative", "particulars", "memo",
		"Description", "Details", "Transaction Details", "Narrative", "DESCRIPTION",
	}
	amountAliases = []string{
		"amount", "transaction_amount", "value", "debit",
		"Amount", "Transaction Amount", "Value", "AMOUNT",
	}
	typeAliases = []string{
		"type", "transaction_type", "dr_cr", "cr_dr",
		"Type", "Transaction Type", "DR/CR", "CR/DR",
	}
)
