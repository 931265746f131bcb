package parser

import (
	"math"
	"strconv"
	"strings"
)

// AmountPolicy names a rule for which coerced amounts a parsing path keeps.
// The structured parser drops zero rows because a zero there means the amount
// column failed to coerce; assisted extraction keeps zeros because the model
// may legitimately report a zero-value transaction. The two rules stay
// separate rather than unified.
type AmountPolicy int

const (
	// DropZeroAndNaN discards rows whose amount is zero or not a number.
	// An unparseable or zero amount carries no information.
	DropZeroAndNaN AmountPolicy = iota

	// DropNaNOnly discards only non-numeric amounts and keeps legitimate
	// zero-amount rows.
	DropNaNOnly
)

// Keep reports whether a coerced amount survives under the policy.
func (p AmountPolicy) Keep(amount float64) bool {
	if math.IsNaN(amount) {
		return false
	}
	if p == DropZeroAndNaN && amount == 0 {
		return false
	}
	return true
}

// NormalizeAmount strips everything except digits, '.' and '-' from a raw
// value and parses the remainder as a float. Unparseable values coerce to 0.
func NormalizeAmount(value string) float64 {
	var b strings.Builder
	for _, r := range value {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return f
}

// applySign returns the amount with the sign implied by the credit flag:
// positive magnitude for credits, negative for debits.
func applySign(amount float64, credit bool) float64 {
	magnitude := math.Abs(amount)
	if credit {
		return magnitude
	}
	return -magnitude
}
