package tx

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ReportedScale is the number of fractional digits amounts are truncated
// to when reported. Internal arithmetic keeps full input precision.
const ReportedScale = 4

// ParseAmount parses a decimal amount column value.
// Negative amounts are rejected here so the engine can treat every amount
// it sees as validated non-negative input.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("negative amount %q", s)
	}
	return d, nil
}

// Format renders an amount for output, truncated (not rounded) to
// ReportedScale fractional digits. 1.23456 formats as "1.2345".
func Format(d decimal.Decimal) string {
	return d.Truncate(ReportedScale).String()
}
