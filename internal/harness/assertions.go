package harness

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/roach88/settler/internal/tx"
)

// EvaluateExpectations checks a run result against the scenario's
// expect clause and returns one message per failed expectation.
// An empty slice means the scenario passed.
func EvaluateExpectations(scenario *Scenario, result *Result) []string {
	var failures []string

	if scenario.Expect.Error != "" {
		if result.FatalCode != scenario.Expect.Error {
			failures = append(failures, fmt.Sprintf(
				"expected fatal error %s, got %q", scenario.Expect.Error, result.FatalCode))
		}
	} else if result.FatalCode != "" {
		failures = append(failures, fmt.Sprintf(
			"expected a successful run, got fatal error %s", result.FatalCode))
	}

	for _, want := range scenario.Expect.Accounts {
		got, ok := result.Accounts[want.Client]
		if !ok {
			failures = append(failures, fmt.Sprintf("client %d: no account produced", want.Client))
			continue
		}

		for _, check := range []struct {
			field string
			want  string
			got   decimal.Decimal
		}{
			{"available", want.Available, got.Available},
			{"held", want.Held, got.Held},
			{"total", want.Total, got.Total},
		} {
			wantAmt, err := tx.ParseAmount(check.want)
			if err != nil {
				failures = append(failures, fmt.Sprintf(
					"client %d: malformed expected %s %q: %v", want.Client, check.field, check.want, err))
				continue
			}
			if !wantAmt.Equal(check.got) {
				failures = append(failures, fmt.Sprintf(
					"client %d: %s = %s, want %s", want.Client, check.field, tx.Format(check.got), check.want))
			}
		}

		if got.Locked != want.Locked {
			failures = append(failures, fmt.Sprintf(
				"client %d: locked = %t, want %t", want.Client, got.Locked, want.Locked))
		}
	}

	return failures
}
