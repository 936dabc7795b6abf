package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/settler/internal/tx"
)

// Scenario defines a conformance test scenario.
// Scenarios replay a transaction sequence through a fresh engine and
// assert on the final account table or the fatal error code.
type Scenario struct {
	// Name uniquely identifies this scenario. Doubles as the golden file
	// name and the engine run token, keeping output deterministic.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Transactions is the input sequence, in arrival order.
	Transactions []Step `yaml:"transactions"`

	// Expect validates the outcome.
	Expect Expectations `yaml:"expect"`
}

// Step represents one input transaction row.
type Step struct {
	// Type is the transaction kind (deposit|withdrawal|dispute|resolve|chargeback).
	Type string `yaml:"type"`

	// Client is the account identifier.
	Client uint16 `yaml:"client"`

	// Tx is the transaction identifier.
	Tx uint32 `yaml:"tx"`

	// Amount is the decimal amount for deposit/withdrawal steps.
	// Left empty for dispute-kind steps — and for malformed-input
	// scenarios that exercise the engine's missing-amount handling.
	Amount string `yaml:"amount,omitempty"`
}

// Expectations validates the run outcome. At least one of Accounts or
// Error must be set.
type Expectations struct {
	// Accounts lists expected final balances. Subset match: only listed
	// clients are validated.
	Accounts []ExpectedAccount `yaml:"accounts,omitempty"`

	// Error is the expected fatal error code (e.g. "DUPLICATE_TX").
	// Empty means the run must succeed.
	Error string `yaml:"error,omitempty"`
}

// ExpectedAccount specifies one client's expected final state.
type ExpectedAccount struct {
	Client    uint16 `yaml:"client"`
	Available string `yaml:"available"`
	Held      string `yaml:"held"`
	Total     string `yaml:"total"`
	Locked    bool   `yaml:"locked,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "expect:" vs "expects:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Transactions) == 0 {
		return fmt.Errorf("transactions list is required and must be non-empty")
	}

	for i, step := range s.Transactions {
		if _, err := tx.ParseKind(step.Type); err != nil {
			return fmt.Errorf("transactions[%d]: %w", i, err)
		}
		if step.Amount != "" {
			if _, err := tx.ParseAmount(step.Amount); err != nil {
				return fmt.Errorf("transactions[%d]: %w", i, err)
			}
		}
	}

	if len(s.Expect.Accounts) == 0 && s.Expect.Error == "" {
		return fmt.Errorf("expect must specify accounts, an error code, or both")
	}

	for i, acct := range s.Expect.Accounts {
		for field, value := range map[string]string{
			"available": acct.Available,
			"held":      acct.Held,
			"total":     acct.Total,
		} {
			if value == "" {
				return fmt.Errorf("expect.accounts[%d]: %s is required", i, field)
			}
			if _, err := tx.ParseAmount(value); err != nil {
				return fmt.Errorf("expect.accounts[%d].%s: %w", i, field, err)
			}
		}
	}

	return nil
}

// records converts the scenario steps into engine input.
// Line numbers mirror a CSV rendering of the scenario: step i sits on
// row i+2, after the header.
func (s *Scenario) records() ([]tx.Record, error) {
	records := make([]tx.Record, 0, len(s.Transactions))
	for i, step := range s.Transactions {
		kind, err := tx.ParseKind(step.Type)
		if err != nil {
			return nil, fmt.Errorf("transactions[%d]: %w", i, err)
		}
		rec := tx.Record{
			Kind:   kind,
			Client: step.Client,
			Tx:     step.Tx,
			Line:   i + 2,
		}
		if step.Amount != "" {
			amount, err := tx.ParseAmount(step.Amount)
			if err != nil {
				return nil, fmt.Errorf("transactions[%d]: %w", i, err)
			}
			rec.Amount = &amount
		}
		records = append(records, rec)
	}
	return records, nil
}
