package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario drops YAML content into a temp file and returns its path.
func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	path := writeScenario(t, `
name: sample
description: One deposit lands on one account.
transactions:
  - type: deposit
    client: 1
    tx: 1
    amount: "3.5"
  - type: dispute
    client: 1
    tx: 1
expect:
  accounts:
    - client: 1
      available: "0"
      held: "3.5"
      total: "3.5"
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "sample", scenario.Name)
	require.Len(t, scenario.Transactions, 2)
	assert.Equal(t, "deposit", scenario.Transactions[0].Type)
	assert.Equal(t, uint16(1), scenario.Transactions[0].Client)
	assert.Equal(t, "3.5", scenario.Transactions[0].Amount)
	assert.Empty(t, scenario.Transactions[1].Amount)
	require.Len(t, scenario.Expect.Accounts, 1)
	assert.False(t, scenario.Expect.Accounts[0].Locked)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: Strict decoding rejects misspelled keys.
transactions:
  - type: deposit
    client: 1
    tx: 1
    amount: "1"
expects:
  error: DUPLICATE_TX
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "missing name",
			yaml: `
description: d
transactions:
  - {type: deposit, client: 1, tx: 1, amount: "1"}
expect:
  error: DUPLICATE_TX
`,
			wantErr: "name is required",
		},
		{
			name: "missing description",
			yaml: `
name: n
transactions:
  - {type: deposit, client: 1, tx: 1, amount: "1"}
expect:
  error: DUPLICATE_TX
`,
			wantErr: "description is required",
		},
		{
			name: "empty transactions",
			yaml: `
name: n
description: d
expect:
  error: DUPLICATE_TX
`,
			wantErr: "transactions list is required",
		},
		{
			name: "unknown transaction type",
			yaml: `
name: n
description: d
transactions:
  - {type: transfer, client: 1, tx: 1, amount: "1"}
expect:
  error: DUPLICATE_TX
`,
			wantErr: "transactions[0]",
		},
		{
			name: "negative amount",
			yaml: `
name: n
description: d
transactions:
  - {type: deposit, client: 1, tx: 1, amount: "-1"}
expect:
  error: DUPLICATE_TX
`,
			wantErr: "transactions[0]",
		},
		{
			name: "no expectations",
			yaml: `
name: n
description: d
transactions:
  - {type: deposit, client: 1, tx: 1, amount: "1"}
`,
			wantErr: "expect must specify",
		},
		{
			name: "expected account missing balance",
			yaml: `
name: n
description: d
transactions:
  - {type: deposit, client: 1, tx: 1, amount: "1"}
expect:
  accounts:
    - {client: 1, available: "1", total: "1"}
`,
			wantErr: "held is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
