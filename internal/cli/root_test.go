package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeInput drops CSV content into a temp file and returns its path.
func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transactions.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs the root command with args, capturing stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Contains(t, cmd.Use, "settler")
	assert.Contains(t, cmd.Long, "dispute lifecycle")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	subCmd, _, err := cmd.Find([]string{"check"})
	require.NoError(t, err)
	require.NotNil(t, subCmd)
	assert.Equal(t, "check", subCmd.Name())
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	indexFlag := cmd.PersistentFlags().Lookup("index")
	require.NotNil(t, indexFlag)
	assert.Equal(t, "memory", indexFlag.DefValue)

	outputFlag := cmd.Flags().Lookup("output")
	require.NotNil(t, outputFlag)
	assert.Equal(t, "o", outputFlag.Shorthand)
}

func TestIndexBackendValidation(t *testing.T) {
	assert.True(t, isValidIndexBackend("memory"))
	assert.True(t, isValidIndexBackend("sqlite"))
	assert.False(t, isValidIndexBackend("postgres"))
	assert.False(t, isValidIndexBackend(""))
	assert.False(t, isValidIndexBackend("MEMORY"))
}

func TestIndexBackendValidationIntegration(t *testing.T) {
	path := writeInput(t, "type,client,tx,amount\n")
	_, err := execute(t, "--index", "invalid", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid index backend")
}

func TestProcess_EndToEnd(t *testing.T) {
	path := writeInput(t,
		"type,client,tx,amount\n"+
			"deposit,1,1,10.0\n"+
			"withdrawal,1,2,5.0\n")

	out, err := execute(t, path)
	require.NoError(t, err)
	assert.Equal(t,
		"client,available,held,total,locked\n"+
			"1,5,0,5,false\n",
		out)
}

func TestProcess_DisputeLifecycle(t *testing.T) {
	path := writeInput(t,
		"type,client,tx,amount\n"+
			"deposit,1,1,10.0\n"+
			"dispute,1,1,\n"+
			"chargeback,1,1,\n"+
			"deposit,2,2,3.5\n")

	out, err := execute(t, path)
	require.NoError(t, err)
	assert.Equal(t,
		"client,available,held,total,locked\n"+
			"1,0,0,0,true\n"+
			"2,3.5,0,3.5,false\n",
		out)
}

func TestProcess_SQLiteBackend(t *testing.T) {
	path := writeInput(t,
		"type,client,tx,amount\n"+
			"deposit,1,1,10.0\n"+
			"dispute,1,1,\n"+
			"resolve,1,1,\n")

	out, err := execute(t, "--index", "sqlite", path)
	require.NoError(t, err)
	assert.Equal(t,
		"client,available,held,total,locked\n"+
			"1,10,0,10,false\n",
		out)
}

func TestProcess_FatalError_NoOutput(t *testing.T) {
	path := writeInput(t,
		"type,client,tx,amount\n"+
			"deposit,1,1,10.0\n"+
			"deposit,1,1,5.0\n")

	out, err := execute(t, path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "DUPLICATE_TX")
	assert.Empty(t, out, "fatal errors must abort before any output is written")
}

func TestProcess_MissingInputFile(t *testing.T) {
	_, err := execute(t, filepath.Join(t.TempDir(), "does-not-exist.csv"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestProcess_MissingArgument(t *testing.T) {
	_, err := execute(t)
	require.Error(t, err)
	assert.NotEqual(t, ExitSuccess, GetExitCode(err))
}

func TestProcess_OutputFile(t *testing.T) {
	input := writeInput(t, "type,client,tx,amount\ndeposit,1,1,2.0\n")
	outPath := filepath.Join(t.TempDir(), "accounts.csv")

	stdout, err := execute(t, "--output", outPath, input)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	written, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t,
		"client,available,held,total,locked\n"+
			"1,2,0,2,false\n",
		string(written))
}

func TestProcess_DropsMalformedRows(t *testing.T) {
	path := writeInput(t,
		"type,client,tx,amount\n"+
			"deposit,1,1,10.0\n"+
			"bogus,1,2,1.0\n"+
			"deposit,1,3,not-a-number\n")

	out, err := execute(t, path)
	require.NoError(t, err)
	assert.Equal(t,
		"client,available,held,total,locked\n"+
			"1,10,0,10,false\n",
		out)
}
