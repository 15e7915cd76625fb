package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cmdResult struct {
	stdout string
	stderr string
}

// executeCommand runs the root command against dbPath with an isolated HOME.
func executeCommand(t *testing.T, dbPath, stdin string, args ...string) (cmdResult, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--db", dbPath, "--log-level", "error"}, args...))

	err := root.ExecuteContext(context.Background())
	return cmdResult{stdout: stdout.String(), stderr: stderr.String()}, err
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, sub := range root.Commands() {
		names = append(names, sub.Name())
	}
	for _, want := range []string{"migrate", "accounts", "categories", "rules", "resolve", "detect", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestVersionCmd(t *testing.T) {
	res, err := executeCommand(t, t.TempDir()+"/spends.db", "", "version")
	require.NoError(t, err)
	assert.Contains(t, res.stdout, "spends dev")
}

func TestInitConfig_InvalidLogLevel(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--log-level", "loud", "version"})

	err := root.ExecuteContext(context.Background())
	assert.Error(t, err)
}

func TestMigrateCmd(t *testing.T) {
	dbPath := t.TempDir() + "/spends.db"

	res, err := executeCommand(t, dbPath, "", "migrate")
	require.NoError(t, err)
	assert.Contains(t, res.stdout, "completed successfully")

	res, err = executeCommand(t, dbPath, "", "migrate", "--status")
	require.NoError(t, err)
	assert.Contains(t, res.stdout, "schema version 4 (latest 4)")
}
