package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/InyerM/spends-assistant-web-sub000/internal/model"
	"github.com/InyerM/spends-assistant-web-sub000/internal/testutil"
)

func TestDetectCmd(t *testing.T) {
	db := testutil.SetupTestDB(t)
	path := db.Storage.Path()

	res, err := executeCommand(t, path, "", "detect", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, res.stdout, "Detect account: Nequi")
	assert.NotContains(t, res.stdout, string(testutil.AccountBancolombia))

	rules, err := db.Storage.GetRules(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rules, "dry run must not store rules")

	res, err = executeCommand(t, path, "", "detect", "--priority", "70")
	require.NoError(t, err)
	assert.Contains(t, res.stdout, "Created 3 detection rules")

	rules, err = db.Storage.GetRules(context.Background())
	require.NoError(t, err)
	require.Len(t, rules, 3)
	for _, r := range rules {
		assert.Equal(t, model.RuleTypeAccountDetection, r.RuleType)
		assert.Equal(t, 70, r.Priority)
	}

	res, err = executeCommand(t, path, "", "detect")
	require.NoError(t, err)
	assert.Contains(t, res.stdout, "Created 0 detection rules")
}

func TestDetectCmd_ZeroPriority(t *testing.T) {
	db := testutil.SetupTestDB(t)
	path := db.Storage.Path()

	_, err := executeCommand(t, path, "", "detect", "--priority", "0")
	require.NoError(t, err)

	rules, err := db.Storage.GetRules(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, rules)
	for _, r := range rules {
		assert.Equal(t, 0, r.Priority)
	}
}
