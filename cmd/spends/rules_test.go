package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/InyerM/spends-assistant-web-sub000/internal/common"
	"github.com/InyerM/spends-assistant-web-sub000/internal/model"
)

func TestRulesCmd_AddShowDelete(t *testing.T) {
	dbPath := t.TempDir() + "/spends.db"

	res, err := executeCommand(t, dbPath, "", "rules", "add",
		"--name", "Uber rides",
		"--priority", "20",
		"--desc-contains", "uber,didi",
		"--min", "1000", "--max", "90000",
		"--set-category", "cat-transport",
		"--note", "ride")
	require.NoError(t, err)
	assert.Contains(t, res.stdout, `Created rule "Uber rides"`)

	res, err = executeCommand(t, dbPath, "", "rules", "list")
	require.NoError(t, err)
	assert.Contains(t, res.stdout, "Uber rides")
	assert.Contains(t, res.stdout, "20")

	store := openTestStore(t, dbPath)
	rules, err := store.GetRules(context.Background())
	require.NoError(t, err)
	require.Len(t, rules, 1)
	rule := rules[0]
	assert.Equal(t, []string{"uber", "didi"}, rule.Conditions.DescriptionContains)
	assert.Nil(t, rule.Conditions.RawTextContains)
	assert.Equal(t, "cat-transport", model.StringValue(rule.Actions.SetCategory))

	res, err = executeCommand(t, dbPath, "", "rules", "show", rule.ID)
	require.NoError(t, err)
	var shown model.AutomationRule
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &shown))
	assert.Equal(t, rule.ID, shown.ID)
	assert.Equal(t, "ride", model.StringValue(shown.Actions.AddNote))

	_, err = executeCommand(t, dbPath, "", "rules", "delete", rule.ID)
	require.NoError(t, err)
	_, err = executeCommand(t, dbPath, "", "rules", "show", rule.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRulesCmd_AddRejectsUnusableRules(t *testing.T) {
	dbPath := t.TempDir() + "/spends.db"

	tests := []struct {
		name string
		args []string
	}{
		{name: "no actions", args: []string{"--name", "noop", "--desc-contains", "x"}},
		{name: "bad regex", args: []string{"--name", "regex", "--regex", "([", "--set-category", "c"}},
		{name: "min above max", args: []string{"--name", "range", "--min", "10", "--max", "1", "--set-category", "c"}},
		{name: "min without max", args: []string{"--name", "half", "--min", "10", "--set-category", "c"}},
		{name: "unknown logic", args: []string{"--name", "logic", "--logic", "xor", "--set-category", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(t, dbPath, "", append([]string{"rules", "add"}, tt.args...)...)
			require.Error(t, err)
			var userErr *common.UserError
			assert.ErrorAs(t, err, &userErr)
		})
	}
}

func TestRulesCmd_Import(t *testing.T) {
	dbPath := t.TempDir() + "/spends.db"
	food := "cat-food"
	bad := "(["

	rules := []model.AutomationRule{
		{
			Name:       "Restaurants",
			Priority:   10,
			IsActive:   true,
			RuleType:   model.RuleTypeGeneral,
			Conditions: model.RuleConditions{RawTextContains: []string{"restaurante"}},
			Actions:    model.RuleActions{SetCategory: &food},
		},
		{
			Name:       "Broken",
			IsActive:   true,
			RuleType:   model.RuleTypeGeneral,
			Conditions: model.RuleConditions{DescriptionRegex: &bad},
			Actions:    model.RuleActions{SetCategory: &food},
		},
	}
	data, err := json.Marshal(rules)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, data, 0600))

	res, err := executeCommand(t, dbPath, "", "rules", "import", path)
	require.NoError(t, err)
	assert.Contains(t, res.stdout, "Imported 2 rules")
	assert.Contains(t, res.stdout, "Broken")

	res, err = executeCommand(t, dbPath, "", "rules", "list")
	require.NoError(t, err)
	assert.Contains(t, res.stdout, "malformed")
}

func TestRulesCmd_ImportRejectsNonArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name": "single"}`), 0600))

	_, err := executeCommand(t, t.TempDir()+"/spends.db", "", "rules", "import", path)
	var userErr *common.UserError
	assert.ErrorAs(t, err, &userErr)
}
