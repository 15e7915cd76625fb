package observability

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/InyerM/spends-assistant-web-sub000/internal/automation"
	"github.com/InyerM/spends-assistant-web-sub000/internal/model"
)

func strPtr(s string) *string { return &s }

func TestNewMetrics_Independent(t *testing.T) {
	first := NewMetrics()
	second := NewMetrics()

	first.LinkSkipped(automation.LinkSkipSameAccount, "acc-1")

	assert.Equal(t, float64(1), first.Snapshot().LinksSkipped)
	assert.Equal(t, float64(0), second.Snapshot().LinksSkipped)
}

func TestMetrics_RuleSkipped(t *testing.T) {
	m := NewMetrics()

	m.RuleSkipped(model.AutomationRule{ID: "r1"}, &automation.RuleError{
		RuleID: "r1",
		Reason: automation.ReasonInvalidRegex,
		Err:    errors.New("missing closing )"),
	})
	m.RuleSkipped(model.AutomationRule{ID: "r2"}, errors.New("opaque"))

	assert.Equal(t, float64(1), getCounterValue(m.rulesSkipped, automation.ReasonInvalidRegex))
	assert.Equal(t, float64(1), getCounterValue(m.rulesSkipped, "unknown"))
	assert.Equal(t, float64(2), m.Snapshot().RulesSkipped)
}

func TestMetrics_EngineIntegration(t *testing.T) {
	m := NewMetrics()

	broken := model.AutomationRule{
		ID:         "broken",
		IsActive:   true,
		RuleType:   model.RuleTypeGeneral,
		Conditions: model.RuleConditions{DescriptionRegex: strPtr("(")},
		Actions:    model.RuleActions{SetCategory: strPtr("x")},
	}
	food := model.AutomationRule{
		ID:         "food",
		IsActive:   true,
		RuleType:   model.RuleTypeGeneral,
		Conditions: model.RuleConditions{DescriptionContains: []string{"lunch"}},
		Actions:    model.RuleActions{SetCategory: strPtr("food")},
	}

	engine := automation.NewEngine([]model.AutomationRule{broken, food}, automation.WithReporter(m))

	engine.Resolve(model.Candidate{Description: "Lunch", Amount: decimal.NewFromInt(10), Type: model.TypeExpense})
	engine.Resolve(model.Candidate{Description: "Taxi", Amount: decimal.NewFromInt(10), Type: model.TypeExpense})

	snap := m.Snapshot()
	assert.Equal(t, float64(2), snap.Total())
	assert.Equal(t, float64(1), snap.Resolutions[OutcomeApplied])
	assert.Equal(t, float64(1), snap.Resolutions[OutcomeUnmatched])
	assert.Equal(t, float64(2), snap.RulesSkipped)

	families, err := m.Registry.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "spends_rules_applied")
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, OutcomeUnmatched, Outcome(&model.Resolved{}))
	assert.Equal(t, OutcomeApplied, Outcome(&model.Resolved{AppliedRules: []model.AppliedRule{{RuleID: "a"}}}))
	assert.Equal(t, OutcomeLinked, Outcome(&model.Resolved{Transfer: &model.TransferRequest{}}))
}
