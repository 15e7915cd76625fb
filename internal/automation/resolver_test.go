package automation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/InyerM/spends-assistant-web-sub000/internal/model"
)

func generalRule(id string, priority int, actions model.RuleActions) model.AutomationRule {
	return model.AutomationRule{
		ID:             id,
		Name:           "rule " + id,
		Priority:       priority,
		IsActive:       true,
		RuleType:       model.RuleTypeGeneral,
		ConditionLogic: model.LogicAnd,
		Actions:        actions,
	}
}

func appliedIDs(res model.Resolved) []string {
	ids := make([]string, 0, len(res.AppliedRules))
	for _, a := range res.AppliedRules {
		ids = append(ids, a.RuleID)
	}
	return ids
}

func lunchCandidate() model.Candidate {
	return model.Candidate{
		RawText:     strPtr("Compra por $25.000 en RESTAURANTE"),
		Description: "Restaurant lunch",
		Amount:      decimal.NewFromInt(25000),
		Type:        model.TypeExpense,
		Source:      "sms",
		AccountID:   strPtr("acc-wallet"),
		CategoryID:  strPtr("uncategorized"),
	}
}

func TestResolve_NoMatchingRules(t *testing.T) {
	candidate := lunchCandidate()
	rule := generalRule("a", 10, model.RuleActions{SetCategory: strPtr("food")})
	rule.Conditions.Source = []string{"manual"}

	res := Resolve([]model.AutomationRule{rule}, candidate)

	assert.Empty(t, res.AppliedRules)
	assert.NotNil(t, res.AppliedRules)
	assert.Equal(t, "uncategorized", model.StringValue(res.CategoryID))
	assert.Equal(t, "acc-wallet", model.StringValue(res.AccountID))
	assert.False(t, res.CategoryOverridden())
}

// Shadowing is per field, not per rule: a lower-priority rule whose
// exclusive target was already claimed keeps its other actions.
func TestResolve_PriorityShadowing(t *testing.T) {
	tests := []struct {
		name        string
		second      model.RuleActions
		wantApplied []string
		wantSecond  *model.RuleActions
	}{
		{
			name:        "shadowed rule with only set_category gets no credit",
			second:      model.RuleActions{SetCategory: strPtr("transport")},
			wantApplied: []string{"A"},
		},
		{
			name: "shadowed rule keeps its non-conflicting field",
			second: model.RuleActions{
				SetCategory: strPtr("transport"),
				SetAccount:  strPtr("acc-card"),
			},
			wantApplied: []string{"A", "B"},
			wantSecond:  &model.RuleActions{SetAccount: strPtr("acc-card")},
		},
		{
			name: "shadowed rule keeps its cumulative action",
			second: model.RuleActions{
				SetCategory: strPtr("transport"),
				AddNote:     strPtr("check receipt"),
			},
			wantApplied: []string{"A", "B"},
			wantSecond:  &model.RuleActions{AddNote: strPtr("check receipt")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := Select([]model.AutomationRule{
				generalRule("B", 5, tt.second),
				generalRule("A", 10, model.RuleActions{SetCategory: strPtr("food")}),
			}, IntentGeneral)

			res := Resolve(rules, lunchCandidate())

			assert.Equal(t, "food", model.StringValue(res.CategoryID))
			assert.Equal(t, tt.wantApplied, appliedIDs(res))
			if tt.wantSecond != nil {
				require.Len(t, res.AppliedRules, 2)
				assert.Equal(t, *tt.wantSecond, res.AppliedRules[1].Actions)
			}
		})
	}
}

func TestResolve_CumulativeFields(t *testing.T) {
	rules := Select([]model.AutomationRule{
		generalRule("low", 1, model.RuleActions{AddNote: strPtr("verify bank"), AutoReconcile: true}),
		generalRule("high", 9, model.RuleActions{AddNote: strPtr("cash pickup")}),
		generalRule("mid", 5, model.RuleActions{}),
	}, IntentGeneral)

	res := Resolve(rules, lunchCandidate())

	assert.Equal(t, "cash pickup\nverify bank", res.Note)
	assert.True(t, res.AutoReconcile)
	assert.Equal(t, []string{"high", "low"}, appliedIDs(res))
}

func TestResolve_AutoReconcileRegardlessOfOrder(t *testing.T) {
	for _, priority := range []int{1, 100} {
		rules := Select([]model.AutomationRule{
			generalRule("reconcile", priority, model.RuleActions{AutoReconcile: true}),
			generalRule("category", 50, model.RuleActions{SetCategory: strPtr("food")}),
		}, IntentGeneral)

		res := Resolve(rules, lunchCandidate())
		assert.True(t, res.AutoReconcile, "priority %d", priority)
	}
}

func TestResolve_CandidateNotesComeFirst(t *testing.T) {
	candidate := lunchCandidate()
	candidate.Notes = "from AI parser"

	res := Resolve([]model.AutomationRule{
		generalRule("a", 1, model.RuleActions{AddNote: strPtr("team lunch")}),
	}, candidate)

	assert.Equal(t, "from AI parser\nteam lunch", res.Note)
}

func TestResolve_OriginalSnapshot(t *testing.T) {
	rules := Select([]model.AutomationRule{
		generalRule("acct", 10, model.RuleActions{SetAccount: strPtr("acc-card")}),
		generalRule("cat", 5, model.RuleActions{SetCategory: strPtr("food")}),
	}, IntentGeneral)

	res := Resolve(rules, lunchCandidate())

	assert.Equal(t, "acc-wallet", model.StringValue(res.Original.AccountID))
	assert.Equal(t, "uncategorized", model.StringValue(res.Original.CategoryID))
	assert.Equal(t, "acc-card", model.StringValue(res.AccountID))
	assert.Equal(t, "food", model.StringValue(res.CategoryID))
	assert.True(t, res.AccountOverridden())
	assert.True(t, res.CategoryOverridden())
}

func TestResolve_SetType(t *testing.T) {
	rules := Select([]model.AutomationRule{
		generalRule("income", 10, model.RuleActions{SetType: typePtr(model.TypeIncome)}),
		generalRule("transfer", 5, model.RuleActions{SetType: typePtr(model.TypeTransfer)}),
	}, IntentGeneral)

	res := Resolve(rules, lunchCandidate())

	assert.Equal(t, model.TypeIncome, res.Type)
	assert.Equal(t, []string{"income"}, appliedIDs(res))
}

func TestResolve_MalformedRuleSkipped(t *testing.T) {
	broken := generalRule("broken", 100, model.RuleActions{SetCategory: strPtr("nope")})
	broken.Conditions.DescriptionRegex = strPtr("([")

	rules := []model.AutomationRule{
		broken,
		generalRule("ok", 1, model.RuleActions{SetCategory: strPtr("food")}),
	}

	res := Resolve(rules, lunchCandidate())

	assert.Equal(t, "food", model.StringValue(res.CategoryID))
	require.Len(t, res.Issues, 1)
	assert.Equal(t, model.IssueMalformedRule, res.Issues[0].Kind)
	assert.Equal(t, "broken", res.Issues[0].RuleID)
}

func TestResolve_Deterministic(t *testing.T) {
	rules := Select([]model.AutomationRule{
		generalRule("a", 3, model.RuleActions{SetCategory: strPtr("food"), AddNote: strPtr("one")}),
		generalRule("b", 3, model.RuleActions{SetCategory: strPtr("fun"), AddNote: strPtr("two")}),
		generalRule("c", 7, model.RuleActions{AutoReconcile: true}),
	}, IntentGeneral)
	candidate := lunchCandidate()

	first := Resolve(rules, candidate)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Resolve(rules, candidate))
	}
}
