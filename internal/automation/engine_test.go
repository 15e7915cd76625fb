package automation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/InyerM/spends-assistant-web-sub000/internal/model"
)

func transferRule(id string, priority int, dest string) model.AutomationRule {
	rule := generalRule(id, priority, model.RuleActions{})
	rule.RuleType = model.RuleTypeTransfer
	rule.TransferToAccountID = strPtr(dest)
	rule.Conditions.RawTextContains = []string{"savings"}
	return rule
}

func detectionRule(id string, priority int, fragment, account string) model.AutomationRule {
	return model.AutomationRule{
		ID:             id,
		Name:           "Detect account: " + account,
		Priority:       priority,
		IsActive:       true,
		RuleType:       model.RuleTypeAccountDetection,
		ConditionLogic: model.LogicOr,
		Conditions:     model.RuleConditions{RawTextContains: []string{fragment}},
		Actions:        model.RuleActions{SetAccount: strPtr(account)},
	}
}

func savingsCandidate() model.Candidate {
	return model.Candidate{
		Date:        time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC),
		RawText:     strPtr("Transferencia a cuenta SAVINGS *9876"),
		Description: "Transfer to savings",
		Amount:      decimal.NewFromInt(200000),
		Type:        model.TypeExpense,
		Source:      "sms",
		AccountID:   strPtr("acc-checking"),
	}
}

func TestEngine_ResolveLinksTransfer(t *testing.T) {
	engine := NewEngine(
		[]model.AutomationRule{transferRule("t1", 10, "acc-savings")},
		WithAccounts(testAccounts()),
		WithIDGenerator(fixedID("tx-100")),
	)

	res := engine.Resolve(savingsCandidate())

	require.NotNil(t, res.Transfer)
	assert.Equal(t, "tx-100", model.StringValue(res.TransferID))
	assert.Equal(t, "acc-savings", model.StringValue(res.TransferToAccountID))
	assert.Equal(t, []string{"t1"}, appliedIDs(res))
	assert.Equal(t, model.RuleActions{LinkToAccount: strPtr("acc-savings")}, res.AppliedRules[0].Actions)
}

func TestEngine_ResolveIdempotentOnLinkedTransfer(t *testing.T) {
	engine := NewEngine(
		[]model.AutomationRule{transferRule("t1", 10, "acc-savings")},
		WithAccounts(testAccounts()),
		WithIDGenerator(fixedID("tx-new")),
	)

	candidate := savingsCandidate()
	candidate.TransferID = strPtr("tx-old")

	res := engine.Resolve(candidate)

	assert.Equal(t, "tx-old", model.StringValue(res.TransferID))
	assert.Nil(t, res.Transfer)
}

func TestEngine_MissingDestinationFallsBack(t *testing.T) {
	reporter := &recordingReporter{}
	engine := NewEngine(
		[]model.AutomationRule{
			transferRule("deleted", 20, "acc-deleted"),
			transferRule("fallback", 10, "acc-savings"),
		},
		WithAccounts(testAccounts()),
		WithReporter(reporter),
		WithIDGenerator(fixedID("tx-200")),
	)

	res := engine.Resolve(savingsCandidate())

	assert.Equal(t, "acc-savings", model.StringValue(res.TransferToAccountID))
	require.NotNil(t, res.Transfer)
	assert.Equal(t, []string{"fallback"}, appliedIDs(res))
	require.Len(t, res.Issues, 1)
	assert.Equal(t, model.IssueLinkUnavailable, res.Issues[0].Kind)
	assert.Equal(t, "deleted", res.Issues[0].RuleID)
	assert.Equal(t, []string{LinkSkipDestinationNotFound}, reporter.linkSkips)
	assert.Equal(t, 1, reporter.resolved)
}

func TestEngine_MalformedRuleDoesNotAbort(t *testing.T) {
	broken := generalRule("broken", 100, model.RuleActions{SetCategory: strPtr("x")})
	broken.Conditions.AmountBetween = amountRange(10, 1)

	reporter := &recordingReporter{}
	engine := NewEngine(
		[]model.AutomationRule{
			broken,
			generalRule("ok", 1, model.RuleActions{SetCategory: strPtr("food")}),
		},
		WithReporter(reporter),
	)

	assert.Equal(t, 1, engine.Rules())
	require.Len(t, engine.Malformed(), 1)
	assert.ErrorIs(t, engine.Malformed()[0], ErrMalformedRule)

	for i := 0; i < 2; i++ {
		res := engine.Resolve(lunchCandidate())
		assert.Equal(t, "food", model.StringValue(res.CategoryID))
		require.Len(t, res.Issues, 1)
		assert.Equal(t, model.IssueMalformedRule, res.Issues[0].Kind)
	}
	assert.Equal(t, []string{"broken", "broken"}, reporter.skippedRules)
}

func TestEngine_InactiveRulesIgnored(t *testing.T) {
	inactive := generalRule("off", 100, model.RuleActions{SetCategory: strPtr("fun")})
	inactive.IsActive = false

	engine := NewEngine([]model.AutomationRule{
		inactive,
		generalRule("on", 1, model.RuleActions{SetCategory: strPtr("food")}),
	})

	res := engine.Resolve(lunchCandidate())
	assert.Equal(t, "food", model.StringValue(res.CategoryID))
	assert.Equal(t, []string{"on"}, appliedIDs(res))
}

func TestEngine_ResolveMatchesPureResolve(t *testing.T) {
	rules := []model.AutomationRule{
		generalRule("a", 3, model.RuleActions{SetCategory: strPtr("food"), AddNote: strPtr("one")}),
		generalRule("b", 8, model.RuleActions{SetAccount: strPtr("acc-card"), AddNote: strPtr("two")}),
		generalRule("c", 3, model.RuleActions{SetCategory: strPtr("fun"), AutoReconcile: true}),
	}

	engine := NewEngine(rules)
	got := engine.Resolve(lunchCandidate())
	want := Resolve(Select(rules, IntentGeneral), lunchCandidate())

	assert.Equal(t, want, got)
	assert.Equal(t, "two\none", got.Note)
}

func TestEngine_DetectAccount(t *testing.T) {
	engine := NewEngine([]model.AutomationRule{
		generalRule("general", 100, model.RuleActions{SetAccount: strPtr("acc-general")}),
		detectionRule("d-low", 10, "savings", "acc-low"),
		detectionRule("d-high", 50, "*9876", "acc-savings"),
	})

	account, applied, ok := engine.DetectAccount(savingsCandidate())

	require.True(t, ok)
	assert.Equal(t, "acc-savings", account)
	require.NotNil(t, applied)
	assert.Equal(t, "d-high", applied.RuleID)
}

func TestEngine_DetectAccountNoMatch(t *testing.T) {
	engine := NewEngine([]model.AutomationRule{
		detectionRule("d1", 50, "bancolombia", "acc-bc"),
	})

	account, applied, ok := engine.DetectAccount(savingsCandidate())

	assert.False(t, ok)
	assert.Empty(t, account)
	assert.Nil(t, applied)
}
