package automation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/InyerM/spends-assistant-web-sub000/internal/model"
)

func ruleIDs(rules []model.AutomationRule) []string {
	ids := make([]string, 0, len(rules))
	for _, r := range rules {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestSelect(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rules := []model.AutomationRule{
		{ID: "low", Priority: 1, IsActive: true, RuleType: model.RuleTypeGeneral, CreatedAt: base},
		{ID: "inactive", Priority: 99, IsActive: false, RuleType: model.RuleTypeGeneral, CreatedAt: base},
		{ID: "detect", Priority: 50, IsActive: true, RuleType: model.RuleTypeAccountDetection, CreatedAt: base},
		{ID: "b-tie", Priority: 10, IsActive: true, RuleType: model.RuleTypeTransfer, CreatedAt: base},
		{ID: "a-tie", Priority: 10, IsActive: true, RuleType: model.RuleTypeGeneral, CreatedAt: base},
		{ID: "older", Priority: 10, IsActive: true, RuleType: model.RuleTypeGeneral, CreatedAt: base.Add(-time.Hour)},
	}

	tests := []struct {
		name   string
		intent Intent
		want   []string
	}{
		{
			name:   "general pass includes every rule type",
			intent: IntentGeneral,
			want:   []string{"detect", "older", "a-tie", "b-tie", "low"},
		},
		{
			name:   "detection pass keeps only account detection rules",
			intent: IntentAccountDetection,
			want:   []string{"detect"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ruleIDs(Select(rules, tt.intent)))
		})
	}
}

func TestSelect_DoesNotMutateInput(t *testing.T) {
	rules := []model.AutomationRule{
		{ID: "a", Priority: 1, IsActive: true, RuleType: model.RuleTypeGeneral},
		{ID: "b", Priority: 2, IsActive: true, RuleType: model.RuleTypeGeneral},
	}
	_ = Select(rules, IntentGeneral)
	assert.Equal(t, []string{"a", "b"}, ruleIDs(rules))
}
