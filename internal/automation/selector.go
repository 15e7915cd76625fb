package automation

import (
	"sort"

	"github.com/InyerM/spends-assistant-web-sub000/internal/model"
)

// Intent selects which rule types take part in a resolution pass.
type Intent int

const (
	// IntentGeneral resolves every field of a candidate.
	IntentGeneral Intent = iota
	// IntentAccountDetection only routes raw bank text to an account.
	IntentAccountDetection
)

// applies reports whether a rule of type t takes part in a pass for intent.
func (i Intent) applies(t model.RuleType) bool {
	switch i {
	case IntentAccountDetection:
		return t == model.RuleTypeAccountDetection
	default:
		return t == model.RuleTypeGeneral ||
			t == model.RuleTypeTransfer ||
			t == model.RuleTypeAccountDetection
	}
}

// Select returns the active rules applicable to intent, ordered by priority
// (highest first), then creation time, then id.
func Select(rules []model.AutomationRule, intent Intent) []model.AutomationRule {
	selected := make([]model.AutomationRule, 0, len(rules))
	for _, rule := range rules {
		if !rule.IsActive || !intent.applies(rule.RuleType) {
			continue
		}
		selected = append(selected, rule)
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return ruleLess(selected[i], selected[j])
	})
	return selected
}

func ruleLess(a, b model.AutomationRule) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}
