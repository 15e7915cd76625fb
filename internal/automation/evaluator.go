package automation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/InyerM/spends-assistant-web-sub000/internal/model"
)

// compiledRule is a validated rule with its regex pre-compiled.
type compiledRule struct {
	regex *regexp.Regexp
	rule  model.AutomationRule
	conds []model.Condition
}

// compileRule validates rule and compiles its patterns once.
func compileRule(rule model.AutomationRule) (*compiledRule, error) {
	malformed := func(reason string, err error) error {
		return &RuleError{RuleID: rule.ID, RuleName: rule.Name, Reason: reason, Err: err}
	}

	if !rule.RuleType.Valid() {
		return nil, malformed(ReasonInvalidRuleType, fmt.Errorf("unknown rule type %q", rule.RuleType))
	}
	switch rule.Logic() {
	case model.LogicAnd, model.LogicOr:
	default:
		return nil, malformed(ReasonInvalidLogic, fmt.Errorf("unknown condition logic %q", rule.ConditionLogic))
	}

	cr := &compiledRule{rule: rule, conds: rule.Conditions.Conditions()}
	for _, cond := range cr.conds {
		switch c := cond.(type) {
		case model.DescriptionRegex:
			re, err := regexp.Compile(c.Pattern)
			if err != nil {
				return nil, malformed(ReasonInvalidRegex, err)
			}
			cr.regex = re
		case model.AmountBetween:
			if c.Min.GreaterThan(c.Max) {
				return nil, malformed(ReasonInvalidAmountRange,
					fmt.Errorf("min %s is greater than max %s", c.Min, c.Max))
			}
		case model.TypeIs:
			if !c.Type.Valid() {
				return nil, malformed(ReasonInvalidCondition, fmt.Errorf("unknown transaction type %q", c.Type))
			}
		}
	}

	if err := validateActions(rule.EffectiveActions()); err != nil {
		return nil, malformed(ReasonInvalidAction, err)
	}

	return cr, nil
}

func validateActions(actions model.RuleActions) error {
	for _, action := range actions.Actions() {
		switch a := action.(type) {
		case model.SetType:
			if !a.Type.Valid() {
				return fmt.Errorf("set_type: unknown transaction type %q", a.Type)
			}
		case model.SetCategory:
			if strings.TrimSpace(a.CategoryID) == "" {
				return fmt.Errorf("set_category: empty category id")
			}
		case model.SetAccount:
			if strings.TrimSpace(a.AccountID) == "" {
				return fmt.Errorf("set_account: empty account id")
			}
		case model.LinkToAccount:
			if strings.TrimSpace(a.AccountID) == "" {
				return fmt.Errorf("link_to_account: empty account id")
			}
		}
	}
	return nil
}

// Matches evaluates conditions combined with logic against candidate. It
// compiles any regex on the fly; the engine uses pre-compiled rules instead.
func Matches(conditions model.RuleConditions, logic model.ConditionLogic, candidate model.Candidate) (bool, error) {
	cr, err := compileRule(model.AutomationRule{
		RuleType:       model.RuleTypeGeneral,
		ConditionLogic: logic,
		Conditions:     conditions,
	})
	if err != nil {
		return false, err
	}
	return cr.matches(candidate), nil
}

// matches reports whether candidate satisfies the rule's conditions.
func (cr *compiledRule) matches(candidate model.Candidate) bool {
	if len(cr.conds) == 0 {
		return true
	}

	or := cr.rule.Logic() == model.LogicOr
	for _, cond := range cr.conds {
		ok := cr.holds(cond, candidate)
		if or && ok {
			return true
		}
		if !or && !ok {
			return false
		}
	}
	return !or
}

// holds evaluates a single condition.
func (cr *compiledRule) holds(cond model.Condition, candidate model.Candidate) bool {
	switch c := cond.(type) {
	case model.RawTextContains:
		if candidate.RawText == nil {
			return false
		}
		return containsAny(*candidate.RawText, c.Fragments)
	case model.DescriptionContains:
		return containsAny(candidate.Description, c.Fragments)
	case model.DescriptionRegex:
		return cr.regex != nil && cr.regex.MatchString(candidate.Description)
	case model.AmountBetween:
		return model.AmountRange{Min: c.Min, Max: c.Max}.Contains(candidate.Amount)
	case model.SourceIn:
		for _, source := range c.Sources {
			if source == candidate.Source {
				return true
			}
		}
		return false
	case model.TypeIs:
		return candidate.Type == c.Type
	}
	return false
}

// containsAny reports whether any non-blank fragment occurs in text,
// ignoring case, accents and repeated whitespace.
func containsAny(text string, fragments []string) bool {
	haystack := model.FoldText(text)
	for _, fragment := range fragments {
		needle := model.FoldText(fragment)
		if needle == "" {
			continue
		}
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

// Validate reports why rule would be skipped at resolution time, or nil.
func Validate(rule model.AutomationRule) error {
	_, err := compileRule(rule)
	return err
}
