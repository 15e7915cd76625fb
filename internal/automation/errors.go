package automation

import (
	"errors"
	"fmt"
)

// ErrMalformedRule marks a rule that cannot be evaluated.
var ErrMalformedRule = errors.New("malformed rule")

// Reasons a rule is considered malformed. They double as metric labels.
const (
	ReasonInvalidRegex       = "invalid_regex"
	ReasonInvalidAmountRange = "invalid_amount_range"
	ReasonInvalidLogic       = "invalid_logic"
	ReasonInvalidRuleType    = "invalid_rule_type"
	ReasonInvalidCondition   = "invalid_condition"
	ReasonInvalidAction      = "invalid_action"
)

// RuleError describes why a specific rule was skipped.
type RuleError struct {
	Err      error
	RuleID   string
	RuleName string
	Reason   string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %q (%s): %s: %v", e.RuleName, e.RuleID, e.Reason, e.Err)
}

func (e *RuleError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrMalformedRule) hold for every RuleError.
func (e *RuleError) Is(target error) bool {
	return target == ErrMalformedRule
}
