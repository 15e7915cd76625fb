package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RuleType decides in which resolution passes a rule takes part.
type RuleType string

// Rule type constants.
const (
	RuleTypeGeneral          RuleType = "general"
	RuleTypeAccountDetection RuleType = "account_detection"
	RuleTypeTransfer         RuleType = "transfer"
)

// Valid reports whether t is a known rule type.
func (t RuleType) Valid() bool {
	switch t {
	case RuleTypeGeneral, RuleTypeAccountDetection, RuleTypeTransfer:
		return true
	}
	return false
}

// ConditionLogic combines the conditions of a single rule.
type ConditionLogic string

// Condition logic constants.
const (
	LogicAnd ConditionLogic = "and"
	LogicOr  ConditionLogic = "or"
)

// AmountRange is an inclusive [Min, Max] amount interval.
type AmountRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// Contains reports whether amount lies within the range, both ends inclusive.
func (r AmountRange) Contains(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(r.Min) && amount.LessThanOrEqual(r.Max)
}

// RuleConditions is the stored shape of a rule's conditions.
//
// List fields carry no omitempty: a nil list is an absent key and encodes
// as null, while an empty list is a present key that never matches.
type RuleConditions struct {
	DescriptionRegex    *string          `json:"description_regex,omitempty"`
	AmountBetween       *AmountRange     `json:"amount_between,omitempty"`
	Type                *TransactionType `json:"type,omitempty"`
	RawTextContains     []string         `json:"raw_text_contains"`
	DescriptionContains []string         `json:"description_contains"`
	Source              []string         `json:"source"`
}

// RuleActions is the stored shape of a rule's actions.
type RuleActions struct {
	SetType       *TransactionType `json:"set_type,omitempty"`
	SetCategory   *string          `json:"set_category,omitempty"`
	SetAccount    *string          `json:"set_account,omitempty"`
	LinkToAccount *string          `json:"link_to_account,omitempty"`
	AddNote       *string          `json:"add_note,omitempty"`
	AutoReconcile bool             `json:"auto_reconcile,omitempty"`
}

// IsEmpty reports whether no action is configured.
func (a RuleActions) IsEmpty() bool {
	return len(a.Actions()) == 0
}

// AutomationRule is a user-defined rule evaluated against candidate transactions.
type AutomationRule struct {
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	TransferToAccountID *string        `json:"transfer_to_account_id,omitempty"`
	ID                  string         `json:"id"`
	Name                string         `json:"name"`
	RuleType            RuleType       `json:"rule_type"`
	ConditionLogic      ConditionLogic `json:"condition_logic"`
	MatchPhone          string         `json:"match_phone,omitempty"`
	PromptText          string         `json:"prompt_text,omitempty"`
	Conditions          RuleConditions `json:"conditions"`
	Actions             RuleActions    `json:"actions"`
	Priority            int            `json:"priority"`
	IsActive            bool           `json:"is_active"`
}

// Logic returns the rule's condition logic, defaulting to and.
func (r AutomationRule) Logic() ConditionLogic {
	if r.ConditionLogic == "" {
		return LogicAnd
	}
	return r.ConditionLogic
}

// EffectiveActions returns the rule's actions with the denormalized transfer
// destination folded in as a link for transfer rules.
func (r AutomationRule) EffectiveActions() RuleActions {
	actions := r.Actions
	if r.RuleType == RuleTypeTransfer && actions.LinkToAccount == nil && r.TransferToAccountID != nil {
		dest := *r.TransferToAccountID
		actions.LinkToAccount = &dest
	}
	return actions
}

// DetectedAccount returns the account id an account_detection rule routes to.
func (r AutomationRule) DetectedAccount() (string, bool) {
	if r.RuleType != RuleTypeAccountDetection || r.Actions.SetAccount == nil {
		return "", false
	}
	return *r.Actions.SetAccount, true
}
