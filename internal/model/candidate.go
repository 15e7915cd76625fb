package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candidate is an unsaved transaction, entered manually or extracted from
// bank text, before automation rules are applied.
type Candidate struct {
	Date                time.Time       `json:"date"`
	RawText             *string         `json:"raw_text,omitempty"`
	AccountID           *string         `json:"account_id,omitempty"`
	CategoryID          *string         `json:"category_id,omitempty"`
	TransferToAccountID *string         `json:"transfer_to_account_id,omitempty"`
	TransferID          *string         `json:"transfer_id,omitempty"`
	Description         string          `json:"description"`
	Type                TransactionType `json:"type"`
	Source              string          `json:"source"`
	Notes               string          `json:"notes,omitempty"`
	Amount              decimal.Decimal `json:"amount"`
}

// OriginalValues snapshots the fields rules may override, as they were before
// any rule touched them.
type OriginalValues struct {
	AccountID  *string `json:"account_id,omitempty"`
	CategoryID *string `json:"category_id,omitempty"`
}

// AppliedRule credits a rule with the actions it actually applied.
type AppliedRule struct {
	RuleID   string      `json:"rule_id"`
	RuleName string      `json:"rule_name"`
	Actions  RuleActions `json:"actions"`
}

// IssueKind classifies an operator-visible resolution issue.
type IssueKind string

// Issue kinds.
const (
	IssueMalformedRule   IssueKind = "malformed_rule"
	IssueLinkUnavailable IssueKind = "link_unavailable"
)

// Issue records something skipped during resolution.
type Issue struct {
	Kind    IssueKind `json:"kind"`
	RuleID  string    `json:"rule_id,omitempty"`
	Message string    `json:"message"`
}

// Resolved is a candidate after all matching rules have been folded in.
type Resolved struct {
	Date                time.Time        `json:"date"`
	RawText             *string          `json:"raw_text,omitempty"`
	AccountID           *string          `json:"account_id,omitempty"`
	CategoryID          *string          `json:"category_id,omitempty"`
	TransferToAccountID *string          `json:"transfer_to_account_id,omitempty"`
	TransferID          *string          `json:"transfer_id,omitempty"`
	Transfer            *TransferRequest `json:"transfer,omitempty"`
	Description         string           `json:"description"`
	Type                TransactionType  `json:"type"`
	Source              string           `json:"source"`
	Note                string           `json:"note,omitempty"`
	Original            OriginalValues   `json:"original"`
	AppliedRules        []AppliedRule    `json:"applied_rules"`
	Issues              []Issue          `json:"issues,omitempty"`
	Amount              decimal.Decimal  `json:"amount"`
	AutoReconcile       bool             `json:"auto_reconcile"`
}

// AccountOverridden reports whether rules replaced the incoming account.
func (r *Resolved) AccountOverridden() bool {
	return StringValue(r.Original.AccountID) != StringValue(r.AccountID)
}

// CategoryOverridden reports whether rules replaced the incoming category.
func (r *Resolved) CategoryOverridden() bool {
	return StringValue(r.Original.CategoryID) != StringValue(r.CategoryID)
}

// DuplicateKey returns the tuple the duplicate guard matches on.
func (r *Resolved) DuplicateKey() DuplicateKey {
	return DuplicateKey{
		Date:      r.Date,
		Amount:    r.Amount,
		AccountID: StringValue(r.AccountID),
	}
}

// Transaction converts the resolution into the primary transaction to persist.
func (r *Resolved) Transaction(id string) Transaction {
	notes := r.Note
	return Transaction{
		ID:                  id,
		Date:                r.Date,
		Description:         r.Description,
		RawText:             StringValue(r.RawText),
		Amount:              r.Amount,
		Type:                r.Type,
		Source:              r.Source,
		AccountID:           StringValue(r.AccountID),
		CategoryID:          r.CategoryID,
		Notes:               notes,
		IsReconciled:        r.AutoReconcile,
		TransferID:          r.TransferID,
		TransferToAccountID: r.TransferToAccountID,
		AppliedRules:        r.AppliedRules,
	}
}
