// Package model defines the core data structures for the spends application.
package model

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of money for a transaction.
type TransactionType string

// Transaction type constants.
const (
	TypeExpense  TransactionType = "expense"
	TypeIncome   TransactionType = "income"
	TypeTransfer TransactionType = "transfer"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeExpense, TypeIncome, TypeTransfer:
		return true
	}
	return false
}

// Mirror returns the type the opposite half of a transfer pairing carries.
func (t TransactionType) Mirror() TransactionType {
	switch t {
	case TypeExpense:
		return TypeIncome
	case TypeIncome:
		return TypeExpense
	default:
		return t
	}
}

// Transaction is a persisted financial transaction.
type Transaction struct {
	Date                time.Time       `json:"date"`
	CreatedAt           time.Time       `json:"created_at"`
	CategoryID          *string         `json:"category_id,omitempty"`
	TransferID          *string         `json:"transfer_id,omitempty"`
	TransferToAccountID *string         `json:"transfer_to_account_id,omitempty"`
	ID                  string          `json:"id"`
	Description         string          `json:"description"`
	RawText             string          `json:"raw_text,omitempty"`
	Type                TransactionType `json:"type"`
	Source              string          `json:"source"`
	AccountID           string          `json:"account_id"`
	Notes               string          `json:"notes,omitempty"`
	AppliedRules        []AppliedRule   `json:"applied_rules,omitempty"`
	Amount              decimal.Decimal `json:"amount"`
	IsReconciled        bool            `json:"is_reconciled"`
}

// GenerateHash creates a stable fingerprint of the duplicate-guard tuple.
// The date contributes its UTC calendar day.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%s",
		t.Date.UTC().Format("2006-01-02"),
		t.Amount.String(),
		t.AccountID)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue dereferences p, returning "" for nil.
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
