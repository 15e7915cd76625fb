package model

import "time"

// AccountType describes the financial product behind an account.
type AccountType string

// Account type constants.
const (
	AccountChecking   AccountType = "checking"
	AccountSavings    AccountType = "savings"
	AccountCreditCard AccountType = "credit_card"
	AccountCash       AccountType = "cash"
	AccountWallet     AccountType = "wallet"
)

// Account is a financial account transactions are booked against.
type Account struct {
	CreatedAt   time.Time   `json:"created_at"`
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Institution string      `json:"institution,omitempty"`
	LastFour    string      `json:"last_four,omitempty"`
	Type        AccountType `json:"type"`
	IsDefault   bool        `json:"is_default"`
	IsActive    bool        `json:"is_active"`
}

// Valid reports whether t is one of the known account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountChecking, AccountSavings, AccountCreditCard, AccountCash, AccountWallet:
		return true
	}
	return false
}
