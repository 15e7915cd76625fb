// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/InyerM/spends-assistant-web-sub000/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	AccountID string
	Limit     int
	Offset    int
}

// RuleStore persists automation rules.
type RuleStore interface {
	CreateRule(ctx context.Context, rule *model.AutomationRule) error
	GetRule(ctx context.Context, id string) (*model.AutomationRule, error)
	GetRules(ctx context.Context) ([]model.AutomationRule, error)
	GetActiveRules(ctx context.Context) ([]model.AutomationRule, error)
	UpdateRule(ctx context.Context, rule *model.AutomationRule) error
	DeleteRule(ctx context.Context, id string) error
	// InsertDetectionRules inserts account_detection drafts whose target
	// account is not yet covered, and returns how many were created.
	InsertDetectionRules(ctx context.Context, rules []model.AutomationRule) (int, error)
}

// AccountStore persists accounts.
type AccountStore interface {
	CreateAccount(ctx context.Context, account *model.Account) error
	GetAccount(ctx context.Context, id string) (*model.Account, error)
	GetAccounts(ctx context.Context) ([]model.Account, error)
	DeactivateAccount(ctx context.Context, id string) error
}

// CategoryStore persists categories.
type CategoryStore interface {
	CreateCategory(ctx context.Context, category *model.Category) error
	GetCategory(ctx context.Context, id string) (*model.Category, error)
	GetCategories(ctx context.Context) ([]model.Category, error)
}

// TransactionStore persists transactions and answers duplicate lookups.
type TransactionStore interface {
	SaveTransactions(ctx context.Context, transactions []model.Transaction) error
	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)
	GetTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	GetTransactionsByTransferID(ctx context.Context, transferID string) ([]model.Transaction, error)
	// FindDuplicate returns the transaction sharing key, or nil when none exists.
	FindDuplicate(ctx context.Context, key model.DuplicateKey) (*model.Transaction, error)
	// DeleteTransaction removes a transaction together with its transfer sibling.
	DeleteTransaction(ctx context.Context, id string) error
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	RuleStore
	AccountStore
	CategoryStore
	TransactionStore

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit() error
	Rollback() error
	// Include all Storage methods for use within transaction
	Storage
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DetectionSummary reports the outcome of an account-detection run.
type DetectionSummary struct {
	Created  int
	Skipped  int
	Eligible int
}
