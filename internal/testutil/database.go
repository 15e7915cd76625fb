// Package testutil provides test utilities for the spends project: an
// isolated, migrated database seeded with named accounts and categories.
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/InyerM/spends-assistant-web-sub000/internal/model"
	"github.com/InyerM/spends-assistant-web-sub000/internal/service"
	"github.com/InyerM/spends-assistant-web-sub000/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage    *storage.SQLiteStorage
	t          *testing.T
	Accounts   map[AccountName]model.Account
	Categories map[CategoryName]model.Category
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup func(context.Context, service.Storage) error
	Accounts    []model.Account
	Categories  []model.Category
}

// SetupTestDB creates a migrated database seeded with the standard accounts
// and categories. Cleanup is registered on t.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{
		Accounts:   StandardAccounts(),
		Categories: StandardCategories(),
	})
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "spends.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	db := &TestDB{
		Storage:    store,
		Accounts:   make(map[AccountName]model.Account),
		Categories: make(map[CategoryName]model.Category),
		t:          t,
	}

	for _, account := range opts.Accounts {
		acc := account
		if err := store.CreateAccount(ctx, &acc); err != nil {
			t.Fatalf("failed to seed account %q: %v", acc.Name, err)
		}
		db.Accounts[AccountName(acc.Name)] = acc
	}

	for _, category := range opts.Categories {
		cat := category
		if err := store.CreateCategory(ctx, &cat); err != nil {
			t.Fatalf("failed to seed category %q: %v", cat.Name, err)
		}
		db.Categories[CategoryName(cat.Name)] = cat
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return db
}

// MustAccount returns the ID of the seeded account or fails the test.
func (db *TestDB) MustAccount(name AccountName) string {
	db.t.Helper()
	acc, ok := db.Accounts[name]
	if !ok {
		db.t.Fatalf("account %q not found in test data", name)
	}
	return acc.ID
}

// MustCategory returns the ID of the seeded category or fails the test.
func (db *TestDB) MustCategory(name CategoryName) string {
	db.t.Helper()
	cat, ok := db.Categories[name]
	if !ok {
		db.t.Fatalf("category %q not found in test data", name)
	}
	return cat.ID
}

// SeedRule stores rule and returns it with its assigned ID.
func (db *TestDB) SeedRule(rule model.AutomationRule) model.AutomationRule {
	db.t.Helper()
	if err := db.Storage.CreateRule(context.Background(), &rule); err != nil {
		db.t.Fatalf("failed to seed rule %q: %v", rule.Name, err)
	}
	return rule
}

// WithTransaction executes fn within a database transaction that is always
// rolled back afterwards.
func (db *TestDB) WithTransaction(fn func(tx service.Transaction) error) error {
	ctx := context.Background()
	tx, err := db.Storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	return fn(tx)
}
