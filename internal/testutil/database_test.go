package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/InyerM/spends-assistant-web-sub000/internal/model"
	"github.com/InyerM/spends-assistant-web-sub000/internal/service"
)

func TestSetupTestDB_SeedsFixtures(t *testing.T) {
	db := SetupTestDB(t)
	ctx := context.Background()

	accounts, err := db.Storage.GetAccounts(ctx)
	require.NoError(t, err)
	assert.Len(t, accounts, len(StandardAccounts()))

	categories, err := db.Storage.GetCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, len(StandardCategories()))

	assert.NotEmpty(t, db.MustAccount(AccountNequi))
	assert.NotEmpty(t, db.MustCategory(CategoryFood))
	assert.True(t, db.Accounts[AccountBancolombia].IsDefault)
}

func TestSeedRule_AssignsID(t *testing.T) {
	db := SetupTestDBWithOptions(t, TestDBOptions{})

	rule := db.SeedRule(model.AutomationRule{
		Name:     "Uber",
		IsActive: true,
		RuleType: model.RuleTypeGeneral,
	})
	assert.NotEmpty(t, rule.ID)
}

func TestWithTransaction_RollsBack(t *testing.T) {
	db := SetupTestDBWithOptions(t, TestDBOptions{})
	errDone := errors.New("done")

	err := db.WithTransaction(func(tx service.Transaction) error {
		if err := tx.CreateAccount(context.Background(), &model.Account{Name: "Temp", Type: model.AccountCash, IsActive: true}); err != nil {
			return err
		}
		return errDone
	})
	require.ErrorIs(t, err, errDone)

	accounts, err := db.Storage.GetAccounts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestCustomSetup_Runs(t *testing.T) {
	called := false
	SetupTestDBWithOptions(t, TestDBOptions{
		CustomSetup: func(_ context.Context, _ service.Storage) error {
			called = true
			return nil
		},
	})
	assert.True(t, called)
}
