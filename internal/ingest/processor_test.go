package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/InyerM/spends-assistant-web-sub000/internal/common"
	"github.com/InyerM/spends-assistant-web-sub000/internal/model"
	"github.com/InyerM/spends-assistant-web-sub000/internal/service"
	"github.com/InyerM/spends-assistant-web-sub000/internal/testutil"
)

func lunch() model.Candidate {
	raw := "Compra RESTAURANTE EL CIELO por $45.000"
	return model.Candidate{
		Date:        time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC),
		RawText:     &raw,
		Description: "Lunch",
		Amount:      decimal.NewFromInt(45000),
		Type:        model.TypeExpense,
		Source:      "sms",
	}
}

func topUp(from string) model.Candidate {
	raw := "Transferencia a NEQUI 3001112233"
	return model.Candidate{
		Date:        time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC),
		RawText:     &raw,
		Description: "Top up",
		Amount:      decimal.NewFromInt(100000),
		Type:        model.TypeExpense,
		Source:      "sms",
		AccountID:   &from,
	}
}

func seedRules(db *testutil.TestDB) {
	food := db.MustCategory(testutil.CategoryFood)
	nequi := db.MustAccount(testutil.AccountNequi)

	db.SeedRule(model.AutomationRule{
		Name:       "Restaurants",
		Priority:   10,
		IsActive:   true,
		RuleType:   model.RuleTypeGeneral,
		Conditions: model.RuleConditions{RawTextContains: []string{"restaurante"}},
		Actions:    model.RuleActions{SetCategory: &food},
	})
	db.SeedRule(model.AutomationRule{
		Name:                "Nequi top up",
		Priority:            20,
		IsActive:            true,
		RuleType:            model.RuleTypeTransfer,
		TransferToAccountID: &nequi,
		Conditions:          model.RuleConditions{RawTextContains: []string{"transferencia a nequi"}},
	})
}

func allTransactions(t *testing.T, store service.Storage) []model.Transaction {
	t.Helper()
	txns, err := store.GetTransactions(context.Background(), service.TransactionFilter{})
	require.NoError(t, err)
	return txns
}

func TestParseDecision(t *testing.T) {
	tests := []struct {
		in      string
		want    Decision
		wantErr bool
	}{
		{in: "", want: DecisionAsk},
		{in: "ask", want: DecisionAsk},
		{in: "keep-both", want: DecisionKeepBoth},
		{in: "replace", want: DecisionReplace},
		{in: "overwrite", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDecision(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, common.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProcess_FillsDefaultAccountAndAppliesRules(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedRules(db)
	p := NewProcessor(db.Storage)

	outcome, err := p.Process(context.Background(), lunch(), DecisionAsk)
	require.NoError(t, err)
	require.Nil(t, outcome.Conflict)
	require.Len(t, outcome.Created, 1)

	created := outcome.Created[0]
	assert.Equal(t, db.MustAccount(testutil.AccountBancolombia), created.AccountID)
	assert.Equal(t, db.MustCategory(testutil.CategoryFood), model.StringValue(created.CategoryID))
	require.Len(t, created.AppliedRules, 1)
	assert.Equal(t, "Restaurants", created.AppliedRules[0].RuleName)

	stored, err := db.Storage.GetTransaction(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, stored.Amount.Equal(decimal.NewFromInt(45000)))
}

func TestProcess_NoAccount(t *testing.T) {
	db := testutil.SetupTestDBWithOptions(t, testutil.TestDBOptions{})
	p := NewProcessor(db.Storage)

	_, err := p.Process(context.Background(), lunch(), DecisionAsk)
	require.ErrorIs(t, err, ErrNoAccount)
	assert.Empty(t, allTransactions(t, db.Storage))
}

func TestProcess_DuplicateAskReturnsConflict(t *testing.T) {
	db := testutil.SetupTestDB(t)
	p := NewProcessor(db.Storage)
	ctx := context.Background()

	first, err := p.Process(ctx, lunch(), DecisionAsk)
	require.NoError(t, err)

	second, err := p.Process(ctx, lunch(), DecisionAsk)
	require.NoError(t, err)
	require.NotNil(t, second.Conflict)
	assert.Equal(t, first.Created[0].ID, second.Conflict.Existing.ID)
	assert.Empty(t, second.Created)
	assert.Len(t, allTransactions(t, db.Storage), 1)
}

func TestProcess_DuplicateKeepBoth(t *testing.T) {
	db := testutil.SetupTestDB(t)
	p := NewProcessor(db.Storage)
	ctx := context.Background()

	_, err := p.Process(ctx, lunch(), DecisionAsk)
	require.NoError(t, err)

	outcome, err := p.Process(ctx, lunch(), DecisionKeepBoth)
	require.NoError(t, err)
	assert.Nil(t, outcome.Conflict)
	assert.Len(t, outcome.Created, 1)
	assert.Len(t, allTransactions(t, db.Storage), 2)
}

func TestProcess_TransferCreatesMirror(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedRules(db)
	p := NewProcessor(db.Storage)
	bancolombia := db.MustAccount(testutil.AccountBancolombia)
	nequi := db.MustAccount(testutil.AccountNequi)

	outcome, err := p.Process(context.Background(), topUp(bancolombia), DecisionAsk)
	require.NoError(t, err)
	require.Len(t, outcome.Created, 2)

	primary, mirror := outcome.Created[0], outcome.Created[1]
	transferID := model.StringValue(primary.TransferID)
	require.NotEmpty(t, transferID)
	assert.Equal(t, transferID, model.StringValue(mirror.TransferID))
	assert.Equal(t, nequi, mirror.AccountID)
	assert.Equal(t, bancolombia, model.StringValue(mirror.TransferToAccountID))
	assert.Equal(t, nequi, model.StringValue(primary.TransferToAccountID))

	pair, err := db.Storage.GetTransactionsByTransferID(context.Background(), transferID)
	require.NoError(t, err)
	assert.Len(t, pair, 2)
}

func TestProcess_DuplicateReplaceRemovesTransferPair(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedRules(db)
	p := NewProcessor(db.Storage)
	ctx := context.Background()
	bancolombia := db.MustAccount(testutil.AccountBancolombia)

	first, err := p.Process(ctx, topUp(bancolombia), DecisionAsk)
	require.NoError(t, err)
	require.Len(t, first.Created, 2)

	second, err := p.Process(ctx, topUp(bancolombia), DecisionReplace)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{first.Created[0].ID, first.Created[1].ID}, second.Replaced)
	require.Len(t, second.Created, 2)

	remaining := allTransactions(t, db.Storage)
	require.Len(t, remaining, 2)
	for _, txn := range remaining {
		assert.NotEqual(t, first.Created[0].ID, txn.ID)
		assert.NotEqual(t, first.Created[1].ID, txn.ID)
	}
}

func TestProcessWith_ReusesSnapshot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seedRules(db)
	p := NewProcessor(db.Storage)
	ctx := context.Background()

	snap, err := p.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Engine.Rules())

	account, ok := snap.DefaultAccount()
	require.True(t, ok)
	assert.Equal(t, string(testutil.AccountBancolombia), account.Name)

	candidate := lunch()
	for day := 1; day <= 3; day++ {
		candidate.Date = time.Date(2026, 6, day, 0, 0, 0, 0, time.UTC)
		_, err := p.ProcessWith(ctx, snap, candidate, DecisionAsk)
		require.NoError(t, err)
	}
	assert.Len(t, allTransactions(t, db.Storage), 3)
}
