// Package ingest resolves candidate transactions against the stored rule
// snapshot and persists them behind the duplicate guard.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/InyerM/spends-assistant-web-sub000/internal/automation"
	"github.com/InyerM/spends-assistant-web-sub000/internal/common"
	"github.com/InyerM/spends-assistant-web-sub000/internal/model"
	"github.com/InyerM/spends-assistant-web-sub000/internal/service"
)

// Decision says what to do when a candidate collides with an existing
// transaction.
type Decision string

// Duplicate decisions.
const (
	DecisionAsk      Decision = "ask"
	DecisionKeepBoth Decision = "keep-both"
	DecisionReplace  Decision = "replace"
)

// ErrNoAccount is returned when neither the candidate, a rule nor a default
// account provides the account to book against.
var ErrNoAccount = errors.New("no account for transaction")

// ParseDecision converts a flag or config value into a Decision.
func ParseDecision(s string) (Decision, error) {
	switch d := Decision(s); d {
	case "":
		return DecisionAsk, nil
	case DecisionAsk, DecisionKeepBoth, DecisionReplace:
		return d, nil
	default:
		return "", fmt.Errorf("%w: unknown duplicate decision %q", common.ErrInvalidInput, s)
	}
}

// Outcome is the result of processing one candidate.
type Outcome struct {
	Conflict *model.DuplicateConflict
	Resolved model.Resolved
	Created  []model.Transaction
	Replaced []string
}

// Processor runs the automation engine and the duplicate guard.
type Processor struct {
	store    service.Storage
	reporter automation.Reporter
	logger   *slog.Logger
	newID    func() string
}

// Option configures a Processor.
type Option func(*Processor)

// WithReporter sets the reporter passed to every engine the processor builds.
func WithReporter(r automation.Reporter) Option {
	return func(p *Processor) { p.reporter = r }
}

// WithLogger sets the processor logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Processor) { p.logger = l }
}

// WithIDGenerator replaces the ID generator used for transactions and
// transfer pairings.
func WithIDGenerator(newID func() string) Option {
	return func(p *Processor) { p.newID = newID }
}

// NewProcessor creates a processor backed by store.
func NewProcessor(store service.Storage, opts ...Option) *Processor {
	p := &Processor{
		store:    store,
		reporter: automation.NopReporter{},
		logger:   slog.Default(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Snapshot is an engine over the stored rules plus the account list it was
// built from.
type Snapshot struct {
	Engine   *automation.Engine
	Accounts []model.Account
}

// DefaultAccount returns the active default account, if any.
func (s *Snapshot) DefaultAccount() (model.Account, bool) {
	for _, account := range s.Accounts {
		if account.IsDefault && account.IsActive {
			return account, true
		}
	}
	return model.Account{}, false
}

// Load builds an engine from the currently active rules and accounts.
func (p *Processor) Load(ctx context.Context) (*Snapshot, error) {
	rules, err := p.store.GetActiveRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load automation rules: %w", err)
	}
	accounts, err := p.store.GetAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}

	engine := automation.NewEngine(rules,
		automation.WithReporter(p.reporter),
		automation.WithAccounts(accounts),
		automation.WithIDGenerator(p.newID),
	)

	p.logger.Debug("Loaded rule snapshot",
		"rules", engine.Rules(),
		"malformed", len(engine.Malformed()),
		"accounts", len(accounts))

	return &Snapshot{Engine: engine, Accounts: accounts}, nil
}

// Resolve resolves candidate without persisting it. A candidate without an
// account is booked against the default account.
func (p *Processor) Resolve(snap *Snapshot, candidate model.Candidate) model.Resolved {
	if model.StringValue(candidate.AccountID) == "" {
		if account, ok := snap.DefaultAccount(); ok {
			candidate.AccountID = &account.ID
		}
	}
	return snap.Engine.Resolve(candidate)
}

// Process loads a fresh snapshot and processes one candidate.
func (p *Processor) Process(ctx context.Context, candidate model.Candidate, decision Decision) (*Outcome, error) {
	snap, err := p.Load(ctx)
	if err != nil {
		return nil, err
	}
	return p.ProcessWith(ctx, snap, candidate, decision)
}

// ProcessWith resolves candidate against snap, consults the duplicate guard
// and commits the transaction and its transfer mirror atomically.
func (p *Processor) ProcessWith(ctx context.Context, snap *Snapshot, candidate model.Candidate, decision Decision) (*Outcome, error) {
	resolved := p.Resolve(snap, candidate)
	outcome := &Outcome{Resolved: resolved}

	if model.StringValue(resolved.AccountID) == "" {
		return nil, ErrNoAccount
	}

	tx, err := p.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	key := resolved.DuplicateKey()
	existing, err := tx.FindDuplicate(ctx, key)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		switch decision {
		case DecisionKeepBoth:
			p.logger.Info("Keeping duplicate transaction", "existing_id", existing.ID)
		case DecisionReplace:
			replaced, err := p.replace(ctx, tx, existing)
			if err != nil {
				return nil, err
			}
			outcome.Replaced = replaced
		default:
			outcome.Conflict = &model.DuplicateConflict{Existing: *existing, Key: key}
			return outcome, nil
		}
	}

	created := []model.Transaction{resolved.Transaction(p.newID())}
	if resolved.Transfer != nil {
		created = append(created, resolved.Transfer.Mirror(p.newID()))
	}

	if err := tx.SaveTransactions(ctx, created); err != nil {
		return nil, fmt.Errorf("failed to save transactions: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transactions: %w", err)
	}
	committed = true

	outcome.Created = created
	p.logger.Info("Stored transaction",
		"id", created[0].ID,
		"applied_rules", len(resolved.AppliedRules),
		"transfer", resolved.Transfer != nil)

	return outcome, nil
}

// replace deletes existing and its transfer sibling, returning the removed IDs.
func (p *Processor) replace(ctx context.Context, tx service.Transaction, existing *model.Transaction) ([]string, error) {
	removed := []string{existing.ID}
	if transferID := model.StringValue(existing.TransferID); transferID != "" {
		pair, err := tx.GetTransactionsByTransferID(ctx, transferID)
		if err != nil {
			return nil, fmt.Errorf("failed to load transfer pairing %s: %w", transferID, err)
		}
		for _, txn := range pair {
			if txn.ID != existing.ID {
				removed = append(removed, txn.ID)
			}
		}
	}

	if err := tx.DeleteTransaction(ctx, existing.ID); err != nil {
		return nil, fmt.Errorf("failed to replace transaction %s: %w", existing.ID, err)
	}
	p.logger.Info("Replaced duplicate transaction", "removed", removed)
	return removed, nil
}
