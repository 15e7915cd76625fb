package detection

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/InyerM/spends-assistant-web-sub000/internal/common"
	"github.com/InyerM/spends-assistant-web-sub000/internal/model"
	"github.com/InyerM/spends-assistant-web-sub000/internal/service"
)

// Store is the persistence the detection service needs.
type Store interface {
	GetAccounts(ctx context.Context) ([]model.Account, error)
	GetRules(ctx context.Context) ([]model.AutomationRule, error)
	InsertDetectionRules(ctx context.Context, rules []model.AutomationRule) (int, error)
}

// Service loads accounts and rules, generates detection rules and stores them.
type Service struct {
	store  Store
	logger *slog.Logger
	retry  service.RetryOptions
	opts   Options
}

// NewService creates a detection service.
func NewService(store Store, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		opts:   opts,
		logger: logger,
		retry:  common.DefaultRetryOptions,
	}
}

// Preview returns the rules a Run would create, without storing them.
func (s *Service) Preview(ctx context.Context) ([]model.AutomationRule, error) {
	accounts, rules, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return Generate(accounts, rules, s.opts), nil
}

// Run generates and stores detection rules for every uncovered account.
func (s *Service) Run(ctx context.Context) (service.DetectionSummary, error) {
	accounts, rules, err := s.load(ctx)
	if err != nil {
		return service.DetectionSummary{}, err
	}

	drafts := Generate(accounts, rules, s.opts)
	summary := service.DetectionSummary{Eligible: len(drafts)}
	if len(drafts) == 0 {
		s.logger.Info("All accounts already have detection rules")
		return summary, nil
	}

	var created int
	err = common.WithRetry(ctx, func() error {
		n, insertErr := s.store.InsertDetectionRules(ctx, drafts)
		if insertErr != nil {
			return insertErr
		}
		created = n
		return nil
	}, s.retry)
	if err != nil {
		return summary, fmt.Errorf("failed to store detection rules: %w", err)
	}

	summary.Created = created
	summary.Skipped = len(drafts) - created

	s.logger.Info("Generated account detection rules",
		"created", summary.Created,
		"skipped", summary.Skipped)

	return summary, nil
}

func (s *Service) load(ctx context.Context) ([]model.Account, []model.AutomationRule, error) {
	accounts, err := s.store.GetAccounts(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	rules, err := s.store.GetRules(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load rules: %w", err)
	}
	return accounts, rules, nil
}
