package automation

import (
	"errors"
	"log/slog"

	"github.com/InyerM/spends-assistant-web-sub000/internal/model"
)

// Reasons a transfer link is skipped.
const (
	LinkSkipDestinationNotFound = "destination_not_found"
	LinkSkipSameAccount         = "same_account"
	LinkSkipMissingSource       = "missing_source"
)

// Reporter receives operational events from the engine. Implementations must
// not block; the engine calls them synchronously.
type Reporter interface {
	RuleSkipped(rule model.AutomationRule, err error)
	LinkSkipped(reason, accountID string)
	Resolved(res *model.Resolved)
}

// NopReporter discards every event.
type NopReporter struct{}

func (NopReporter) RuleSkipped(model.AutomationRule, error) {}
func (NopReporter) LinkSkipped(string, string)              {}
func (NopReporter) Resolved(*model.Resolved)                {}

// LogReporter writes engine events to a slog logger.
type LogReporter struct {
	Logger *slog.Logger
}

// NewLogReporter returns a reporter logging to logger, or slog.Default() when nil.
func NewLogReporter(logger *slog.Logger) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReporter{Logger: logger}
}

// RuleSkipped logs a malformed rule as a warning.
func (r *LogReporter) RuleSkipped(rule model.AutomationRule, err error) {
	reason := ""
	var ruleErr *RuleError
	if errors.As(err, &ruleErr) {
		reason = ruleErr.Reason
	}
	r.Logger.Warn("Skipping malformed automation rule",
		"rule_id", rule.ID,
		"rule_name", rule.Name,
		"reason", reason,
		"error", err)
}

// LinkSkipped logs a transfer pairing that could not be created.
func (r *LogReporter) LinkSkipped(reason, accountID string) {
	r.Logger.Warn("Skipping transfer link",
		"reason", reason,
		"account_id", accountID)
}

// Resolved logs a finished resolution at debug level.
func (r *LogReporter) Resolved(res *model.Resolved) {
	r.Logger.Debug("Resolved transaction",
		"applied_rules", len(res.AppliedRules),
		"issues", len(res.Issues),
		"transfer", res.Transfer != nil)
}

// MultiReporter fans events out to several reporters.
type MultiReporter []Reporter

func (m MultiReporter) RuleSkipped(rule model.AutomationRule, err error) {
	for _, r := range m {
		r.RuleSkipped(rule, err)
	}
}

func (m MultiReporter) LinkSkipped(reason, accountID string) {
	for _, r := range m {
		r.LinkSkipped(reason, accountID)
	}
}

func (m MultiReporter) Resolved(res *model.Resolved) {
	for _, r := range m {
		r.Resolved(res)
	}
}
