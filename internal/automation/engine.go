// Package automation resolves candidate transactions against user-defined
// automation rules.
//
// An Engine is built from an immutable snapshot of rules. Building compiles
// every rule once; malformed rules are set aside and reported on each pass
// they would have taken part in. Resolution itself performs no I/O.
package automation

import (
	"sort"

	"github.com/InyerM/spends-assistant-web-sub000/internal/model"
)

// Engine evaluates a compiled rule snapshot.
type Engine struct {
	reporter  Reporter
	linker    *Linker
	malformed []malformedRule
	rules     []*compiledRule
}

type malformedRule struct {
	err  error
	rule model.AutomationRule
}

// Option configures an Engine.
type Option func(*engineConfig)

type engineConfig struct {
	reporter Reporter
	newID    func() string
	accounts []model.Account
}

// WithReporter sets the operational reporter.
func WithReporter(r Reporter) Option {
	return func(c *engineConfig) { c.reporter = r }
}

// WithAccounts sets the account snapshot transfer destinations are checked
// against.
func WithAccounts(accounts []model.Account) Option {
	return func(c *engineConfig) {
		if accounts == nil {
			accounts = []model.Account{}
		}
		c.accounts = accounts
	}
}

// WithIDGenerator replaces the transfer id generator.
func WithIDGenerator(newID func() string) Option {
	return func(c *engineConfig) { c.newID = newID }
}

// NewEngine compiles rules into an engine. Inactive rules are dropped.
func NewEngine(rules []model.AutomationRule, opts ...Option) *Engine {
	cfg := engineConfig{reporter: NopReporter{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.reporter == nil {
		cfg.reporter = NopReporter{}
	}

	e := &Engine{
		reporter: cfg.reporter,
		linker:   NewLinker(cfg.accounts, cfg.reporter, cfg.newID),
	}

	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}
		cr, err := compileRule(rule)
		if err != nil {
			e.malformed = append(e.malformed, malformedRule{rule: rule, err: err})
			continue
		}
		e.rules = append(e.rules, cr)
	}

	sort.SliceStable(e.rules, func(i, j int) bool {
		return ruleLess(e.rules[i].rule, e.rules[j].rule)
	})

	return e
}

// Rules returns the number of evaluable rules in the snapshot.
func (e *Engine) Rules() int {
	return len(e.rules)
}

// Malformed returns the errors of rules excluded from evaluation.
func (e *Engine) Malformed() []error {
	errs := make([]error, 0, len(e.malformed))
	for _, m := range e.malformed {
		errs = append(errs, m.err)
	}
	return errs
}

// Resolve runs a general resolution pass followed by transfer linking.
func (e *Engine) Resolve(candidate model.Candidate) model.Resolved {
	resolved := e.fold(candidate, IntentGeneral)
	resolved = e.linker.Link(resolved)
	e.reporter.Resolved(&resolved)
	return resolved
}

// DetectAccount runs only account_detection rules and returns the account
// the highest-priority matching rule routes to.
func (e *Engine) DetectAccount(candidate model.Candidate) (string, *model.AppliedRule, bool) {
	candidate.AccountID = nil
	resolved := e.fold(candidate, IntentAccountDetection)
	for i := range resolved.AppliedRules {
		applied := resolved.AppliedRules[i]
		if applied.Actions.SetAccount != nil {
			return *applied.Actions.SetAccount, &applied, true
		}
	}
	return "", nil, false
}

// fold evaluates the snapshot for intent without linking.
func (e *Engine) fold(candidate model.Candidate, intent Intent) model.Resolved {
	res := newResolution(candidate, e.linker.accountKnown, e.reporter)

	for _, m := range e.malformed {
		if m.rule.RuleType.Valid() && !intent.applies(m.rule.RuleType) {
			continue
		}
		e.reporter.RuleSkipped(m.rule, m.err)
		res.out.Issues = append(res.out.Issues, malformedIssue(m.rule, m.err))
	}

	for _, cr := range e.ordered(intent) {
		if cr.matches(candidate) {
			res.apply(cr.rule)
		}
	}

	return res.result()
}

// ordered returns the compiled rules for intent in selector order.
func (e *Engine) ordered(intent Intent) []*compiledRule {
	out := make([]*compiledRule, 0, len(e.rules))
	for _, cr := range e.rules {
		if intent.applies(cr.rule.RuleType) {
			out = append(out, cr)
		}
	}
	return out
}
