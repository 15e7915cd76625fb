// Package detection generates account-detection automation rules from the
// user's accounts.
package detection

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/InyerM/spends-assistant-web-sub000/internal/model"
)

// DefaultPriority is the priority assigned to generated rules.
const DefaultPriority = 50

// NamePrefix starts every generated rule name.
const NamePrefix = "Detect account: "

// Options tune rule generation.
type Options struct {
	// Priority of generated rules. Nil uses DefaultPriority; zero is honored.
	Priority *int
}

// Priority returns a pointer to p for Options.
func Priority(p int) *int {
	return &p
}

func (o Options) priority() int {
	if o.Priority == nil {
		return DefaultPriority
	}
	return *o.Priority
}

type coverageKey struct {
	ruleType  model.RuleType
	accountID string
}

// coverage indexes the accounts existing rules already route to.
type coverage map[coverageKey]struct{}

func newCoverage(rules []model.AutomationRule) coverage {
	c := make(coverage, len(rules))
	for _, rule := range rules {
		if id, ok := rule.DetectedAccount(); ok {
			c[coverageKey{ruleType: rule.RuleType, accountID: id}] = struct{}{}
		}
	}
	return c
}

func (c coverage) covers(accountID string) bool {
	_, ok := c[coverageKey{ruleType: model.RuleTypeAccountDetection, accountID: accountID}]
	return ok
}

// Eligible returns the active, non-default accounts no existing
// account_detection rule routes to, in input order.
func Eligible(accounts []model.Account, existing []model.AutomationRule) []model.Account {
	covered := newCoverage(existing)
	var out []model.Account
	for _, account := range accounts {
		if !account.IsActive || account.IsDefault || covered.covers(account.ID) {
			continue
		}
		out = append(out, account)
	}
	return out
}

// Generate drafts one account_detection rule per eligible account. Calling it
// again with its own output folded into existing yields nothing.
func Generate(accounts []model.Account, existing []model.AutomationRule, opts Options) []model.AutomationRule {
	shared := sharedInstitutions(accounts)

	var drafts []model.AutomationRule
	for _, account := range Eligible(accounts, existing) {
		drafts = append(drafts, draft(account, shared, opts))
	}
	return drafts
}

func draft(account model.Account, shared map[string]bool, opts Options) model.AutomationRule {
	fragments := Fragments(account, shared[normalize(account.Institution)])
	accountID := account.ID

	return model.AutomationRule{
		Name:           RuleName(account),
		Priority:       opts.priority(),
		IsActive:       true,
		RuleType:       model.RuleTypeAccountDetection,
		ConditionLogic: model.LogicOr,
		Conditions:     model.RuleConditions{RawTextContains: fragments},
		Actions:        model.RuleActions{SetAccount: &accountID},
		PromptText: fmt.Sprintf("When the text mentions %s, the transaction belongs to account %q.",
			strings.Join(quoteAll(fragments), " or "), account.Name),
	}
}

// RuleName returns the deterministic name of the detection rule for account.
func RuleName(account model.Account) string {
	name := NamePrefix + account.Name
	if lastFour := digitsOnly(account.LastFour); lastFour != "" {
		name += " *" + lastFour
	}
	return name
}

// Fragments returns the raw-text fragments identifying account. Institution
// fragments are left out when ambiguous, and the account name is used when
// nothing else identifies it.
func Fragments(account model.Account, ambiguous bool) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(f string) {
		f = normalize(f)
		if f == "" || seen[f] {
			return
		}
		seen[f] = true
		out = append(out, f)
	}

	if !ambiguous {
		for _, f := range institutionFragments(account.Institution) {
			add(f)
		}
	}
	if lastFour := digitsOnly(account.LastFour); lastFour != "" {
		add("*" + lastFour)
		add(lastFour)
	}
	if len(out) == 0 {
		add(account.Name)
	}
	return out
}

// sharedInstitutions reports institutions held by more than one active account.
func sharedInstitutions(accounts []model.Account) map[string]bool {
	counts := make(map[string]int)
	for _, account := range accounts {
		if !account.IsActive {
			continue
		}
		if key := normalize(account.Institution); key != "" {
			counts[key]++
		}
	}
	shared := make(map[string]bool, len(counts))
	for key, n := range counts {
		shared[key] = n > 1
	}
	return shared
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
