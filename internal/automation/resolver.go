package automation

import (
	"strings"

	"github.com/InyerM/spends-assistant-web-sub000/internal/model"
)

// noteSeparator joins notes contributed by several rules.
const noteSeparator = "\n"

// resolution accumulates the outcome of folding matched rules.
type resolution struct {
	accountKnown func(string) bool
	reporter     Reporter
	out          model.Resolved
	notes        []string
	typeSet      bool
	categorySet  bool
	accountSet   bool
	linkSet      bool
}

func newResolution(candidate model.Candidate, accountKnown func(string) bool, reporter Reporter) *resolution {
	if reporter == nil {
		reporter = NopReporter{}
	}
	res := &resolution{
		accountKnown: accountKnown,
		reporter:     reporter,
		out: model.Resolved{
			Date:                candidate.Date,
			RawText:             candidate.RawText,
			Description:         candidate.Description,
			Amount:              candidate.Amount,
			Type:                candidate.Type,
			Source:              candidate.Source,
			AccountID:           candidate.AccountID,
			CategoryID:          candidate.CategoryID,
			TransferToAccountID: candidate.TransferToAccountID,
			TransferID:          candidate.TransferID,
			Original: model.OriginalValues{
				AccountID:  candidate.AccountID,
				CategoryID: candidate.CategoryID,
			},
			AppliedRules: []model.AppliedRule{},
		},
	}
	if candidate.Notes != "" {
		res.notes = append(res.notes, candidate.Notes)
	}
	return res
}

// apply folds one matched rule in. Exclusive targets are first-writer-wins
// per field; the remaining actions of a partially shadowed rule still apply.
func (r *resolution) apply(rule model.AutomationRule) {
	var applied []model.Action

	for _, action := range rule.EffectiveActions().Actions() {
		switch a := action.(type) {
		case model.SetType:
			if r.typeSet {
				continue
			}
			r.out.Type = a.Type
			r.typeSet = true
		case model.SetCategory:
			if r.categorySet {
				continue
			}
			r.out.CategoryID = stringRef(a.CategoryID)
			r.categorySet = true
		case model.SetAccount:
			if r.accountSet {
				continue
			}
			r.out.AccountID = stringRef(a.AccountID)
			r.accountSet = true
		case model.LinkToAccount:
			if r.linkSet {
				continue
			}
			if r.accountKnown != nil && !r.accountKnown(a.AccountID) {
				r.out.Issues = append(r.out.Issues, model.Issue{
					Kind:    model.IssueLinkUnavailable,
					RuleID:  rule.ID,
					Message: "link_to_account destination " + a.AccountID + " not found",
				})
				r.reporter.LinkSkipped(LinkSkipDestinationNotFound, a.AccountID)
				continue
			}
			r.out.TransferToAccountID = stringRef(a.AccountID)
			r.linkSet = true
		case model.AutoReconcile:
			r.out.AutoReconcile = true
		case model.AddNote:
			r.notes = append(r.notes, a.Note)
		default:
			continue
		}
		applied = append(applied, action)
	}

	if len(applied) == 0 {
		return
	}
	r.out.AppliedRules = append(r.out.AppliedRules, model.AppliedRule{
		RuleID:   rule.ID,
		RuleName: rule.Name,
		Actions:  model.ActionsFrom(applied...),
	})
}

// result returns the settled resolution.
func (r *resolution) result() model.Resolved {
	out := r.out
	out.Note = strings.Join(r.notes, noteSeparator)
	return out
}

// Resolve folds ordered rules into candidate. Rules are evaluated in the
// given order; malformed rules are skipped and recorded as issues.
func Resolve(orderedRules []model.AutomationRule, candidate model.Candidate) model.Resolved {
	res := newResolution(candidate, nil, nil)
	for _, rule := range orderedRules {
		cr, err := compileRule(rule)
		if err != nil {
			res.out.Issues = append(res.out.Issues, malformedIssue(rule, err))
			continue
		}
		if cr.matches(candidate) {
			res.apply(rule)
		}
	}
	return res.result()
}

func malformedIssue(rule model.AutomationRule, err error) model.Issue {
	return model.Issue{
		Kind:    model.IssueMalformedRule,
		RuleID:  rule.ID,
		Message: err.Error(),
	}
}

func stringRef(s string) *string {
	return &s
}
