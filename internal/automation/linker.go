package automation

import (
	"github.com/google/uuid"

	"github.com/InyerM/spends-assistant-web-sub000/internal/model"
)

// Linker turns a settled resolution into a transfer pairing request.
type Linker struct {
	reporter Reporter
	accounts map[string]model.Account
	newID    func() string
}

// NewLinker creates a linker validating destinations against accounts. A nil
// accounts slice disables destination validation.
func NewLinker(accounts []model.Account, reporter Reporter, newID func() string) *Linker {
	if reporter == nil {
		reporter = NopReporter{}
	}
	if newID == nil {
		newID = uuid.NewString
	}
	l := &Linker{reporter: reporter, newID: newID}
	if accounts != nil {
		l.accounts = make(map[string]model.Account, len(accounts))
		for _, account := range accounts {
			if account.IsActive {
				l.accounts[account.ID] = account
			}
		}
	}
	return l
}

// accountKnown reports whether id names an active account in the snapshot.
func (l *Linker) accountKnown(id string) bool {
	if l.accounts == nil {
		return true
	}
	_, ok := l.accounts[id]
	return ok
}

// Link pairs resolved with a mirrored transaction when a destination is set,
// either by a rule's link_to_account or by a transfer candidate.
//
// A resolution that already carries a transfer id is returned untouched, so
// re-resolving an edited transfer never creates a second mirror.
func (l *Linker) Link(resolved model.Resolved) model.Resolved {
	if resolved.TransferID != nil || resolved.TransferToAccountID == nil {
		return resolved
	}
	if !linkRequested(resolved) {
		return resolved
	}

	dest := *resolved.TransferToAccountID
	source := model.StringValue(resolved.AccountID)
	switch {
	case source == "":
		return l.skip(resolved, LinkSkipMissingSource, dest, "transfer source account is not set")
	case !l.accountKnown(dest):
		return l.skip(resolved, LinkSkipDestinationNotFound, dest, "transfer destination "+dest+" not found")
	case source == dest:
		return l.skip(resolved, LinkSkipSameAccount, dest, "transfer destination equals source account")
	}

	transferID := l.newID()
	resolved.TransferID = &transferID
	resolved.Transfer = &model.TransferRequest{
		TransferID:    transferID,
		FromAccountID: source,
		ToAccountID:   dest,
		Date:          resolved.Date,
		Amount:        resolved.Amount,
		Description:   resolved.Description,
		Type:          resolved.Type.Mirror(),
		Source:        resolved.Source,
	}
	return resolved
}

func (l *Linker) skip(resolved model.Resolved, reason, accountID, message string) model.Resolved {
	l.reporter.LinkSkipped(reason, accountID)
	resolved.Issues = append(resolved.Issues, model.Issue{
		Kind:    model.IssueLinkUnavailable,
		Message: message,
	})
	return resolved
}

// linkRequested reports whether pairing was asked for: either a rule applied
// link_to_account, or the transaction itself is a transfer.
func linkRequested(resolved model.Resolved) bool {
	if resolved.Type == model.TypeTransfer {
		return true
	}
	for _, applied := range resolved.AppliedRules {
		if applied.Actions.LinkToAccount != nil {
			return true
		}
	}
	return false
}
