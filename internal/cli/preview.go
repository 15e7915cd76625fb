package cli

import (
	"fmt"
	"strings"

	"github.com/InyerM/spends-assistant-web-sub000/internal/model"
)

// Names maps account and category ids to display names.
type Names struct {
	Accounts   map[string]string
	Categories map[string]string
}

// NewNames indexes accounts and categories by id.
func NewNames(accounts []model.Account, categories []model.Category) Names {
	names := Names{
		Accounts:   make(map[string]string, len(accounts)),
		Categories: make(map[string]string, len(categories)),
	}
	for _, a := range accounts {
		names.Accounts[a.ID] = a.Name
	}
	for _, c := range categories {
		names.Categories[c.ID] = c.Name
	}
	return names
}

// Account returns the display name of an account id, or the id itself.
func (n Names) Account(id string) string {
	if name, ok := n.Accounts[id]; ok {
		return name
	}
	return id
}

// Category returns the display name of a category id, or the id itself.
func (n Names) Category(id string) string {
	if name, ok := n.Categories[id]; ok {
		return name
	}
	return id
}

// RenderResolved renders a resolution preview. Account and category values a
// rule replaced show the incoming value struck through.
func RenderResolved(res model.Resolved, names Names) string {
	var b strings.Builder
	line := func(label, value string) {
		fmt.Fprintf(&b, "%s %s\n", BoldStyle.Render(label+":"), value)
	}

	line("Date", res.Date.Format("2006-01-02"))
	line("Description", res.Description)
	line("Amount", res.Amount.StringFixed(2))
	line("Type", string(res.Type))

	account := names.Account(model.StringValue(res.AccountID))
	if res.AccountOverridden() {
		account = FormatOverride(names.Account(model.StringValue(res.Original.AccountID)), account)
	}
	line("Account", orNone(account))

	category := names.Category(model.StringValue(res.CategoryID))
	if res.CategoryOverridden() {
		category = FormatOverride(names.Category(model.StringValue(res.Original.CategoryID)), category)
	}
	line("Category", orNone(category))

	if res.TransferToAccountID != nil {
		transfer := "to " + names.Account(*res.TransferToAccountID)
		if res.Transfer != nil {
			transfer += SubtleStyle.Render(" (" + res.Transfer.TransferID + ")")
		}
		line("Transfer", transfer)
	}
	if res.Note != "" {
		line("Notes", strings.ReplaceAll(res.Note, "\n", "; "))
	}
	if res.AutoReconcile {
		line("Reconciled", SuccessStyle.Render("yes"))
	}

	if len(res.AppliedRules) == 0 {
		line("Rules", SubtleStyle.Render("none matched"))
	} else {
		applied := make([]string, len(res.AppliedRules))
		for i, r := range res.AppliedRules {
			applied[i] = r.RuleName
		}
		line("Rules", strings.Join(applied, ", "))
	}

	for _, issue := range res.Issues {
		b.WriteString(FormatWarning(issue.Message) + "\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func orNone(s string) string {
	if s == "" {
		return SubtleStyle.Render("(none)")
	}
	return s
}
