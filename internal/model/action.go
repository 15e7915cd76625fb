package model

// ActionKind names an action variant.
type ActionKind string

// Action kinds.
const (
	ActionSetType       ActionKind = "set_type"
	ActionSetCategory   ActionKind = "set_category"
	ActionSetAccount    ActionKind = "set_account"
	ActionLinkToAccount ActionKind = "link_to_account"
	ActionAutoReconcile ActionKind = "auto_reconcile"
	ActionAddNote       ActionKind = "add_note"
)

// Action is one typed effect of a rule.
type Action interface {
	Kind() ActionKind
	isAction()
}

// SetType overrides the transaction type.
type SetType struct{ Type TransactionType }

// SetCategory overrides the category id.
type SetCategory struct{ CategoryID string }

// SetAccount overrides the account id.
type SetAccount struct{ AccountID string }

// LinkToAccount pairs the transaction with a mirror in AccountID.
type LinkToAccount struct{ AccountID string }

// AutoReconcile marks the transaction as reconciled.
type AutoReconcile struct{}

// AddNote appends a line to the transaction notes.
type AddNote struct{ Note string }

func (SetType) Kind() ActionKind       { return ActionSetType }
func (SetCategory) Kind() ActionKind   { return ActionSetCategory }
func (SetAccount) Kind() ActionKind    { return ActionSetAccount }
func (LinkToAccount) Kind() ActionKind { return ActionLinkToAccount }
func (AutoReconcile) Kind() ActionKind { return ActionAutoReconcile }
func (AddNote) Kind() ActionKind       { return ActionAddNote }

func (SetType) isAction()       {}
func (SetCategory) isAction()   {}
func (SetAccount) isAction()    {}
func (LinkToAccount) isAction() {}
func (AutoReconcile) isAction() {}
func (AddNote) isAction()       {}

// Actions returns the configured actions as typed variants. Exclusive targets
// come first, cumulative ones last.
func (a RuleActions) Actions() []Action {
	var out []Action
	if a.SetType != nil {
		out = append(out, SetType{Type: *a.SetType})
	}
	if a.SetCategory != nil {
		out = append(out, SetCategory{CategoryID: *a.SetCategory})
	}
	if a.SetAccount != nil {
		out = append(out, SetAccount{AccountID: *a.SetAccount})
	}
	if a.LinkToAccount != nil {
		out = append(out, LinkToAccount{AccountID: *a.LinkToAccount})
	}
	if a.AutoReconcile {
		out = append(out, AutoReconcile{})
	}
	if a.AddNote != nil && *a.AddNote != "" {
		out = append(out, AddNote{Note: *a.AddNote})
	}
	return out
}

// ActionsFrom builds the stored shape from typed variants.
func ActionsFrom(actions ...Action) RuleActions {
	var out RuleActions
	for _, action := range actions {
		switch a := action.(type) {
		case SetType:
			t := a.Type
			out.SetType = &t
		case SetCategory:
			out.SetCategory = &a.CategoryID
		case SetAccount:
			out.SetAccount = &a.AccountID
		case LinkToAccount:
			out.LinkToAccount = &a.AccountID
		case AutoReconcile:
			out.AutoReconcile = true
		case AddNote:
			out.AddNote = &a.Note
		}
	}
	return out
}
