package model

import "github.com/shopspring/decimal"

// ConditionKind names a condition variant.
type ConditionKind string

// Condition kinds, in evaluation order.
const (
	ConditionRawTextContains     ConditionKind = "raw_text_contains"
	ConditionDescriptionContains ConditionKind = "description_contains"
	ConditionDescriptionRegex    ConditionKind = "description_regex"
	ConditionAmountBetween       ConditionKind = "amount_between"
	ConditionSource              ConditionKind = "source"
	ConditionType                ConditionKind = "type"
)

// Condition is one typed predicate of a rule.
type Condition interface {
	Kind() ConditionKind
	isCondition()
}

// RawTextContains holds when any fragment occurs in the candidate's raw text.
type RawTextContains struct {
	Fragments []string
}

// DescriptionContains holds when any fragment occurs in the description.
type DescriptionContains struct {
	Fragments []string
}

// DescriptionRegex holds when the pattern matches the description.
type DescriptionRegex struct {
	Pattern string
}

// AmountBetween holds when the amount lies in the inclusive range.
type AmountBetween struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// SourceIn holds when the candidate source is one of Sources.
type SourceIn struct {
	Sources []string
}

// TypeIs holds when the candidate type equals Type.
type TypeIs struct {
	Type TransactionType
}

func (RawTextContains) Kind() ConditionKind     { return ConditionRawTextContains }
func (DescriptionContains) Kind() ConditionKind { return ConditionDescriptionContains }
func (DescriptionRegex) Kind() ConditionKind    { return ConditionDescriptionRegex }
func (AmountBetween) Kind() ConditionKind       { return ConditionAmountBetween }
func (SourceIn) Kind() ConditionKind            { return ConditionSource }
func (TypeIs) Kind() ConditionKind              { return ConditionType }

func (RawTextContains) isCondition()     {}
func (DescriptionContains) isCondition() {}
func (DescriptionRegex) isCondition()    {}
func (AmountBetween) isCondition()       {}
func (SourceIn) isCondition()            {}
func (TypeIs) isCondition()              {}

// Conditions returns the present condition keys as typed variants.
func (c RuleConditions) Conditions() []Condition {
	var out []Condition
	if c.RawTextContains != nil {
		out = append(out, RawTextContains{Fragments: c.RawTextContains})
	}
	if c.DescriptionContains != nil {
		out = append(out, DescriptionContains{Fragments: c.DescriptionContains})
	}
	if c.DescriptionRegex != nil {
		out = append(out, DescriptionRegex{Pattern: *c.DescriptionRegex})
	}
	if c.AmountBetween != nil {
		out = append(out, AmountBetween{Min: c.AmountBetween.Min, Max: c.AmountBetween.Max})
	}
	if c.Source != nil {
		out = append(out, SourceIn{Sources: c.Source})
	}
	if c.Type != nil {
		out = append(out, TypeIs{Type: *c.Type})
	}
	return out
}

// ConditionsFrom builds the stored shape from typed variants. A later variant
// of the same kind replaces an earlier one.
func ConditionsFrom(conds ...Condition) RuleConditions {
	var out RuleConditions
	for _, cond := range conds {
		switch c := cond.(type) {
		case RawTextContains:
			out.RawTextContains = nonNil(c.Fragments)
		case DescriptionContains:
			out.DescriptionContains = nonNil(c.Fragments)
		case DescriptionRegex:
			pattern := c.Pattern
			out.DescriptionRegex = &pattern
		case AmountBetween:
			out.AmountBetween = &AmountRange{Min: c.Min, Max: c.Max}
		case SourceIn:
			out.Source = nonNil(c.Sources)
		case TypeIs:
			t := c.Type
			out.Type = &t
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
