package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/InyerM/spends-assistant-web-sub000/internal/automation"
	"github.com/InyerM/spends-assistant-web-sub000/internal/cli"
	"github.com/InyerM/spends-assistant-web-sub000/internal/common"
	"github.com/InyerM/spends-assistant-web-sub000/internal/model"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage automation rules",
		Long: `List, inspect, add, import, and delete the automation rules applied to
incoming transactions. Rules are evaluated by descending priority.`,
	}

	cmd.AddCommand(listRulesCmd())
	cmd.AddCommand(showRuleCmd())
	cmd.AddCommand(addRuleCmd())
	cmd.AddCommand(importRulesCmd())
	cmd.AddCommand(deleteRuleCmd())

	return cmd
}

func listRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all rules in evaluation order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rules, err := store.GetRules(ctx)
			if err != nil {
				return fmt.Errorf("failed to get rules: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(rules) == 0 {
				fmt.Fprintln(out, cli.InfoStyle.Render("No rules found. Use 'spends rules add' or 'spends detect' to create some."))
				return nil
			}

			rows := make([][]string, 0, len(rules))
			for _, r := range rules {
				status := yesNo(r.IsActive)
				if err := automation.Validate(r); err != nil {
					status = cli.ErrorStyle.Render("malformed")
				}
				rows = append(rows, []string{
					r.ID, r.Name, string(r.RuleType), strconv.Itoa(r.Priority), string(r.Logic()), status,
				})
			}
			fmt.Fprintln(out, cli.RenderTable([]string{"ID", "Name", "Type", "Priority", "Logic", "Active"}, rows))
			return nil
		},
	}
}

func showRuleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a rule as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rule, err := store.GetRule(ctx, args[0])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rule)
		},
	}
}

type ruleFlags struct {
	name          string
	ruleType      string
	logic         string
	regex         string
	txType        string
	minAmount     string
	maxAmount     string
	setType       string
	setCategory   string
	setAccount    string
	linkTo        string
	note          string
	transferTo    string
	matchPhone    string
	promptText    string
	rawContains   []string
	descContains  []string
	sources       []string
	priority      int
	autoReconcile bool
	inactive      bool
}

func (f *ruleFlags) rule(cmd *cobra.Command) (*model.AutomationRule, error) {
	rule := &model.AutomationRule{
		Name:                f.name,
		Priority:            f.priority,
		IsActive:            !f.inactive,
		RuleType:            model.RuleType(f.ruleType),
		ConditionLogic:      model.ConditionLogic(f.logic),
		MatchPhone:          f.matchPhone,
		PromptText:          f.promptText,
		TransferToAccountID: model.StringPtr(f.transferTo),
	}

	flags := cmd.Flags()
	if flags.Changed("raw-contains") {
		rule.Conditions.RawTextContains = f.rawContains
	}
	if flags.Changed("desc-contains") {
		rule.Conditions.DescriptionContains = f.descContains
	}
	if flags.Changed("source") {
		rule.Conditions.Source = f.sources
	}
	if flags.Changed("regex") {
		rule.Conditions.DescriptionRegex = &f.regex
	}
	if flags.Changed("tx-type") {
		t := model.TransactionType(f.txType)
		rule.Conditions.Type = &t
	}
	if flags.Changed("min") || flags.Changed("max") {
		if !flags.Changed("min") || !flags.Changed("max") {
			return nil, common.NewUserError("--min and --max must be given together", common.ErrInvalidInput)
		}
		minimum, err := decimal.NewFromString(f.minAmount)
		if err != nil {
			return nil, common.NewUserError("invalid --min amount", err)
		}
		maximum, err := decimal.NewFromString(f.maxAmount)
		if err != nil {
			return nil, common.NewUserError("invalid --max amount", err)
		}
		rule.Conditions.AmountBetween = &model.AmountRange{Min: minimum, Max: maximum}
	}

	if flags.Changed("set-type") {
		t := model.TransactionType(f.setType)
		rule.Actions.SetType = &t
	}
	if flags.Changed("set-category") {
		rule.Actions.SetCategory = &f.setCategory
	}
	if flags.Changed("set-account") {
		rule.Actions.SetAccount = &f.setAccount
	}
	if flags.Changed("link-to") {
		rule.Actions.LinkToAccount = &f.linkTo
	}
	if flags.Changed("note") {
		rule.Actions.AddNote = &f.note
	}
	rule.Actions.AutoReconcile = f.autoReconcile

	if err := automation.Validate(*rule); err != nil {
		return nil, common.NewUserError("rule would never apply", err)
	}
	if rule.EffectiveActions().IsEmpty() {
		return nil, common.NewUserError("rule has no actions", common.ErrInvalidInput)
	}
	return rule, nil
}

func addRuleCmd() *cobra.Command {
	var f ruleFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an automation rule",
		Example: `  spends rules add --name "Uber rides" --desc-contains uber --set-category <category-id>
  spends rules add --name "Nequi top up" --type transfer --raw-contains "a nequi" --transfer-to <account-id>`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			rule, err := f.rule(cmd)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.CreateRule(ctx, rule); err != nil {
				return fmt.Errorf("failed to create rule: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created rule %q (%s)", rule.Name, rule.ID)))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.name, "name", "", "Rule name")
	flags.StringVar(&f.ruleType, "type", string(model.RuleTypeGeneral), "Rule type (general, transfer, account_detection)")
	flags.IntVar(&f.priority, "priority", 0, "Higher priority rules win exclusive fields")
	flags.StringVar(&f.logic, "logic", string(model.LogicAnd), "Combine conditions with and/or")
	flags.StringSliceVar(&f.rawContains, "raw-contains", nil, "Match raw bank text containing any of these fragments")
	flags.StringSliceVar(&f.descContains, "desc-contains", nil, "Match descriptions containing any of these fragments")
	flags.StringSliceVar(&f.sources, "source", nil, "Match any of these sources")
	flags.StringVar(&f.regex, "regex", "", "Match descriptions against this regular expression (case-insensitive)")
	flags.StringVar(&f.txType, "tx-type", "", "Match transactions of this type")
	flags.StringVar(&f.minAmount, "min", "", "Minimum amount, inclusive")
	flags.StringVar(&f.maxAmount, "max", "", "Maximum amount, inclusive")
	flags.StringVar(&f.setType, "set-type", "", "Set the transaction type")
	flags.StringVar(&f.setCategory, "set-category", "", "Set the category id")
	flags.StringVar(&f.setAccount, "set-account", "", "Set the account id")
	flags.StringVar(&f.linkTo, "link-to", "", "Link as a transfer to this account id")
	flags.StringVar(&f.note, "note", "", "Append this note")
	flags.BoolVar(&f.autoReconcile, "auto-reconcile", false, "Mark matched transactions reconciled")
	flags.StringVar(&f.transferTo, "transfer-to", "", "Destination account id for transfer rules")
	flags.StringVar(&f.matchPhone, "match-phone", "", "Phone number hint for message ingestion")
	flags.StringVar(&f.promptText, "prompt", "", "Hint passed to the extraction step")
	flags.BoolVar(&f.inactive, "inactive", false, "Create the rule disabled")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func importRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import rules from a JSON array",
		Long: `Import a JSON array of rules in the format printed by 'spends rules show'.
Rules that cannot be evaluated are stored anyway and reported; resolution
skips them until they are fixed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read rules file: %w", err)
			}

			var rules []model.AutomationRule
			if err := json.Unmarshal(data, &rules); err != nil {
				return common.NewUserError("rules file is not a JSON array of rules", err)
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			tx, err := store.BeginTx(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = tx.Rollback() }()

			for i := range rules {
				if err := tx.CreateRule(ctx, &rules[i]); err != nil {
					return fmt.Errorf("failed to import rule %q: %w", rules[i].Name, err)
				}
				if err := automation.Validate(rules[i]); err != nil {
					fmt.Fprintln(out, cli.FormatWarning(err.Error()))
				}
			}

			if err := tx.Commit(); err != nil {
				return fmt.Errorf("failed to commit rules: %w", err)
			}

			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d rules", len(rules))))
			return nil
		},
	}
}

func deleteRuleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteRule(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete rule: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted rule "+args[0]))
			return nil
		},
	}
}
