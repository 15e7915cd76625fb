package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/InyerM/spends-assistant-web-sub000/internal/automation"
	"github.com/InyerM/spends-assistant-web-sub000/internal/cli"
	"github.com/InyerM/spends-assistant-web-sub000/internal/common"
	"github.com/InyerM/spends-assistant-web-sub000/internal/ingest"
	"github.com/InyerM/spends-assistant-web-sub000/internal/model"
	"github.com/InyerM/spends-assistant-web-sub000/internal/observability"
)

type resolveOptions struct {
	date        string
	description string
	rawText     string
	amount      string
	txType      string
	source      string
	accountID   string
	categoryID  string
	notes       string
	input       string
	onDuplicate string
	dryRun      bool
	detectOnly  bool
	asJSON      bool
}

func resolveCmd() *cobra.Command {
	var opts resolveOptions

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Apply automation rules to transactions",
		Long: `Resolve one transaction given by flags, or a JSON array of transactions
given with --input, against the stored automation rules.

Without --dry-run the results are stored. A transaction with the same date,
amount and account as a stored one is a possible duplicate; --on-duplicate
decides whether to ask, keep both, or replace the stored one.

With --detect-only only the account-detection rules run and the detected
account is printed; nothing is stored.`,
		Example: `  spends resolve --amount 45000 --description "Almuerzo" --raw "Compra RESTAURANTE EL CIELO"
  spends resolve --input sms-export.json --on-duplicate keep-both
  spends resolve --detect-only --raw "Bancolombia le informa compra *1234"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResolve(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.date, "date", "", "Transaction date, YYYY-MM-DD (default: today)")
	flags.StringVar(&opts.description, "description", "", "Transaction description")
	flags.StringVar(&opts.rawText, "raw", "", "Raw bank text the transaction was extracted from")
	flags.StringVar(&opts.amount, "amount", "", "Transaction amount")
	flags.StringVar(&opts.txType, "type", string(model.TypeExpense), "Transaction type (expense, income, transfer)")
	flags.StringVar(&opts.source, "source", "manual", "Where the transaction came from")
	flags.StringVar(&opts.accountID, "account", "", "Account id (default: the default account)")
	flags.StringVar(&opts.categoryID, "category", "", "Category id")
	flags.StringVar(&opts.notes, "notes", "", "Notes")
	flags.StringVar(&opts.input, "input", "", "JSON file with an array of transactions")
	flags.StringVar(&opts.onDuplicate, "on-duplicate", "", "ask, keep-both or replace (default from resolve.on_duplicate)")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Preview the resolution without storing it")
	flags.BoolVar(&opts.detectOnly, "detect-only", false, "Only detect the account from the raw text")
	flags.BoolVar(&opts.asJSON, "json", false, "Print resolutions as JSON")
	cmd.MarkFlagsMutuallyExclusive("detect-only", "dry-run")

	return cmd
}

func (o resolveOptions) candidates() ([]model.Candidate, error) {
	if o.input != "" {
		data, err := os.ReadFile(o.input)
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		var candidates []model.Candidate
		if err := json.Unmarshal(data, &candidates); err != nil {
			return nil, common.NewUserError("input is not a JSON array of transactions", err)
		}
		return candidates, nil
	}

	var err error
	amount := decimal.Zero
	switch {
	case o.amount != "":
		amount, err = decimal.NewFromString(o.amount)
		if err != nil {
			return nil, common.NewUserError("invalid --amount", err)
		}
	case o.detectOnly:
		if o.rawText == "" {
			return nil, common.NewUserError("--raw or --input is required with --detect-only", common.ErrInvalidInput)
		}
	default:
		return nil, common.NewUserError("--amount or --input is required", common.ErrInvalidInput)
	}

	date := time.Now().UTC().Truncate(24 * time.Hour)
	if o.date != "" {
		date, err = time.Parse("2006-01-02", o.date)
		if err != nil {
			return nil, common.NewUserError("invalid --date, want YYYY-MM-DD", err)
		}
	}

	txType := model.TransactionType(o.txType)
	if !txType.Valid() {
		return nil, common.NewUserError(fmt.Sprintf("invalid --type %q", o.txType), common.ErrInvalidInput)
	}

	return []model.Candidate{{
		Date:        date,
		Description: o.description,
		RawText:     model.StringPtr(o.rawText),
		Amount:      amount,
		Type:        txType,
		Source:      o.source,
		AccountID:   model.StringPtr(o.accountID),
		CategoryID:  model.StringPtr(o.categoryID),
		Notes:       o.notes,
	}}, nil
}

type resolveTally struct {
	stored    int
	conflicts int
	skipped   int
	failed    int
}

func runResolve(cmd *cobra.Command, opts resolveOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("on-duplicate") {
		opts.onDuplicate = cfg.Resolve.OnDuplicate
	}
	decision, err := ingest.ParseDecision(opts.onDuplicate)
	if err != nil {
		return common.NewUserError("invalid --on-duplicate", err)
	}

	candidates, err := opts.candidates()
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	names, err := loadNames(ctx, store)
	if err != nil {
		return err
	}

	metrics := observability.NewMetrics()
	processor := ingest.NewProcessor(store,
		ingest.WithReporter(automation.MultiReporter{automation.NewLogReporter(slog.Default()), metrics}),
		ingest.WithLogger(slog.Default()),
	)

	snap, err := processor.Load(ctx)
	if err != nil {
		return err
	}
	for _, malformed := range snap.Engine.Malformed() {
		fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatWarning(malformed.Error()))
	}

	if opts.detectOnly {
		return runDetectOnly(out, snap, candidates, names, opts.asJSON)
	}

	batch := len(candidates) > 1
	interrupt := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx = interrupt.HandleInterrupts(ctx)
	defer interrupt.Stop()
	prompter := cli.NewPrompter(cmd.InOrStdin(), out, names)

	step := func() {}
	if batch && !opts.asJSON {
		bar := cli.NewProgressBar(cmd.ErrOrStderr(), len(candidates), "Resolving transactions...")
		defer func() { _ = bar.Finish() }()
		step = func() { _ = bar.Add(1) }
	}

	var tally resolveTally
	var resolutions []model.Resolved
	for _, candidate := range candidates {
		if ctx.Err() != nil {
			break
		}

		if opts.dryRun {
			res := processor.Resolve(snap, candidate)
			resolutions = append(resolutions, res)
			if !opts.asJSON {
				fmt.Fprintln(out, cli.RenderBox("Preview", cli.RenderResolved(res, names)))
			}
			step()
			continue
		}

		res, err := resolveOne(ctx, processor, prompter, snap, candidate, decision, batch, &tally)
		if err != nil {
			if !batch {
				return err
			}
			tally.failed++
			slog.Warn("Failed to store transaction", "description", candidate.Description, "error", err)
		}
		if res != nil {
			interrupt.MarkProcessed()
			resolutions = append(resolutions, *res)
			if !batch && !opts.asJSON {
				fmt.Fprintln(out, cli.RenderBox("Stored", cli.RenderResolved(*res, names)))
			}
		}
		step()
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resolutions); err != nil {
			return err
		}
	}

	printResolveSummary(cmd.ErrOrStderr(), metrics.Snapshot(), tally, opts.dryRun)
	return nil
}

// detectedAccount is one line of --detect-only output.
type detectedAccount struct {
	Description string  `json:"description"`
	AccountID   *string `json:"account_id"`
	RuleID      string  `json:"rule_id,omitempty"`
	RuleName    string  `json:"rule_name,omitempty"`
}

func runDetectOnly(out io.Writer, snap *ingest.Snapshot, candidates []model.Candidate, names cli.Names, asJSON bool) error {
	results := make([]detectedAccount, 0, len(candidates))
	for _, candidate := range candidates {
		result := detectedAccount{Description: candidate.Description}
		if accountID, applied, ok := snap.Engine.DetectAccount(candidate); ok {
			result.AccountID = &accountID
			result.RuleID = applied.RuleID
			result.RuleName = applied.RuleName
		}
		results = append(results, result)
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		account := cli.FormatWarning("not detected")
		if r.AccountID != nil {
			account = names.Account(*r.AccountID)
		}
		rows = append(rows, []string{r.Description, account, r.RuleName})
	}
	fmt.Fprintln(out, cli.RenderTable([]string{"Transaction", "Account", "Rule"}, rows))
	return nil
}

// resolveOne stores one candidate, prompting on conflicts when decision is
// ask and the run is not a batch. It returns the stored resolution or nil.
func resolveOne(ctx context.Context, processor *ingest.Processor, prompter *cli.Prompter, snap *ingest.Snapshot,
	candidate model.Candidate, decision ingest.Decision, batch bool, tally *resolveTally,
) (*model.Resolved, error) {
	outcome, err := processor.ProcessWith(ctx, snap, candidate, decision)
	if errors.Is(err, ingest.ErrNoAccount) {
		return nil, common.NewUserError("no account given and no default account configured", err)
	}
	if err != nil {
		return nil, err
	}

	if outcome.Conflict != nil {
		if batch {
			tally.conflicts++
			return nil, nil
		}

		choice, skip, err := prompter.ConfirmDuplicate(ctx, *outcome.Conflict, outcome.Resolved)
		if err != nil {
			return nil, err
		}
		if skip {
			tally.skipped++
			return nil, nil
		}
		outcome, err = processor.ProcessWith(ctx, snap, candidate, choice)
		if err != nil {
			return nil, err
		}
	}

	tally.stored++
	return &outcome.Resolved, nil
}

func printResolveSummary(w io.Writer, snap observability.Snapshot, tally resolveTally, dryRun bool) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, cli.FormatInfo(fmt.Sprintf("Resolved %.0f: %.0f applied rules, %.0f linked transfers, %.0f unmatched",
		snap.Total(),
		snap.Resolutions[observability.OutcomeApplied],
		snap.Resolutions[observability.OutcomeLinked],
		snap.Resolutions[observability.OutcomeUnmatched])))

	if snap.RulesSkipped > 0 || snap.LinksSkipped > 0 {
		fmt.Fprintln(w, cli.FormatWarning(fmt.Sprintf("Skipped %.0f malformed rule evaluations and %.0f transfer links",
			snap.RulesSkipped, snap.LinksSkipped)))
	}
	if dryRun {
		return
	}

	fmt.Fprintln(w, cli.FormatSuccess(fmt.Sprintf("Stored %d transactions", tally.stored)))
	if tally.conflicts > 0 {
		fmt.Fprintln(w, cli.FormatWarning(fmt.Sprintf(
			"%d possible duplicates were not stored; re-run with --on-duplicate keep-both or replace", tally.conflicts)))
	}
	if tally.skipped > 0 {
		fmt.Fprintln(w, cli.FormatInfo(fmt.Sprintf("%d duplicates skipped", tally.skipped)))
	}
	if tally.failed > 0 {
		fmt.Fprintln(w, cli.FormatError(fmt.Sprintf("%d transactions failed, see the log for details", tally.failed)))
	}
}
