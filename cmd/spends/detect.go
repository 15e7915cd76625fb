package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/InyerM/spends-assistant-web-sub000/internal/cli"
	"github.com/InyerM/spends-assistant-web-sub000/internal/detection"
)

func detectCmd() *cobra.Command {
	var (
		dryRun   bool
		priority int
	)

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Generate account-detection rules",
		Long: `Create one account_detection rule for every active, non-default account
that does not have one yet. The rules match bank names and the last four
digits of the account in raw bank text. Running it again creates nothing new.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("priority") {
				priority = cfg.Detection.Priority
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			svc := detection.NewService(store, detection.Options{Priority: detection.Priority(priority)}, slog.Default())

			if dryRun {
				drafts, err := svc.Preview(ctx)
				if err != nil {
					return err
				}
				if len(drafts) == 0 {
					fmt.Fprintln(out, cli.InfoStyle.Render("Every account already has a detection rule."))
					return nil
				}
				rows := make([][]string, 0, len(drafts))
				for _, d := range drafts {
					account, _ := d.DetectedAccount()
					rows = append(rows, []string{
						d.Name, account, strconv.Itoa(d.Priority), strings.Join(d.Conditions.RawTextContains, ", "),
					})
				}
				fmt.Fprintln(out, cli.RenderTable([]string{"Rule", "Account", "Priority", "Matches"}, rows))
				return nil
			}

			summary, err := svc.Run(ctx)
			if err != nil {
				return fmt.Errorf("failed to generate detection rules: %w", err)
			}

			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Created %d detection rules", summary.Created)))
			if summary.Skipped > 0 {
				fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("%d accounts were covered concurrently and skipped", summary.Skipped)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the rules that would be created")
	cmd.Flags().IntVar(&priority, "priority", 0, "Priority of generated rules (default from detection.priority)")

	return cmd
}
