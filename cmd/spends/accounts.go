package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/InyerM/spends-assistant-web-sub000/internal/cli"
	"github.com/InyerM/spends-assistant-web-sub000/internal/model"
)

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage accounts",
		Long:  `List, add, and deactivate the accounts transactions are booked against.`,
	}

	cmd.AddCommand(listAccountsCmd())
	cmd.AddCommand(addAccountCmd())
	cmd.AddCommand(deactivateAccountCmd())

	return cmd
}

func listAccountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			accounts, err := store.GetAccounts(ctx)
			if err != nil {
				return fmt.Errorf("failed to get accounts: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(accounts) == 0 {
				fmt.Fprintln(out, cli.InfoStyle.Render("No accounts found. Use 'spends accounts add' to create one."))
				return nil
			}

			rows := make([][]string, 0, len(accounts))
			for _, a := range accounts {
				rows = append(rows, []string{
					a.ID, a.Name, a.Institution, a.LastFour, string(a.Type), yesNo(a.IsDefault), yesNo(a.IsActive),
				})
			}
			fmt.Fprintln(out, cli.RenderTable(
				[]string{"ID", "Name", "Institution", "Last four", "Type", "Default", "Active"}, rows))
			return nil
		},
	}
}

func addAccountCmd() *cobra.Command {
	var (
		institution string
		lastFour    string
		accountType string
		isDefault   bool
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			account := &model.Account{
				Name:        args[0],
				Institution: institution,
				LastFour:    lastFour,
				Type:        model.AccountType(accountType),
				IsDefault:   isDefault,
				IsActive:    true,
			}
			if err := store.CreateAccount(ctx, account); err != nil {
				return fmt.Errorf("failed to create account: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created account %q (%s)", account.Name, account.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&institution, "institution", "", "Bank or wallet provider")
	cmd.Flags().StringVar(&lastFour, "last-four", "", "Last four digits of the account or card number")
	cmd.Flags().StringVar(&accountType, "type", string(model.AccountChecking), "Account type (checking, savings, credit_card, cash, wallet)")
	cmd.Flags().BoolVar(&isDefault, "default", false, "Book transactions without an account here")

	return cmd
}

func deactivateAccountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <id>",
		Short: "Deactivate an account",
		Long:  `Deactivated accounts stop receiving transfers and detection rules.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeactivateAccount(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to deactivate account: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deactivated account "+args[0]))
			return nil
		},
	}
}
