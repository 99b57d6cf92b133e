package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"marketwatch"
)

// createLedgerCommand creates the ledger inspection subcommand
func createLedgerCommand(globalFlags *GlobalFlags, flags *LedgerFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the ledger of already-notified listings",
		Long: `Inspect the ledger of listing ids that were already notified.

Examples:
  marketwatch ledger list --config=config.toml    # Print every recorded id
  marketwatch ledger count --config=config.toml   # Print the ledger size`,
	}

	list := &cobra.Command{
		Use:   "list [config.toml]",
		Short: "Print every recorded listing id",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.ConfigPath = globalFlags.ConfigPath
			return runLedgerCommand(cmd, flags, args, false)
		},
	}
	count := &cobra.Command{
		Use:   "count [config.toml]",
		Short: "Print the number of recorded listing ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.ConfigPath = globalFlags.ConfigPath
			return runLedgerCommand(cmd, flags, args, true)
		},
	}
	cmd.AddCommand(list, count)

	return cmd
}

// runLedgerCommand opens the configured ledger backend read-only and prints
// its contents. The notification settings are deliberately not validated;
// inspection must work on a box without Telegram credentials.
func runLedgerCommand(cmd *cobra.Command, flags *LedgerFlags, args []string, countOnly bool) error {
	configPath := flags.ConfigPath
	if len(args) > 0 {
		configPath = args[0]
	}

	cfg, err := marketwatch.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	store, err := marketwatch.NewLedger(cfg.Ledger)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	seen, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}

	if countOnly {
		fmt.Fprintln(cmd.OutOrStdout(), len(seen))
		return nil
	}
	for _, id := range seen.IDs() {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return nil
}
