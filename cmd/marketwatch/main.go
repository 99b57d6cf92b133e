package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GlobalFlags holds minimal global/persistent flags for CLI commands
type GlobalFlags struct {
	ConfigPath string
}

// buildRoot creates the root command and attaches all subcommands
func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	watchFlags := &WatchFlags{}
	onceFlags := &OnceFlags{}
	ledgerFlags := &LedgerFlags{}

	root := createRootCommand(globalFlags)
	root.AddCommand(
		createWatchCommand(globalFlags, watchFlags),
		createOnceCommand(globalFlags, onceFlags),
		createLedgerCommand(globalFlags, ledgerFlags),
	)
	return root
}

// createRootCommand creates the root command with minimal persistent flags
func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "marketwatch",
		Short: "Marketplace listing watcher and notifier",
		Long: `Marketwatch polls a marketplace search on a cron schedule, discovers
fresh listings through an infinite-scroll browser session, and pushes
anything not seen before to Telegram.

Examples:
  marketwatch watch --config=config.toml      # Start the watch daemon
  marketwatch watch config.toml --daemonize   # Run in the background
  marketwatch once --config=config.toml       # Run a single cycle and exit
  marketwatch ledger list --config=config.toml # Print the recorded listing ids`,
	}

	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (optional)")

	return root
}
