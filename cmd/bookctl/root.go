package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// globalOptions are flags shared by every subcommand.
type globalOptions struct {
	dataPath string
	envFile  string
	logLevel string
	jsonOut  bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "bookctl",
		Short: "Operate the book identity catalog",
		Long: `bookctl manages the book identity catalog from the command line.

It can mint access tokens, import books and ISBNs from YAML, merge duplicate
books, moderate duplicate reports, inspect ISBNs and rebuild the search index.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load(opts.envFile)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.dataPath, "data-path", "", "Data directory (default: DATA_PATH or ~/.bookid)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Path to .env file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "Print results as JSON")

	cmd.AddCommand(newTokenCmd(opts))
	cmd.AddCommand(newImportCmd(opts))
	cmd.AddCommand(newMergeCmd(opts))
	cmd.AddCommand(newReportsCmd(opts))
	cmd.AddCommand(newISBNCmd(opts))
	cmd.AddCommand(newReindexCmd(opts))

	return cmd
}
