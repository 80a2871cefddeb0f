// Package cli builds the calc command tree.
package cli

import (
	"context"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile  string
	envFile     string
	metricsAddr string
}

func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "calc",
		Short: "Interactive decimal calculator with undo/redo and saved history",
		Long: "calc runs an interactive calculator session. Every result is kept in a bounded " +
			"history that can be undone, redone and saved to CSV between sessions.",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadDotEnv(opts.envFile)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSession(cmd, opts)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "path to a calculator.toml file")
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file read before configuration; ignored when missing")
	rootCmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve /health and /metrics on this address during the session")

	rootCmd.AddCommand(
		newHistoryCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)

	return rootCmd
}
