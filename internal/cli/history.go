package cli

import (
	"errors"
	"fmt"

	"go-calculator/internal/render"

	"github.com/spf13/cobra"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the saved calculation history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			ctx := cmd.Context()

			cfg, err := loadConfig(opts.configFile)
			if err != nil {
				return err
			}

			a, err := wireApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, a.close(ctx)) }()

			if err := a.calc.LoadHistory(ctx); err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), render.History(a.calc.HistoryRows(), render.Options{
				Limit:  limit,
				Source: a.store.Path(),
			}))
			return err
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show only the newest N calculations")

	return cmd
}
