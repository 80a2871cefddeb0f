package cli

import (
	"errors"

	"go-calculator/internal/observability"
	"go-calculator/internal/repl"
	"go-calculator/internal/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func runSession(cmd *cobra.Command, opts *rootOptions) (err error) {
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
		observability.Logger.Warn("Could not load existing history", zap.Error(err))
	}
	a.metrics.Refresh()

	if opts.metricsAddr != "" {
		srv, err := server.Start(opts.metricsAddr, a.registry)
		if err != nil {
			return err
		}
		defer func() {
			if shutdownErr := srv.Shutdown(ctx); shutdownErr != nil {
				observability.Logger.Warn("metrics server shutdown failed", zap.Error(shutdownErr))
			}
		}()
	}

	session := repl.New(a.calc, cmd.InOrStdin(), cmd.OutOrStdout(),
		repl.OnHistoryChange(a.metrics.Refresh),
	)
	return session.Run(ctx)
}
