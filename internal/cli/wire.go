package cli

import (
	"context"
	"errors"
	"fmt"

	"go-calculator/internal/calculator"
	"go-calculator/internal/config"
	"go-calculator/internal/observability"
	"go-calculator/internal/observers"
	"go-calculator/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

type app struct {
	cfg      config.Config
	calc     *calculator.Calculator
	store    *storage.CSVStore
	registry *prometheus.Registry
	metrics  *observers.MetricsObserver
	shutdown func(context.Context) error
}

// loadConfig layers defaults, the config file and the environment, then
// validates the result.
func loadConfig(configFile string) (config.Config, error) {
	cfg, err := config.Load(viper.New(), configFile)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// wireApp starts logging (and OTLP export when enabled) and builds the
// engine with its store and observers. History is not loaded here.
func wireApp(ctx context.Context, cfg config.Config) (*app, error) {
	if err := observability.InitLogger(cfg.LogFile); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	shutdown, err := initTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		observability.SyncLogger()
		return nil, err
	}

	store, err := storage.NewCSVStore(cfg.HistoryFile, cfg.DefaultEncoding)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("wire history store: %w", err), shutdown(ctx))
	}

	calc := calculator.New(cfg, calculator.WithStore(store))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observers.NewMetricsObserver(registry, calc)

	calc.AddObserver(observers.NewLoggingObserver(zapcore.InfoLevel))
	calc.AddObserver(observers.NewAutoSaveObserver(calc, cfg.AutoSave))
	calc.AddObserver(metrics)

	return &app{
		cfg:      cfg,
		calc:     calc,
		store:    store,
		registry: registry,
		metrics:  metrics,
		shutdown: shutdown,
	}, nil
}

// initTelemetry starts the OTLP pipeline and the engine's instruments when
// enabled. The returned shutdown always syncs the logger.
func initTelemetry(ctx context.Context, enabled bool) (func(context.Context) error, error) {
	if !enabled {
		return func(context.Context) error {
			observability.SyncLogger()
			return nil
		}, nil
	}

	telemetryShutdown, err := observability.InitTelemetry(ctx)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	if err := calculator.InitMetrics(); err != nil {
		return nil, errors.Join(fmt.Errorf("init calculator metrics: %w", err), telemetryShutdown(ctx))
	}

	return func(ctx context.Context) error {
		err := telemetryShutdown(ctx)
		observability.SyncLogger()
		return err
	}, nil
}

func (a *app) close(ctx context.Context) error {
	return a.shutdown(context.WithoutCancel(ctx))
}
