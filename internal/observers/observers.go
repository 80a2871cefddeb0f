// Package observers holds the calculation observers wired into the engine
// by the CLI.
package observers

import (
	"context"

	"go-calculator/internal/calculator"
	"go-calculator/internal/observability"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggingObserver writes one log entry per calculation.
type LoggingObserver struct {
	level zapcore.Level
}

func NewLoggingObserver(level zapcore.Level) *LoggingObserver {
	return &LoggingObserver{level: level}
}

func (o *LoggingObserver) Update(ctx context.Context, calc calculator.Calculation) error {
	observability.LoggerWithTrace(ctx).Log(o.level, "Calculation performed",
		zap.String("operation", calc.Operation),
		zap.Stringer("operand1", calc.Operand1),
		zap.Stringer("operand2", calc.Operand2),
		zap.Stringer("result", calc.Result),
		zap.String("timestamp", calculator.FormatTimestamp(calc.Timestamp)),
	)
	return nil
}

// Saver is the part of the engine AutoSaveObserver needs.
type Saver interface {
	SaveHistory(ctx context.Context) error
}

// AutoSaveObserver persists the history after every calculation while
// enabled. A failed save is returned to the engine.
type AutoSaveObserver struct {
	saver   Saver
	enabled bool
}

func NewAutoSaveObserver(saver Saver, enabled bool) *AutoSaveObserver {
	return &AutoSaveObserver{saver: saver, enabled: enabled}
}

func (o *AutoSaveObserver) Enabled() bool { return o.enabled }

func (o *AutoSaveObserver) SetEnabled(enabled bool) { o.enabled = enabled }

func (o *AutoSaveObserver) Update(ctx context.Context, calc calculator.Calculation) error {
	if !o.enabled {
		return nil
	}
	if err := o.saver.SaveHistory(ctx); err != nil {
		return err
	}
	observability.LoggerWithTrace(ctx).Info("History auto-saved", zap.String("operation", calc.Operation))
	return nil
}

// HistoryStats is the part of the engine MetricsObserver reads.
type HistoryStats interface {
	Len() int
	UndoDepth() int
	RedoDepth() int
}

// MetricsObserver exports calculation counts and history depth as
// Prometheus metrics on the registerer it is built with.
type MetricsObserver struct {
	stats HistoryStats

	calculations *prometheus.CounterVec
	historySize  prometheus.Gauge
	undoDepth    prometheus.Gauge
	redoDepth    prometheus.Gauge
}

func NewMetricsObserver(reg prometheus.Registerer, stats HistoryStats) *MetricsObserver {
	factory := promauto.With(reg)

	return &MetricsObserver{
		stats: stats,
		calculations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "calculator",
			Name:      "calculations_total",
			Help:      "Completed calculations by operation.",
		}, []string{"operation"}),
		historySize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "calculator",
			Name:      "history_size",
			Help:      "Calculations currently held in history.",
		}),
		undoDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "calculator",
			Name:      "undo_depth",
			Help:      "Snapshots available to undo.",
		}),
		redoDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "calculator",
			Name:      "redo_depth",
			Help:      "Snapshots available to redo.",
		}),
	}
}

func (o *MetricsObserver) Update(_ context.Context, calc calculator.Calculation) error {
	o.calculations.WithLabelValues(calc.Operation).Inc()
	o.Refresh()
	return nil
}

// Refresh re-reads the history gauges. The REPL calls it after undo, redo
// and clear, which do not notify observers.
func (o *MetricsObserver) Refresh() {
	o.historySize.Set(float64(o.stats.Len()))
	o.undoDepth.Set(float64(o.stats.UndoDepth()))
	o.redoDepth.Set(float64(o.stats.RedoDepth()))
}
