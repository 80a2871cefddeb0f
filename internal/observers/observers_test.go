package observers

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go-calculator/internal/calculator"
	"go-calculator/internal/config"
	"go-calculator/internal/observability"
	"go-calculator/internal/operations"
	"go-calculator/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func captureLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	old := observability.Logger
	observability.Logger = zap.New(core)
	t.Cleanup(func() { observability.Logger = old })
	return logs
}

func sampleCalculation() calculator.Calculation {
	return calculator.NewCalculation("Addition",
		decimal.NewFromInt(2), decimal.NewFromInt(3), decimal.NewFromInt(5),
		time.Date(2024, 6, 1, 8, 0, 0, 0, time.Local))
}

func TestLoggingObserverLogsCalculation(t *testing.T) {
	logs := captureLogs(t)
	ctx := observability.ContextWithSessionID(context.Background(), "sess-1")

	if err := NewLoggingObserver(zapcore.InfoLevel).Update(ctx, sampleCalculation()); err != nil {
		t.Fatalf("Update: %v", err)
	}

	entries := logs.FilterMessage("Calculation performed").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["operation"] != "Addition" || fields["result"] != "5" || fields["session_id"] != "sess-1" {
		t.Fatalf("unexpected fields %v", fields)
	}
	if entries[0].Level != zapcore.InfoLevel {
		t.Fatalf("expected info level, got %s", entries[0].Level)
	}
}

type countingSaver struct {
	calls int
	err   error
}

func (s *countingSaver) SaveHistory(context.Context) error {
	s.calls++
	return s.err
}

func TestAutoSaveObserver(t *testing.T) {
	logs := captureLogs(t)
	saver := &countingSaver{}
	o := NewAutoSaveObserver(saver, true)

	if err := o.Update(context.Background(), sampleCalculation()); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if saver.calls != 1 {
		t.Fatalf("expected 1 save, got %d", saver.calls)
	}
	if logs.FilterMessage("History auto-saved").Len() != 1 {
		t.Fatal("expected auto-save log entry")
	}

	o.SetEnabled(false)
	if err := o.Update(context.Background(), sampleCalculation()); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if saver.calls != 1 {
		t.Fatalf("expected disabled observer to skip saving, got %d saves", saver.calls)
	}
}

func TestAutoSaveObserverReturnsSaveError(t *testing.T) {
	boom := errors.New("disk full")
	o := NewAutoSaveObserver(&countingSaver{err: boom}, true)

	if err := o.Update(context.Background(), sampleCalculation()); !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
}

func TestAutoSaveObserverWithEngine(t *testing.T) {
	cfg := config.ForDir(t.TempDir())
	store, err := storage.NewCSVStore(cfg.HistoryFile, cfg.DefaultEncoding)
	if err != nil {
		t.Fatalf("NewCSVStore: %v", err)
	}
	calc := calculator.New(cfg, calculator.WithStore(store))
	calc.AddObserver(NewAutoSaveObserver(calc, true))

	op, err := operations.New("multiply")
	if err != nil {
		t.Fatalf("operations.New: %v", err)
	}
	calc.SetOperation(op)

	if _, err := calc.PerformOperation(context.Background(), "4", "2.5"); err != nil {
		t.Fatalf("PerformOperation: %v", err)
	}

	saved, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(saved) != 1 || saved[0].String() != "Multiplication(4, 2.5) = 10" {
		t.Fatalf("unexpected saved history %v", saved)
	}
	if filepath.Base(store.Path()) != config.DefaultHistoryFileName {
		t.Fatalf("unexpected history file %s", store.Path())
	}
}

type fakeStats struct{ size, undo, redo int }

func (s fakeStats) Len() int       { return s.size }
func (s fakeStats) UndoDepth() int { return s.undo }
func (s fakeStats) RedoDepth() int { return s.redo }

func TestMetricsObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	stats := &fakeStats{size: 1, undo: 1}
	o := NewMetricsObserver(reg, stats)

	if err := o.Update(context.Background(), sampleCalculation()); err != nil {
		t.Fatalf("Update: %v", err)
	}
	*stats = fakeStats{size: 2, undo: 2}
	if err := o.Update(context.Background(), sampleCalculation()); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if got := promtestutil.ToFloat64(o.calculations.WithLabelValues("Addition")); got != 2 {
		t.Fatalf("expected 2 additions, got %v", got)
	}
	if got := promtestutil.ToFloat64(o.historySize); got != 2 {
		t.Fatalf("expected history size 2, got %v", got)
	}

	*stats = fakeStats{size: 1, undo: 1, redo: 1}
	o.Refresh()
	if got := promtestutil.ToFloat64(o.redoDepth); got != 1 {
		t.Fatalf("expected redo depth 1, got %v", got)
	}
	if got := promtestutil.ToFloat64(o.undoDepth); got != 1 {
		t.Fatalf("expected undo depth 1, got %v", got)
	}

	count, err := promtestutil.GatherAndCount(reg, "calculator_calculations_total")
	if err != nil {
		t.Fatalf("GatherAndCount: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 series, got %d", count)
	}
}
