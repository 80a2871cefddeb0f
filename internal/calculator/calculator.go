// Package calculator implements the calculator engine: a bounded history of
// calculations with memento-based undo/redo, a pluggable operation, observer
// notification and history persistence through a HistoryStore.
//
// The engine is not safe for concurrent use; it is driven by one
// interactive session.
package calculator

import (
	"context"
	"errors"
	"math/big"
	"slices"
	"strconv"
	"strings"
	"time"

	"go-calculator/internal/calcerr"
	"go-calculator/internal/config"
	"go-calculator/internal/observability"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("calculator")

// ErrHistoryNotFound is returned by a HistoryStore when nothing has been
// saved yet. LoadHistory treats it as "nothing to load".
var ErrHistoryNotFound = errors.New("history file not found")

// Operation is one arithmetic strategy.
type Operation interface {
	Name() string
	Compute(a, b decimal.Decimal) (decimal.Decimal, error)
}

// HistoryStore persists the history list.
type HistoryStore interface {
	Save(ctx context.Context, history []Calculation) error
	Load(ctx context.Context) ([]Calculation, error)
}

// HistoryRow is the tabular projection of a Calculation: numbers as
// canonical strings, the timestamp kept as a time for sorting.
type HistoryRow struct {
	Operation string
	Operand1  string
	Operand2  string
	Result    string
	Timestamp time.Time
}

type Option func(*Calculator)

func WithStore(store HistoryStore) Option {
	return func(c *Calculator) { c.store = store }
}

func WithClock(now func() time.Time) Option {
	return func(c *Calculator) { c.now = now }
}

type Calculator struct {
	cfg   config.Config
	store HistoryStore
	now   func() time.Time

	history   []Calculation
	undoStack []Memento
	redoStack []Memento
	operation Operation
	observers []Observer
}

// New builds an engine. cfg is expected to be validated already.
func New(cfg config.Config, opts ...Option) *Calculator {
	c := &Calculator{
		cfg: cfg,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	observability.Logger.Info("Calculator initialized with configuration",
		zap.Int("max_history_size", cfg.MaxHistorySize),
		zap.Int("precision", cfg.Precision),
		zap.Bool("auto_save", cfg.AutoSave),
		zap.String("history_file", cfg.HistoryFile),
	)

	return c
}

func (c *Calculator) Config() config.Config { return c.cfg }

// SetOperation replaces the active operation. nil clears it.
func (c *Calculator) SetOperation(op Operation) {
	c.operation = op
}

func (c *Calculator) Operation() Operation { return c.operation }

// PerformOperation validates both raw operands, runs the active operation
// and records the result. On any error the history and both stacks are
// left as they were, except when an observer fails: by then the
// calculation is already recorded.
func (c *Calculator) PerformOperation(ctx context.Context, rawA, rawB string) (decimal.Decimal, error) {
	ctx, span := tracer.Start(ctx, "calculator.perform_operation")
	defer span.End()
	logger := observability.LoggerWithTrace(ctx)

	if c.operation == nil {
		err := calcerr.Operation("No operation set")
		observability.RecordError(ctx, span, logger, errorCounter, "none", "calculation failed", err)
		return decimal.Zero, err
	}

	opName := c.operation.Name()
	span.SetAttributes(attribute.String("calculator.operation", opName))

	a, err := c.validateNumber(rawA)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, opName, "invalid operand", err)
		return decimal.Zero, err
	}
	b, err := c.validateNumber(rawB)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, opName, "invalid operand", err)
		return decimal.Zero, err
	}

	span.SetAttributes(
		attribute.String("calculator.operand.a", a.String()),
		attribute.String("calculator.operand.b", b.String()),
	)

	start := time.Now()
	result, err := c.operation.Compute(a, b)
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0 // ms
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, opName, "calculation failed", err)
		return decimal.Zero, err
	}

	calc := NewCalculation(opName, a, b, result, c.now())

	c.undoStack = append(c.undoStack, NewMemento(c.history, c.now()))
	c.history = append(c.history, calc)
	if excess := len(c.history) - c.cfg.MaxHistorySize; c.cfg.MaxHistorySize > 0 && excess > 0 {
		c.history = slices.Delete(c.history, 0, excess)
	}
	c.redoStack = nil

	attrs := metric.WithAttributes(attribute.String("operation", opName))
	opsCounter.Add(ctx, 1, attrs)
	opsHistogram.Record(ctx, elapsed, attrs)
	resultGauge.Record(ctx, result.InexactFloat64(), attrs)
	historyGauge.Record(ctx, int64(len(c.history)))

	span.AddEvent("computation.complete", trace.WithAttributes(
		attribute.String("result", result.String()),
		attribute.Float64("duration_ms", elapsed),
	))

	logger.Debug("calculator operation completed",
		zap.String("operation", opName),
		zap.Stringer("a", a),
		zap.Stringer("b", b),
		zap.Stringer("result", result),
		zap.Int("history_size", len(c.history)),
		zap.Float64("duration_ms", elapsed),
	)

	for _, o := range c.observers {
		if err := o.Update(ctx, calc); err != nil {
			err = calcerr.OperationWrap(err, "observer %T failed", o)
			observability.RecordError(ctx, span, logger, errorCounter, opName, "observer failed", err)
			return decimal.Zero, err
		}
	}

	span.SetStatus(codes.Ok, "")
	return result, nil
}

// minOperandExponent is the smallest decimal exponent an operand may carry.
// Operations rescale both operands to the smaller exponent.
const minOperandExponent = -1000

func (c *Calculator) validateNumber(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, calcerr.Validation("Invalid number format: %s", raw)
	}
	if d.Exponent() < minOperandExponent {
		return decimal.Zero, calcerr.Validation("Value exceeds maximum precision: %s", raw)
	}
	if exceeds(d, c.cfg.MaxInputValue) {
		return decimal.Zero, calcerr.Validation("Value exceeds maximum allowed: %s", compact(c.cfg.MaxInputValue))
	}
	return d, nil
}

// exceeds reports |d| > limit. Orders of magnitude are compared first so
// values far apart never get rescaled to a common exponent.
func exceeds(d, limit decimal.Decimal) bool {
	if d.IsZero() {
		return false
	}
	dMag, limitMag := magnitude(d), magnitude(limit)
	if dMag != limitMag {
		return dMag > limitMag
	}
	return d.Abs().GreaterThan(limit)
}

// magnitude is the decimal exponent of the leading digit.
func magnitude(d decimal.Decimal) int64 {
	return int64(d.NumDigits()) + int64(d.Exponent()) - 1
}

// compact renders long values in exponent form, e.g. 1e999.
func compact(d decimal.Decimal) string {
	if s := d.String(); len(s) <= 20 {
		return s
	}

	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	digits := new(big.Int).Abs(d.Coefficient()).String()
	trimmed := strings.TrimRight(digits, "0")
	exp := int64(d.Exponent()) + int64(len(digits)) - 1

	mantissa := trimmed[:1]
	if len(trimmed) > 1 {
		mantissa += "." + trimmed[1:]
	}
	return sign + mantissa + "e" + strconv.FormatInt(exp, 10)
}

// Undo restores the history saved before the last change. It reports
// false when there is nothing to undo.
func (c *Calculator) Undo() bool {
	if len(c.undoStack) == 0 {
		return false
	}

	m := c.undoStack[len(c.undoStack)-1]
	c.undoStack = c.undoStack[:len(c.undoStack)-1]
	c.redoStack = append(c.redoStack, NewMemento(c.history, c.now()))
	c.history = m.History()

	c.recordRestore("undo")
	return true
}

// Redo reapplies the last undone change. It reports false when there is
// nothing to redo.
func (c *Calculator) Redo() bool {
	if len(c.redoStack) == 0 {
		return false
	}

	m := c.redoStack[len(c.redoStack)-1]
	c.redoStack = c.redoStack[:len(c.redoStack)-1]
	c.undoStack = append(c.undoStack, NewMemento(c.history, c.now()))
	c.history = m.History()

	c.recordRestore("redo")
	return true
}

func (c *Calculator) recordRestore(kind string) {
	ctx := context.Background()
	undoCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	historyGauge.Record(ctx, int64(len(c.history)))
}

// ClearHistory drops the history and both stacks. Nothing is persisted.
func (c *Calculator) ClearHistory() {
	c.history = nil
	c.undoStack = nil
	c.redoStack = nil
	historyGauge.Record(context.Background(), 0)
	observability.Logger.Info("History cleared")
}

// AddObserver registers o. Registering the same observer twice is a no-op.
func (c *Calculator) AddObserver(o Observer) {
	if o == nil || c.hasObserver(o) {
		return
	}
	c.observers = append(c.observers, o)
}

// RemoveObserver unregisters o. Unknown observers are ignored.
func (c *Calculator) RemoveObserver(o Observer) {
	c.observers = slices.DeleteFunc(c.observers, func(existing Observer) bool {
		return sameObserver(existing, o)
	})
}

func (c *Calculator) hasObserver(o Observer) bool {
	return slices.ContainsFunc(c.observers, func(existing Observer) bool {
		return sameObserver(existing, o)
	})
}

// Observers returns the registered observers in notification order.
func (c *Calculator) Observers() []Observer {
	return slices.Clone(c.observers)
}

// History returns a copy of the history, oldest first.
func (c *Calculator) History() []Calculation {
	return slices.Clone(c.history)
}

func (c *Calculator) Len() int { return len(c.history) }

func (c *Calculator) UndoDepth() int { return len(c.undoStack) }

func (c *Calculator) RedoDepth() int { return len(c.redoStack) }

// ShowHistory renders each calculation, oldest first.
func (c *Calculator) ShowHistory() []string {
	lines := make([]string, 0, len(c.history))
	for _, calc := range c.history {
		lines = append(lines, calc.String())
	}
	return lines
}

func (c *Calculator) HistoryRows() []HistoryRow {
	rows := make([]HistoryRow, 0, len(c.history))
	for _, calc := range c.history {
		rows = append(rows, HistoryRow{
			Operation: calc.Operation,
			Operand1:  calc.Operand1.String(),
			Operand2:  calc.Operand2.String(),
			Result:    calc.Result.String(),
			Timestamp: calc.Timestamp,
		})
	}
	return rows
}

// SaveHistory writes the whole history through the store, replacing what
// was saved before. An empty history is saved as a header-only file.
func (c *Calculator) SaveHistory(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "calculator.save_history")
	defer span.End()
	logger := observability.LoggerWithTrace(ctx)

	if c.store == nil {
		err := calcerr.Operation("Failed to save history: no history store configured")
		observability.RecordError(ctx, span, logger, errorCounter, "save_history", "Failed to save history", err)
		return err
	}

	if err := c.store.Save(ctx, c.History()); err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "save_history", "Failed to save history", err)
		return calcerr.OperationWrap(err, "Failed to save history")
	}

	if len(c.history) == 0 {
		logger.Info("Empty history saved", zap.String("history_file", c.cfg.HistoryFile))
	} else {
		logger.Info("History saved",
			zap.Int("calculations", len(c.history)),
			zap.String("history_file", c.cfg.HistoryFile),
		)
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// LoadHistory replaces the history with what the store holds. A missing
// file leaves the history untouched; so does any failure. The loaded list
// is not trimmed to MaxHistorySize, only later appends evict.
func (c *Calculator) LoadHistory(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "calculator.load_history")
	defer span.End()
	logger := observability.LoggerWithTrace(ctx)

	if c.store == nil {
		err := calcerr.Operation("Failed to load history: no history store configured")
		observability.RecordError(ctx, span, logger, errorCounter, "load_history", "Failed to load history", err)
		return err
	}

	history, err := c.store.Load(ctx)
	if errors.Is(err, ErrHistoryNotFound) {
		logger.Info("No history file found", zap.String("history_file", c.cfg.HistoryFile))
		return nil
	}
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "load_history", "Failed to load history", err)
		return calcerr.OperationWrap(err, "Failed to load history")
	}

	c.history = slices.Clone(history)
	historyGauge.Record(ctx, int64(len(c.history)))

	if len(c.history) == 0 {
		logger.Info("Loaded empty history file", zap.String("history_file", c.cfg.HistoryFile))
	} else {
		logger.Info("Loaded calculations from history",
			zap.Int("calculations", len(c.history)),
			zap.String("history_file", c.cfg.HistoryFile),
		)
	}
	span.SetStatus(codes.Ok, "")
	return nil
}
