// Package repl runs the interactive calculator session on a pair of
// streams.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go-calculator/internal/calcerr"
	"go-calculator/internal/calculator"
	"go-calculator/internal/observability"
	"go-calculator/internal/operations"

	"go.uber.org/zap"
)

const cancelWord = "cancel"

// errInputClosed ends the session when the input runs out mid-command.
var errInputClosed = errors.New("input closed")

type Option func(*REPL)

// WithOperations replaces the built-in operation registry.
func WithOperations(ops *operations.Registry) Option {
	return func(r *REPL) { r.ops = ops }
}

// OnHistoryChange registers fn to run after commands that change history
// without a calculation: clear, undo, redo and load.
func OnHistoryChange(fn func()) Option {
	return func(r *REPL) { r.onChange = append(r.onChange, fn) }
}

type REPL struct {
	calc     *calculator.Calculator
	ops      *operations.Registry
	in       *bufio.Scanner
	out      io.Writer
	onChange []func()
}

func New(calc *calculator.Calculator, in io.Reader, out io.Writer, opts ...Option) *REPL {
	r := &REPL{
		calc: calc,
		ops:  operations.Default(),
		in:   bufio.NewScanner(in),
		out:  out,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reads commands until exit or end of input. It only returns an error
// when reading the input fails.
func (r *REPL) Run(ctx context.Context) error {
	sessionID := observability.NewID()
	ctx = observability.ContextWithSessionID(ctx, sessionID)
	logger := observability.LoggerWithTrace(ctx)
	logger.Info("Calculator session started")
	defer logger.Info("Calculator session ended")

	r.println("Calculator started. Type 'help' for commands.")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := r.prompt("\nEnter command: ")
		if errors.Is(err, errInputClosed) {
			r.println("\nInput terminated. Exiting...")
			return nil
		}
		if err != nil {
			return err
		}

		command := strings.ToLower(strings.TrimSpace(line))
		if command == "" {
			continue
		}

		done, err := r.dispatch(ctx, command)
		if errors.Is(err, errInputClosed) {
			r.println("\nInput terminated. Exiting...")
			return nil
		}
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (r *REPL) dispatch(ctx context.Context, command string) (bool, error) {
	switch command {
	case "help":
		r.help()
	case "exit":
		if err := r.calc.SaveHistory(ctx); err != nil {
			r.printf("Warning: Could not save history: %s\n", err)
		} else {
			r.println("History saved successfully.")
		}
		r.println("Goodbye!")
		return true, nil
	case "history":
		r.history()
	case "clear":
		r.calc.ClearHistory()
		r.changed()
		r.println("History cleared")
	case "undo":
		if r.calc.Undo() {
			r.println("Operation undone")
		} else {
			r.println("Nothing to undo")
		}
		r.changed()
	case "redo":
		if r.calc.Redo() {
			r.println("Operation redone")
		} else {
			r.println("Nothing to redo")
		}
		r.changed()
	case "save":
		if err := r.calc.SaveHistory(ctx); err != nil {
			r.printf("Error saving history: %s\n", err)
		} else {
			r.println("History saved successfully")
		}
	case "load":
		if err := r.calc.LoadHistory(ctx); err != nil {
			r.printf("Error loading history: %s\n", err)
		} else {
			r.changed()
			r.println("History loaded successfully")
		}
	default:
		if !r.ops.Has(command) {
			r.printf("Unknown command: '%s'. Type 'help' for available commands.\n", command)
			return false, nil
		}
		return false, r.calculate(ctx, command)
	}
	return false, nil
}

func (r *REPL) calculate(ctx context.Context, key string) error {
	r.println("\nEnter numbers (or 'cancel' to abort):")

	a, err := r.prompt("First number: ")
	if err != nil {
		return err
	}
	if isCancel(a) {
		r.println("Operation cancelled")
		return nil
	}

	b, err := r.prompt("Second number: ")
	if err != nil {
		return err
	}
	if isCancel(b) {
		r.println("Operation cancelled")
		return nil
	}

	op, err := r.ops.Create(key)
	if err != nil {
		r.report(ctx, err)
		return nil
	}
	r.calc.SetOperation(op)

	result, err := r.calc.PerformOperation(ctx, a, b)
	if err != nil {
		r.report(ctx, err)
		return nil
	}

	precision := int32(r.calc.Config().Precision)
	r.printf("\nResult: %s\n", result.Round(precision).String())
	return nil
}

func (r *REPL) report(ctx context.Context, err error) {
	if errors.Is(err, calcerr.ErrCalculator) {
		r.printf("Error: %s\n", err)
		return
	}
	observability.LoggerWithTrace(ctx).Error("unexpected error", zap.Error(err))
	r.printf("Unexpected error: %s\n", err)
}

func (r *REPL) help() {
	r.println("\nAvailable commands:")
	for _, key := range r.ops.Keys() {
		if desc := r.ops.Description(key); desc != "" {
			r.printf("  %s - %s\n", key, desc)
		} else {
			r.printf("  %s\n", key)
		}
	}
	r.println("  history - Show calculation history")
	r.println("  clear - Clear calculation history")
	r.println("  undo - Undo the last calculation")
	r.println("  redo - Redo the last undone calculation")
	r.println("  save - Save calculation history to file")
	r.println("  load - Load calculation history from file")
	r.println("  exit - Exit the calculator")
}

func (r *REPL) history() {
	lines := r.calc.ShowHistory()
	if len(lines) == 0 {
		r.println("No calculations in history")
		return
	}
	r.println("\nCalculation History:")
	for i, line := range lines {
		r.printf("%d. %s\n", i+1, line)
	}
}

func (r *REPL) changed() {
	for _, fn := range r.onChange {
		fn()
	}
}

func (r *REPL) prompt(label string) (string, error) {
	fmt.Fprint(r.out, label)
	if !r.in.Scan() {
		if err := r.in.Err(); err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return "", errInputClosed
	}
	return r.in.Text(), nil
}

func (r *REPL) println(line string) {
	fmt.Fprintln(r.out, line)
}

func (r *REPL) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

func isCancel(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), cancelWord)
}
