// Package calcerr defines the calculator's error taxonomy.
//
// Every error produced here matches ErrCalculator via errors.Is, so callers
// can separate calculator failures (shown to the user) from unexpected ones.
package calcerr

import (
	"errors"
	"fmt"
)

// ErrCalculator is the root of every calculator error.
var ErrCalculator = errors.New("calculator error")

// ValidationError reports bad or out-of-range input, including domain
// violations raised by an operation such as division by zero.
type ValidationError struct {
	Msg string
	Err error
}

func (e *ValidationError) Error() string { return message(e.Msg, e.Err) }
func (e *ValidationError) Unwrap() error { return e.Err }
func (e *ValidationError) Is(target error) bool {
	return target == ErrCalculator
}

// OperationError reports a failed engine operation: no operation selected,
// a persistence failure, or a failing observer.
type OperationError struct {
	Msg string
	Err error
}

func (e *OperationError) Error() string { return message(e.Msg, e.Err) }
func (e *OperationError) Unwrap() error { return e.Err }
func (e *OperationError) Is(target error) bool {
	return target == ErrCalculator
}

// ConfigurationError reports invalid settings. Only configuration
// validation returns it.
type ConfigurationError struct {
	Msg string
	Err error
}

func (e *ConfigurationError) Error() string { return message(e.Msg, e.Err) }
func (e *ConfigurationError) Unwrap() error { return e.Err }
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrCalculator
}

func Validation(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func Operation(format string, args ...any) error {
	return &OperationError{Msg: fmt.Sprintf(format, args...)}
}

// OperationWrap builds an OperationError whose message ends with the cause,
// e.g. "Failed to save history: permission denied".
func OperationWrap(err error, format string, args ...any) error {
	return &OperationError{Msg: fmt.Sprintf(format, args...), Err: err}
}

func Configuration(format string, args ...any) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

func message(msg string, err error) string {
	if err == nil {
		return msg
	}
	if msg == "" {
		return err.Error()
	}
	return msg + ": " + err.Error()
}
