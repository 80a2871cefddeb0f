// Package operations provides the arithmetic strategies the calculator can
// run, and a registry to build them by key.
package operations

import (
	"math"
	"slices"
	"strings"
	"sync"

	"go-calculator/internal/calcerr"

	"github.com/shopspring/decimal"
)

// Operation is a pure function of two operands with a display name.
type Operation interface {
	Name() string
	Compute(a, b decimal.Decimal) (decimal.Decimal, error)
}

type binary struct {
	name    string
	compute func(a, b decimal.Decimal) (decimal.Decimal, error)
}

func (o binary) Name() string { return o.name }

func (o binary) Compute(a, b decimal.Decimal) (decimal.Decimal, error) {
	return o.compute(a, b)
}

func (o binary) String() string { return o.name }

// Func builds a named operation from compute. It is the usual way to
// supply a constructor to Register.
func Func(name string, compute func(a, b decimal.Decimal) (decimal.Decimal, error)) Operation {
	return binary{name: name, compute: compute}
}

func Addition() Operation {
	return Func("Addition", func(a, b decimal.Decimal) (decimal.Decimal, error) {
		return a.Add(b), nil
	})
}

func Subtraction() Operation {
	return Func("Subtraction", func(a, b decimal.Decimal) (decimal.Decimal, error) {
		return a.Sub(b), nil
	})
}

func Multiplication() Operation {
	return Func("Multiplication", func(a, b decimal.Decimal) (decimal.Decimal, error) {
		return a.Mul(b), nil
	})
}

func Division() Operation {
	return Func("Division", func(a, b decimal.Decimal) (decimal.Decimal, error) {
		if b.IsZero() {
			return decimal.Zero, calcerr.Validation("Division by zero is not allowed")
		}
		return a.Div(b), nil
	})
}

// maxPowerDigits bounds the digits an exact integer power may need.
const maxPowerDigits = 10000

// Power only takes non-negative exponents; fractional ones go through
// float64. Integer powers are exact and refused with "Result too large"
// when they would need more than maxPowerDigits digits.
func Power() Operation {
	return Func("Power", func(a, b decimal.Decimal) (decimal.Decimal, error) {
		if b.IsNegative() {
			return decimal.Zero, calcerr.Validation("Negative exponents not supported")
		}
		if !b.IsInteger() {
			return floatResult(math.Pow(a.InexactFloat64(), b.InexactFloat64()))
		}

		one := decimal.NewFromInt(1)
		switch {
		case b.IsZero():
			return one, nil
		case a.IsZero(), a.Equal(one):
			return a, nil
		case a.Equal(one.Neg()):
			if b.Mod(decimal.NewFromInt(2)).IsZero() {
				return one, nil
			}
			return a, nil
		}

		if !fitsPower(a, b) {
			return decimal.Zero, calcerr.Validation("Result too large")
		}
		return a.Pow(b), nil
	})
}

// fitsPower reports whether a^n stays within maxPowerDigits, counting both
// the coefficient digits and the exponent shift of a.
func fitsPower(a, n decimal.Decimal) bool {
	if n.GreaterThan(decimal.NewFromInt(maxPowerDigits)) {
		return false
	}
	perFactor := int64(a.NumDigits()) + abs64(int64(a.Exponent()))
	return n.IntPart()*perFactor <= maxPowerDigits
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// Root computes the b-th root of a through float64.
func Root() Operation {
	return Func("Root", func(a, b decimal.Decimal) (decimal.Decimal, error) {
		if a.IsNegative() {
			return decimal.Zero, calcerr.Validation("Cannot calculate root of negative number")
		}
		if b.IsZero() {
			return decimal.Zero, calcerr.Validation("Zero root is undefined")
		}
		return floatResult(math.Pow(a.InexactFloat64(), 1/b.InexactFloat64()))
	})
}

func Modulus() Operation {
	return Func("Modulus", func(a, b decimal.Decimal) (decimal.Decimal, error) {
		if b.IsZero() {
			return decimal.Zero, calcerr.Validation("Modulus by zero is not allowed")
		}
		return a.Mod(b), nil
	})
}

// IntegerDivision truncates the quotient toward zero.
func IntegerDivision() Operation {
	return Func("IntegerDivision", func(a, b decimal.Decimal) (decimal.Decimal, error) {
		if b.IsZero() {
			return decimal.Zero, calcerr.Validation("Integer division by zero is not allowed")
		}
		q, _ := a.QuoRem(b, 0)
		return q, nil
	})
}

// Percentage is a as a percentage of b.
func Percentage() Operation {
	return Func("Percentage", func(a, b decimal.Decimal) (decimal.Decimal, error) {
		if b.IsZero() {
			return decimal.Zero, calcerr.Validation("Cannot calculate percentage with zero denominator")
		}
		return a.Div(b).Mul(decimal.NewFromInt(100)), nil
	})
}

func AbsoluteDifference() Operation {
	return Func("AbsoluteDifference", func(a, b decimal.Decimal) (decimal.Decimal, error) {
		return a.Sub(b).Abs(), nil
	})
}

func floatResult(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, calcerr.Validation("Result is not a finite number")
	}
	return decimal.NewFromFloat(f), nil
}

// Registry maps command keys to operation constructors, keeping
// registration order for listings.
type Registry struct {
	mu    sync.RWMutex
	ctors map[string]func() Operation
	keys  []string
	help  map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		ctors: make(map[string]func() Operation),
		help:  make(map[string]string),
	}
}

// Register adds or replaces the operation under key. Keys are
// case-insensitive.
func (r *Registry) Register(key, description string, ctor func() Operation) {
	key = strings.ToLower(strings.TrimSpace(key))

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.ctors[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.ctors[key] = ctor
	r.help[key] = description
}

// Create builds the operation registered under key.
func (r *Registry) Create(key string) (Operation, error) {
	r.mu.RLock()
	ctor, ok := r.ctors[strings.ToLower(strings.TrimSpace(key))]
	r.mu.RUnlock()

	if !ok {
		return nil, calcerr.Validation("Unknown operation: %s", key)
	}
	return ctor(), nil
}

func (r *Registry) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ctors[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

// Keys lists registered keys in registration order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.keys)
}

func (r *Registry) Description(key string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.help[strings.ToLower(key)]
}

var defaultRegistry = Default()

// Register adds an operation to the package registry.
func Register(key string, ctor func() Operation) {
	defaultRegistry.Register(key, "", ctor)
}

// New builds the operation registered under key in the package registry.
func New(key string) (Operation, error) {
	return defaultRegistry.Create(key)
}

// Keys lists the package registry keys in registration order.
func Keys() []string {
	return defaultRegistry.Keys()
}

// Default returns a fresh registry holding the built-in operations.
func Default() *Registry {
	r := NewRegistry()
	r.Register("add", "Add two numbers", Addition)
	r.Register("subtract", "Subtract the second number from the first", Subtraction)
	r.Register("multiply", "Multiply two numbers", Multiplication)
	r.Register("divide", "Divide the first number by the second", Division)
	r.Register("power", "Raise the first number to the power of the second", Power)
	r.Register("root", "Take the nth root of the first number", Root)
	r.Register("modulus", "Remainder of the first number divided by the second", Modulus)
	r.Register("int_divide", "Integer quotient of the first number by the second", IntegerDivision)
	r.Register("percent", "First number as a percentage of the second", Percentage)
	r.Register("abs_diff", "Absolute difference between two numbers", AbsoluteDifference)
	return r
}
