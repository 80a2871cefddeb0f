package calculator

import (
	"fmt"
	"strings"
	"time"

	"go-calculator/internal/calcerr"

	"github.com/shopspring/decimal"
)

// TimestampLayout is ISO-8601 without a zone, with up to microsecond
// fractions: YYYY-MM-DDTHH:MM:SS[.ffffff].
const TimestampLayout = "2006-01-02T15:04:05.999999"

// Column names of a serialized Calculation, in file order.
const (
	FieldOperation = "operation"
	FieldOperand1  = "operand1"
	FieldOperand2  = "operand2"
	FieldResult    = "result"
	FieldTimestamp = "timestamp"
)

// Fields lists the serialized columns in file order.
var Fields = []string{FieldOperation, FieldOperand1, FieldOperand2, FieldResult, FieldTimestamp}

// Calculation is one performed operation and its result. It is a value:
// copies never share mutable state, since decimal.Decimal is immutable.
type Calculation struct {
	Operation string
	Operand1  decimal.Decimal
	Operand2  decimal.Decimal
	Result    decimal.Decimal
	Timestamp time.Time
}

// NewCalculation builds a Calculation stamped at ts. The timestamp is cut
// to microseconds so it survives a round trip through TimestampLayout.
func NewCalculation(operation string, operand1, operand2, result decimal.Decimal, ts time.Time) Calculation {
	return Calculation{
		Operation: operation,
		Operand1:  operand1,
		Operand2:  operand2,
		Result:    result,
		Timestamp: ts.Round(0).Truncate(time.Microsecond),
	}
}

// String renders "<operation>(<operand1>, <operand2>) = <result>".
func (c Calculation) String() string {
	return fmt.Sprintf("%s(%s, %s) = %s", c.Operation, c.Operand1, c.Operand2, c.Result)
}

// Equal reports whether both calculations describe the same operation,
// operands and result. Timestamps are ignored.
func (c Calculation) Equal(other Calculation) bool {
	return c.Operation == other.Operation &&
		c.Operand1.Equal(other.Operand1) &&
		c.Operand2.Equal(other.Operand2) &&
		c.Result.Equal(other.Result)
}

// ToMap flattens c into string fields keyed by Fields.
func (c Calculation) ToMap() map[string]string {
	return map[string]string{
		FieldOperation: c.Operation,
		FieldOperand1:  c.Operand1.String(),
		FieldOperand2:  c.Operand2.String(),
		FieldResult:    c.Result.String(),
		FieldTimestamp: FormatTimestamp(c.Timestamp),
	}
}

// CalculationFromMap is the inverse of ToMap. Any missing or unparsable
// field is a ValidationError.
func CalculationFromMap(m map[string]string) (Calculation, error) {
	op, ok := m[FieldOperation]
	if !ok || strings.TrimSpace(op) == "" {
		return Calculation{}, calcerr.Validation("missing %s", FieldOperation)
	}

	var values [3]decimal.Decimal
	for i, key := range []string{FieldOperand1, FieldOperand2, FieldResult} {
		raw, ok := m[key]
		if !ok {
			return Calculation{}, calcerr.Validation("missing %s", key)
		}
		d, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return Calculation{}, &calcerr.ValidationError{Msg: fmt.Sprintf("invalid %s %q", key, raw), Err: err}
		}
		values[i] = d
	}

	rawTS, ok := m[FieldTimestamp]
	if !ok {
		return Calculation{}, calcerr.Validation("missing %s", FieldTimestamp)
	}
	ts, err := ParseTimestamp(rawTS)
	if err != nil {
		return Calculation{}, &calcerr.ValidationError{Msg: fmt.Sprintf("invalid %s %q", FieldTimestamp, rawTS), Err: err}
	}

	return Calculation{
		Operation: op,
		Operand1:  values[0],
		Operand2:  values[1],
		Result:    values[2],
		Timestamp: ts,
	}, nil
}

// FormatTimestamp renders ts in local time using TimestampLayout.
func FormatTimestamp(ts time.Time) string {
	return ts.Local().Format(TimestampLayout)
}

// ParseTimestamp accepts TimestampLayout (read as local time) and RFC 3339.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	ts, err := time.ParseInLocation(TimestampLayout, raw, time.Local)
	if err == nil {
		return ts, nil
	}
	if ts, rfcErr := time.Parse(time.RFC3339Nano, raw); rfcErr == nil {
		return ts, nil
	}
	return time.Time{}, err
}
