package calculator

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go-calculator/internal/calcerr"

	"github.com/shopspring/decimal"
)

func TestCalculationString(t *testing.T) {
	calc := NewCalculation("Multiplication",
		decimal.NewFromInt(5), decimal.RequireFromString("6.5"), decimal.RequireFromString("32.5"), time.Now())

	if got, want := calc.String(), "Multiplication(5, 6.5) = 32.5"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestNewCalculationTruncatesToMicroseconds(t *testing.T) {
	ts := time.Date(2023, 5, 10, 15, 30, 0, 123456789, time.Local)
	calc := NewCalculation("Addition", decimal.Zero, decimal.Zero, decimal.Zero, ts)

	if got := calc.Timestamp.Nanosecond(); got != 123456000 {
		t.Fatalf("expected 123456000ns, got %d", got)
	}
}

func TestCalculationMapRoundTrip(t *testing.T) {
	ts := time.Date(2023, 5, 10, 15, 30, 0, 250000000, time.Local)
	calc := NewCalculation("Division",
		decimal.RequireFromString("1.000000000000000000001"),
		decimal.RequireFromString("-3"),
		decimal.RequireFromString("-0.333333333333333333333"),
		ts)

	fields := calc.ToMap()
	if fields[FieldTimestamp] != "2023-05-10T15:30:00.25" {
		t.Fatalf("unexpected timestamp field %q", fields[FieldTimestamp])
	}
	if fields[FieldOperand1] != "1.000000000000000000001" {
		t.Fatalf("unexpected operand1 field %q", fields[FieldOperand1])
	}

	got, err := CalculationFromMap(fields)
	if err != nil {
		t.Fatalf("CalculationFromMap: %v", err)
	}
	if !got.Equal(calc) || !got.Timestamp.Equal(calc.Timestamp) {
		t.Fatalf("expected %v at %v, got %v at %v", calc, calc.Timestamp, got, got.Timestamp)
	}
}

func TestCalculationFromMapRejectsBadFields(t *testing.T) {
	valid := map[string]string{
		FieldOperation: "Addition",
		FieldOperand1:  "2",
		FieldOperand2:  "3",
		FieldResult:    "5",
		FieldTimestamp: "2023-05-10T15:30:00",
	}

	tests := []struct {
		name  string
		key   string
		value string
		drop  bool
	}{
		{name: "missing operation", key: FieldOperation, drop: true},
		{name: "bad operand", key: FieldOperand1, value: "two"},
		{name: "bad result", key: FieldResult, value: "1,5"},
		{name: "missing timestamp", key: FieldTimestamp, drop: true},
		{name: "bad timestamp", key: FieldTimestamp, value: "yesterday"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fields := make(map[string]string, len(valid))
			for k, v := range valid {
				fields[k] = v
			}
			if tc.drop {
				delete(fields, tc.key)
			} else {
				fields[tc.key] = tc.value
			}

			_, err := CalculationFromMap(fields)

			var vErr *calcerr.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestParseTimestampAcceptsRFC3339(t *testing.T) {
	got, err := ParseTimestamp("2024-02-03T04:05:06Z")
	if err != nil {
		t.Fatalf("ParseTimestamp: %v", err)
	}
	if !got.Equal(time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)) {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestMementoIsIsolatedFromLiveHistory(t *testing.T) {
	history := []Calculation{
		NewCalculation("Addition", decimal.NewFromInt(1), decimal.NewFromInt(1), decimal.NewFromInt(2), time.Now()),
	}

	m := NewMemento(history, time.Now())
	history[0].Operation = "Tampered"

	snapshot := m.History()
	if m.Len() != 1 || snapshot[0].Operation != "Addition" {
		t.Fatalf("expected snapshot untouched, got %v", snapshot)
	}

	snapshot[0].Operation = "Again"
	if m.History()[0].Operation != "Addition" {
		t.Fatal("expected History to hand out copies")
	}
}

func TestMementoMapRoundTrip(t *testing.T) {
	ts := time.Date(2025, 1, 1, 9, 0, 0, 0, time.Local)
	m := NewMemento([]Calculation{
		NewCalculation("Addition", decimal.NewFromInt(2), decimal.NewFromInt(3), decimal.NewFromInt(5), ts),
		NewCalculation("Power", decimal.NewFromInt(2), decimal.NewFromInt(10), decimal.NewFromInt(1024), ts.Add(time.Minute)),
	}, ts.Add(time.Hour))

	got, err := MementoFromMap(m.ToMap())
	if err != nil {
		t.Fatalf("MementoFromMap: %v", err)
	}
	assertMementoEqual(t, m, got)
}

func TestMementoFromDecodedJSON(t *testing.T) {
	ts := time.Date(2025, 1, 1, 9, 0, 0, 0, time.Local)
	m := NewMemento([]Calculation{
		NewCalculation("Subtraction", decimal.NewFromInt(2), decimal.NewFromInt(3), decimal.NewFromInt(-1), ts),
	}, ts)

	data, err := json.Marshal(m.ToMap())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	got, err := MementoFromMap(decoded)
	if err != nil {
		t.Fatalf("MementoFromMap: %v", err)
	}
	assertMementoEqual(t, m, got)
}

func TestMementoFromMapRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
	}{
		{name: "missing timestamp", data: map[string]any{"history": []any{}}},
		{name: "bad history type", data: map[string]any{"history": 3, "timestamp": "2025-01-01T00:00:00"}},
		{name: "bad entry", data: map[string]any{"history": []any{"nope"}, "timestamp": "2025-01-01T00:00:00"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := MementoFromMap(tc.data); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func assertMementoEqual(t *testing.T, want, got Memento) {
	t.Helper()
	if !got.Timestamp().Equal(want.Timestamp()) {
		t.Fatalf("expected timestamp %v, got %v", want.Timestamp(), got.Timestamp())
	}
	wantHistory, gotHistory := want.History(), got.History()
	if len(gotHistory) != len(wantHistory) {
		t.Fatalf("expected %d calculations, got %d", len(wantHistory), len(gotHistory))
	}
	for i := range wantHistory {
		if !calcEqualWithTime(gotHistory[i], wantHistory[i]) {
			t.Fatalf("entry %d: expected %v, got %v", i, wantHistory[i], gotHistory[i])
		}
	}
}
