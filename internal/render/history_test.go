package render

import (
	"strings"
	"testing"
	"time"

	"go-calculator/internal/calculator"

	"github.com/stretchr/testify/assert"
)

func sampleRows() []calculator.HistoryRow {
	ts := time.Date(2024, 6, 1, 8, 0, 0, 0, time.Local)
	return []calculator.HistoryRow{
		{Operation: "Addition", Operand1: "2", Operand2: "3", Result: "5", Timestamp: ts},
		{Operation: "Power", Operand1: "2", Operand2: "10", Result: "1024", Timestamp: ts.Add(time.Minute)},
		{Operation: "Division", Operand1: "10", Operand2: "4", Result: "2.5", Timestamp: ts.Add(2 * time.Minute)},
	}
}

func TestHistoryRendersRows(t *testing.T) {
	output := History(sampleRows(), Options{Source: "history/calculator_history.csv"})

	assert.Contains(t, output, "Calculation History")
	assert.Contains(t, output, "file: history/calculator_history.csv")
	assert.Contains(t, output, "calculations: 3")
	assert.Contains(t, output, "(2, 10) = 1024")
	assert.Contains(t, output, "2024-06-01T08:02:00")
	assert.Less(t, strings.Index(output, "Addition"), strings.Index(output, "Division"))
}

func TestHistoryLimitKeepsNewest(t *testing.T) {
	output := History(sampleRows(), Options{Limit: 2})

	assert.Contains(t, output, "calculations: 2")
	assert.NotContains(t, output, "Addition")
	assert.Contains(t, output, "Power")
	assert.Contains(t, output, "Division")
}

func TestHistoryEmpty(t *testing.T) {
	output := History(nil, Options{})

	assert.Contains(t, output, "calculations: 0")
	assert.Contains(t, output, "No calculations in history")
}
