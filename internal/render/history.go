// Package render formats saved history for the terminal.
package render

import (
	"fmt"
	"strconv"

	"go-calculator/internal/calculator"

	"github.com/charmbracelet/lipgloss"
)

type Options struct {
	// Limit keeps only the newest rows when positive.
	Limit int

	// Source is shown under the title, usually the history file path.
	Source string
}

// History renders rows oldest first, one calculation per line with the
// operation column padded to the widest name.
func History(rows []calculator.HistoryRow, opts Options) string {
	s := newStyles()

	if opts.Limit > 0 && len(rows) > opts.Limit {
		rows = rows[len(rows)-opts.Limit:]
	}

	lines := []string{s.title.Render("Calculation History")}
	if opts.Source != "" {
		lines = append(lines, s.header.Render(fmt.Sprintf("file: %s", opts.Source)))
	}
	lines = append(lines, s.header.Render(fmt.Sprintf("calculations: %d", len(rows))))

	if len(rows) == 0 {
		lines = append(lines, s.empty.Render("No calculations in history"))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	indexWidth := len(strconv.Itoa(len(rows))) + 1
	opWidth := 0
	for _, row := range rows {
		opWidth = max(opWidth, lipgloss.Width(row.Operation))
	}

	for i, row := range rows {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top,
			s.index.Width(indexWidth).Render(strconv.Itoa(i+1)+"."),
			" ",
			s.operation.Width(opWidth).Render(row.Operation),
			" ",
			fmt.Sprintf("(%s, %s) = ", row.Operand1, row.Operand2),
			s.result.Render(row.Result),
			"  ",
			s.timestamp.Render(calculator.FormatTimestamp(row.Timestamp)),
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
