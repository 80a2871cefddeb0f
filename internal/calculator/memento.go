package calculator

import (
	"fmt"
	"slices"
	"time"
)

// Memento is a snapshot of the history taken for undo/redo. It owns its
// own copy of the calculations, so later changes to the live history never
// reach it.
type Memento struct {
	history   []Calculation
	timestamp time.Time
}

func NewMemento(history []Calculation, ts time.Time) Memento {
	return Memento{
		history:   slices.Clone(history),
		timestamp: ts,
	}
}

// History returns a copy of the snapshot.
func (m Memento) History() []Calculation {
	return slices.Clone(m.history)
}

func (m Memento) Timestamp() time.Time { return m.timestamp }

func (m Memento) Len() int { return len(m.history) }

// ToMap serializes the memento as {"history": [...], "timestamp": "..."}.
func (m Memento) ToMap() map[string]any {
	history := make([]map[string]string, 0, len(m.history))
	for _, calc := range m.history {
		history = append(history, calc.ToMap())
	}
	return map[string]any{
		"history":   history,
		"timestamp": FormatTimestamp(m.timestamp),
	}
}

// MementoFromMap is the inverse of ToMap. It also accepts the shapes a
// generic JSON decoder produces ([]any of map[string]any).
func MementoFromMap(data map[string]any) (Memento, error) {
	rawTS, ok := data["timestamp"].(string)
	if !ok {
		return Memento{}, fmt.Errorf("memento timestamp: expected string, got %T", data["timestamp"])
	}
	ts, err := ParseTimestamp(rawTS)
	if err != nil {
		return Memento{}, fmt.Errorf("memento timestamp: %w", err)
	}

	var entries []map[string]string
	switch raw := data["history"].(type) {
	case []map[string]string:
		entries = raw
	case []any:
		for i, item := range raw {
			fields, err := stringFields(item)
			if err != nil {
				return Memento{}, fmt.Errorf("memento history[%d]: %w", i, err)
			}
			entries = append(entries, fields)
		}
	case nil:
	default:
		return Memento{}, fmt.Errorf("memento history: unexpected type %T", raw)
	}

	history := make([]Calculation, 0, len(entries))
	for i, entry := range entries {
		calc, err := CalculationFromMap(entry)
		if err != nil {
			return Memento{}, fmt.Errorf("memento history[%d]: %w", i, err)
		}
		history = append(history, calc)
	}

	return Memento{history: history, timestamp: ts}, nil
}

func stringFields(item any) (map[string]string, error) {
	switch v := item.(type) {
	case map[string]string:
		return v, nil
	case map[string]any:
		out := make(map[string]string, len(v))
		for key, value := range v {
			s, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("field %s: expected string, got %T", key, value)
			}
			out[key] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected object, got %T", item)
	}
}
