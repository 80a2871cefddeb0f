// Package storage persists calculator history as CSV.
package storage

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"go-calculator/internal/calculator"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

const (
	historyDirMode  = 0o755
	historyFileMode = 0o644
	tempFilePattern = ".history-*.csv.tmp"
)

// CSVStore keeps the whole history in one CSV file with a header row.
// Every Save rewrites the file.
type CSVStore struct {
	path string
	enc  encoding.Encoding
}

// NewCSVStore returns a store for path. encodingName is a WHATWG label
// such as "utf-8" or "windows-1252".
func NewCSVStore(path, encodingName string) (*CSVStore, error) {
	enc, err := htmlindex.Get(encodingName)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", encodingName, err)
	}
	return &CSVStore{path: path, enc: enc}, nil
}

func (s *CSVStore) Path() string { return s.path }

// Save writes the header and one row per calculation to a temp file in the
// target directory, then renames it over the history file.
func (s *CSVStore) Save(ctx context.Context, history []calculator.Calculation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, historyDirMode); err != nil {
		return fmt.Errorf("create history directory: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp history file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if err := s.write(tempFile, history); err != nil {
		_ = tempFile.Close()
		return err
	}

	if err := tempFile.Chmod(historyFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp history file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp history file: %w", err)
	}

	if err := os.Rename(tempName, s.path); err != nil {
		return fmt.Errorf("replace history file: %w", err)
	}

	cleanup = false
	return nil
}

func (s *CSVStore) write(w io.Writer, history []calculator.Calculation) error {
	buf := bufio.NewWriter(s.enc.NewEncoder().Writer(w))
	cw := csv.NewWriter(buf)

	if err := cw.Write(calculator.Fields); err != nil {
		return fmt.Errorf("write history header: %w", err)
	}

	row := make([]string, len(calculator.Fields))
	for _, calc := range history {
		m := calc.ToMap()
		for i, field := range calculator.Fields {
			row[i] = m[field]
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write history row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

// Load reads the history file. A missing file yields
// calculator.ErrHistoryNotFound; an empty or header-only file yields an
// empty history.
func (s *CSVStore) Load(ctx context.Context) ([]calculator.Calculation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", calculator.ErrHistoryNotFound, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("open history file: %w", err)
	}
	defer f.Close()

	return s.read(f)
}

func (s *CSVStore) read(r io.Reader) ([]calculator.Calculation, error) {
	cr := csv.NewReader(s.enc.NewDecoder().Reader(r))
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []calculator.Calculation{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history header: %w", err)
	}

	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	history := []calculator.Calculation{}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read history row: %w", err)
		}

		fields := make(map[string]string, len(index))
		for field, i := range index {
			fields[field] = record[i]
		}

		calc, err := calculator.CalculationFromMap(fields)
		if err != nil {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("history line %d: %w", line, err)
		}
		history = append(history, calc)
	}

	return history, nil
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(calculator.Fields))
	for _, field := range calculator.Fields {
		i := slices.Index(header, field)
		if i < 0 {
			return nil, fmt.Errorf("history header missing column %q", field)
		}
		index[field] = i
	}
	return index, nil
}
