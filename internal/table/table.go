// Package table reads and writes the indexed tables behind plot and metric options.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// DefaultIndexName is used when a table's index has no name.
const DefaultIndexName = "index"

// Table is a row-indexed table of string cells.
type Table struct {
	IndexName string
	Columns   []string
	Index     []string
	Rows      [][]string
}

// New returns an empty table with the given value columns.
func New(indexName string, columns ...string) *Table {
	return &Table{IndexName: indexName, Columns: append([]string(nil), columns...)}
}

// Append adds a row. Values are formatted with strconv for numbers.
func (t *Table) Append(index any, values ...any) error {
	if len(values) != len(t.Columns) {
		return fmt.Errorf("row has %d values, table has %d columns", len(values), len(t.Columns))
	}
	row := make([]string, len(values))
	for i, v := range values {
		row[i] = formatCell(v)
	}
	t.Index = append(t.Index, formatCell(index))
	t.Rows = append(t.Rows, row)
	return nil
}

// Float returns the numeric value at row, column.
func (t *Table) Float(row int, column string) (float64, error) {
	col := t.column(column)
	if col < 0 {
		return 0, fmt.Errorf("unknown column %q", column)
	}
	if row < 0 || row >= len(t.Rows) {
		return 0, fmt.Errorf("row %d out of range", row)
	}
	return strconv.ParseFloat(t.Rows[row][col], 64)
}

func (t *Table) column(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

func formatCell(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

// Write stores t as CSV at path. An unnamed index is written as "index".
func Write(path string, t *Table) error {
	if t == nil {
		return errors.New("nil table")
	}
	if len(t.Index) != len(t.Rows) {
		return fmt.Errorf("index has %d entries for %d rows", len(t.Index), len(t.Rows))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	indexName := t.IndexName
	if indexName == "" {
		indexName = DefaultIndexName
	}
	if err := w.Write(append([]string{indexName}, t.Columns...)); err != nil {
		return err
	}
	for i, row := range t.Rows {
		if err := w.Write(append([]string{t.Index[i]}, row...)); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// Read loads a CSV written by Write; the first column becomes the index.
func Read(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid CSV in %s: %v", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty CSV in %s", path)
	}
	header := records[0]
	t := &Table{IndexName: header[0], Columns: append([]string(nil), header[1:]...)}
	if t.IndexName == "" {
		t.IndexName = DefaultIndexName
	}
	for _, rec := range records[1:] {
		t.Index = append(t.Index, rec[0])
		t.Rows = append(t.Rows, append([]string(nil), rec[1:]...))
	}
	return t, nil
}
