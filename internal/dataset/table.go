// Package dataset loads tabular student records from CSV or XLSX sources.
//
// A Table keeps every cell as the raw string read from the source; column
// roles and numeric parsing are decided later by the preprocessing pipeline.
package dataset

import (
	"fmt"
)

// Table is a header plus rows of raw string cells. Every row has exactly
// len(Header) cells.
type Table struct {
	Header []string
	Rows   [][]string

	index map[string]int
}

// NewTable builds a table, padding short rows with empty cells. Rows longer
// than the header are rejected.
func NewTable(header []string, rows [][]string) (*Table, error) {
	t := &Table{
		Header: header,
		Rows:   make([][]string, 0, len(rows)),
	}

	for i, row := range rows {
		if len(row) > len(header) {
			return nil, fmt.Errorf("row %d has %d cells, header has %d", i+1, len(row), len(header))
		}
		if len(row) < len(header) {
			padded := make([]string, len(header))
			copy(padded, row)
			row = padded
		}
		t.Rows = append(t.Rows, row)
	}

	t.buildIndex()
	return t, nil
}

func (t *Table) buildIndex() {
	t.index = make(map[string]int, len(t.Header))
	for i, name := range t.Header {
		// first occurrence wins for duplicate names
		if _, exists := t.index[name]; !exists {
			t.index[name] = i
		}
	}
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of a named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	if t.index == nil {
		t.buildIndex()
	}
	i, ok := t.index[name]
	return i, ok
}

// HasColumn reports whether the table carries the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.ColumnIndex(name)
	return ok
}

// Column returns a copy of every cell in the named column.
func (t *Table) Column(name string) ([]string, bool) {
	i, ok := t.ColumnIndex(name)
	if !ok {
		return nil, false
	}
	values := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		values[r] = row[i]
	}
	return values, true
}

// Record returns one row as a column name to value map.
func (t *Table) Record(row int) map[string]string {
	if row < 0 || row >= len(t.Rows) {
		return nil
	}
	record := make(map[string]string, len(t.Header))
	for i, name := range t.Header {
		if _, exists := record[name]; !exists {
			record[name] = t.Rows[row][i]
		}
	}
	return record
}

// Subset returns a table holding the given rows in the given order. Row
// slices are shared with the receiver.
func (t *Table) Subset(rows []int) *Table {
	sub := &Table{
		Header: t.Header,
		Rows:   make([][]string, len(rows)),
	}
	for i, r := range rows {
		sub.Rows[i] = t.Rows[r]
	}
	sub.buildIndex()
	return sub
}
