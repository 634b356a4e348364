// Package table provides the in-memory tabular model used by the pipeline,
// along with the pure operations that run over it: cleaning, projection and
// summary extraction.
//
// Every exported operation returns a new *Table. Inputs are never mutated, so
// a caller may re-run any stage against the same table as often as it likes.
package table

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Kind identifies the type of a single cell.
type Kind uint8

const (
	KindMissing Kind = iota
	KindNumber
	KindText
)

// String returns the lowercase kind name used in JSON and templates.
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	default:
		return "missing"
	}
}

// Value is one cell. The zero Value is missing.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
}

// Missing returns the missing-marker value.
func Missing() Value { return Value{} }

// Number returns a numeric value. NaN is stored as missing.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{Kind: KindNumber, Num: f}
}

// Text returns a text value. The empty string is stored as missing.
func Text(s string) Value {
	if s == "" {
		return Value{}
	}
	return Value{Kind: KindText, Str: s}
}

// IsMissing reports whether v is the missing marker.
func (v Value) IsMissing() bool { return v.Kind == KindMissing }

// Equal reports whether two values are identical. Missing equals missing.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNumber:
		return v.Num == o.Num
	case KindText:
		return v.Str == o.Str
	default:
		return true
	}
}

// String formats the value for display and serialization.
// Numbers use the shortest representation that parses back to the same float.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return FormatNumber(v.Num)
	case KindText:
		return v.Str
	default:
		return ""
	}
}

// FormatNumber formats f without exponent, using the fewest digits that
// round-trip through strconv.ParseFloat.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Column is a named sequence of values.
type Column struct {
	Name   string
	Values []Value
}

// Kind returns KindNumber when every non-missing value is a number (including
// an all-missing column) and KindText otherwise.
func (c Column) Kind() Kind {
	for _, v := range c.Values {
		if v.Kind == KindText {
			return KindText
		}
	}
	return KindNumber
}

// IsNumeric reports whether the column holds only numbers and missing values.
func (c Column) IsNumeric() bool { return c.Kind() == KindNumber }

// MissingCount returns the number of missing cells.
func (c Column) MissingCount() int {
	n := 0
	for _, v := range c.Values {
		if v.IsMissing() {
			n++
		}
	}
	return n
}

func (c Column) clone() Column {
	vals := make([]Value, len(c.Values))
	copy(vals, c.Values)
	return Column{Name: c.Name, Values: vals}
}

var (
	// ErrDuplicateColumn is returned when two columns share a name.
	ErrDuplicateColumn = errors.New("duplicate column name")

	// ErrColumnLength is returned when columns disagree on row count.
	ErrColumnLength = errors.New("column length mismatch")
)

// Table is an ordered set of equal-length, uniquely named columns.
// The row count is tracked separately so a zero-column table keeps its rows.
type Table struct {
	columns []Column
	index   map[string]int
	rows    int
}

// New builds a table from a header and row-major values.
// Every row must have exactly len(names) values.
func New(names []string, rows [][]Value) (*Table, error) {
	cols := make([]Column, len(names))
	for i, name := range names {
		cols[i] = Column{Name: name, Values: make([]Value, len(rows))}
	}
	for r, row := range rows {
		if len(row) != len(names) {
			return nil, fmt.Errorf("row %d has %d values, want %d: %w", r, len(row), len(names), ErrColumnLength)
		}
		for c, v := range row {
			cols[c].Values[r] = v
		}
	}
	return build(cols, len(rows))
}

// FromColumns builds a table from columns. The columns are copied.
func FromColumns(cols []Column) (*Table, error) {
	rows := 0
	if len(cols) > 0 {
		rows = len(cols[0].Values)
	}
	copied := make([]Column, len(cols))
	for i, c := range cols {
		copied[i] = c.clone()
	}
	return build(copied, rows)
}

// Blank returns a table with no columns and the given number of rows.
func Blank(rows int) *Table {
	return &Table{index: map[string]int{}, rows: rows}
}

func build(cols []Column, rows int) (*Table, error) {
	index := make(map[string]int, len(cols))
	for i, c := range cols {
		if _, dup := index[c.Name]; dup {
			return nil, fmt.Errorf("%q: %w", c.Name, ErrDuplicateColumn)
		}
		if len(c.Values) != rows {
			return nil, fmt.Errorf("column %q has %d values, want %d: %w", c.Name, len(c.Values), rows, ErrColumnLength)
		}
		index[c.Name] = i
	}
	return &Table{columns: cols, index: index, rows: rows}, nil
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return t.rows }

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int { return len(t.columns) }

// ColumnNames returns the column names in table order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// HasColumn reports whether a column with the given name exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns a copy of the named column.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.columns[i].clone(), true
}

// Columns returns copies of all columns in table order.
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.clone()
	}
	return out
}

// Row returns the values of row i in column order.
func (t *Table) Row(i int) []Value {
	row := make([]Value, len(t.columns))
	for c, col := range t.columns {
		row[c] = col.Values[i]
	}
	return row
}

// Rows returns all rows in row-major order.
func (t *Table) Rows() [][]Value {
	out := make([][]Value, t.rows)
	for i := range out {
		out[i] = t.Row(i)
	}
	return out
}

// Clone returns a deep copy of t.
func (t *Table) Clone() *Table {
	cols := make([]Column, len(t.columns))
	index := make(map[string]int, len(t.columns))
	for i, c := range t.columns {
		cols[i] = c.clone()
		index[c.Name] = i
	}
	return &Table{columns: cols, index: index, rows: t.rows}
}

// Equal reports whether both tables have the same column names in the same
// order, the same row count, and identical cell values.
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.rows != o.rows || len(t.columns) != len(o.columns) {
		return false
	}
	for i, c := range t.columns {
		oc := o.columns[i]
		if c.Name != oc.Name {
			return false
		}
		for r, v := range c.Values {
			if !v.Equal(oc.Values[r]) {
				return false
			}
		}
	}
	return true
}

// withRows returns a table holding only the given row indexes, in order.
func (t *Table) withRows(keep []int) *Table {
	cols := make([]Column, len(t.columns))
	index := make(map[string]int, len(t.columns))
	for i, c := range t.columns {
		vals := make([]Value, len(keep))
		for j, r := range keep {
			vals[j] = c.Values[r]
		}
		cols[i] = Column{Name: c.Name, Values: vals}
		index[c.Name] = i
	}
	return &Table{columns: cols, index: index, rows: len(keep)}
}
