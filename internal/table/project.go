package table

import (
	"errors"
	"fmt"
)

// ErrUnknownColumn is returned when a selection names a column the table
// does not have.
var ErrUnknownColumn = errors.New("unknown column")

// Selection is a set of column names. Its order carries no meaning: projected
// output always follows the table's own column order.
type Selection []string

// AllColumns returns a selection of every column in t.
func AllColumns(t *Table) Selection {
	return Selection(t.ColumnNames())
}

// Project returns a table with only the selected columns, in t's column order.
// An empty selection yields a zero-column table with t's row count.
func Project(t *Table, sel Selection) (*Table, error) {
	want := make(map[string]struct{}, len(sel))
	for _, name := range sel {
		if !t.HasColumn(name) {
			return nil, fmt.Errorf("%q: %w", name, ErrUnknownColumn)
		}
		want[name] = struct{}{}
	}

	out := Blank(t.rows)
	for _, c := range t.columns {
		if _, ok := want[c.Name]; !ok {
			continue
		}
		out.index[c.Name] = len(out.columns)
		out.columns = append(out.columns, c.clone())
	}
	return out, nil
}
