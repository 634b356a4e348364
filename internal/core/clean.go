package core

import (
	"fmt"

	"github.com/JonMunkholm/datasweeper/internal/table"
)

// applyOp runs one cleaning operation on t. The record carries the row
// counts, fill count and warning text; AppliedAt is left for the caller.
// On error t is returned unchanged.
func applyOp(t *table.Table, op CleanOp) (*table.Table, CleanRecord, []table.Warning, error) {
	rec := CleanRecord{Op: op, RowsBefore: t.NumRows()}

	var (
		out      *table.Table
		warnings []table.Warning
	)
	switch op {
	case OpRemoveDuplicates:
		out = table.RemoveDuplicates(t)
	case OpFillMissing:
		out, warnings = table.FillMissingNumeric(t)
		rec.Filled = missingCells(t) - missingCells(out)
		for _, w := range warnings {
			rec.Warnings = append(rec.Warnings, w.Error())
		}
	default:
		return t, CleanRecord{}, nil, fmt.Errorf("%w: %q", ErrUnknownOperation, op)
	}

	rec.RowsAfter = out.NumRows()
	return out, rec, warnings, nil
}

func missingCells(t *table.Table) int {
	n := 0
	for _, c := range t.Columns() {
		n += c.MissingCount()
	}
	return n
}
