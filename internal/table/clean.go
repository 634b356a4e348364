package table

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNoDataForImputation marks a numeric column that has missing cells but no
// values to average. It is reported as a warning, never as a failure.
var ErrNoDataForImputation = errors.New("no data for imputation")

// Warning is a non-fatal, per-column condition raised by a cleaning operation.
type Warning struct {
	Column string
	Err    error
}

func (w Warning) Error() string {
	return fmt.Sprintf("column %q: %v", w.Column, w.Err)
}

func (w Warning) Unwrap() error { return w.Err }

// RemoveDuplicates drops every row that exactly matches an earlier row across
// all columns. The first occurrence is kept and row order is preserved.
func RemoveDuplicates(t *Table) *Table {
	seen := make(map[string]struct{}, t.rows)
	keep := make([]int, 0, t.rows)

	for r := 0; r < t.rows; r++ {
		key := rowKey(t, r)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keep = append(keep, r)
	}

	return t.withRows(keep)
}

// rowKey encodes a row unambiguously: each cell is written as its kind,
// the payload length and the payload.
func rowKey(t *Table, r int) string {
	var b strings.Builder
	for _, c := range t.columns {
		v := c.Values[r]
		var payload string
		switch v.Kind {
		case KindNumber:
			// -0 and 0 compare equal, so they must share a key.
			if v.Num == 0 {
				payload = "0"
			} else {
				payload = strconv.FormatFloat(v.Num, 'g', -1, 64)
			}
		case KindText:
			payload = v.Str
		}
		b.WriteByte(byte('0' + v.Kind))
		b.WriteString(strconv.Itoa(len(payload)))
		b.WriteByte(':')
		b.WriteString(payload)
	}
	return b.String()
}

// FillMissingNumeric replaces missing cells in every numeric column with the
// mean of that column's non-missing values. Text columns are left alone.
// A numeric column with missing cells but no values is left unchanged and
// reported as a Warning wrapping ErrNoDataForImputation.
func FillMissingNumeric(t *Table) (*Table, []Warning) {
	out := t.Clone()
	var warnings []Warning

	for i := range out.columns {
		col := &out.columns[i]
		if !col.IsNumeric() {
			continue
		}

		missing := col.MissingCount()
		if missing == 0 {
			continue
		}

		avg, count := col.mean()
		if count == 0 {
			warnings = append(warnings, Warning{Column: col.Name, Err: ErrNoDataForImputation})
			continue
		}

		mean := Number(avg)
		for r, v := range col.Values {
			if v.IsMissing() {
				col.Values[r] = mean
			}
		}
	}

	return out, warnings
}

// mean returns the arithmetic mean of the numeric cells in c and how many
// there were. The running form keeps values near the float64 limit from
// overflowing an intermediate sum.
func (c Column) mean() (float64, int) {
	var avg float64
	n := 0
	for _, v := range c.Values {
		if v.Kind != KindNumber {
			continue
		}
		n++
		avg += v.Num/float64(n) - avg/float64(n)
	}
	return avg, n
}
