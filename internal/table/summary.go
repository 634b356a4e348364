package table

import "math"

// DefaultPreviewRows is the number of rows Preview returns when n <= 0.
const DefaultPreviewRows = 5

// DefaultChartColumns is the number of series NumericSeries returns when
// max <= 0.
const DefaultChartColumns = 2

// Preview returns the first n rows of t with all columns.
// Tables shorter than n are returned whole.
func Preview(t *Table, n int) *Table {
	if n <= 0 {
		n = DefaultPreviewRows
	}
	if n > t.rows {
		n = t.rows
	}
	keep := make([]int, n)
	for i := range keep {
		keep[i] = i
	}
	return t.withRows(keep)
}

// Series is a named sequence of numbers for chart rendering.
type Series struct {
	Column string    `json:"column"`
	Values []float64 `json:"values"`
}

// NumericSeries returns up to max columns whose cells are all numbers, in
// table order. Columns with any missing cell are skipped. The result is empty,
// never nil, when no column qualifies.
func NumericSeries(t *Table, max int) []Series {
	if max <= 0 {
		max = DefaultChartColumns
	}

	out := make([]Series, 0, max)
	for _, c := range t.columns {
		if len(out) == max {
			break
		}
		if !c.IsNumeric() || c.MissingCount() > 0 {
			continue
		}
		vals := make([]float64, len(c.Values))
		for i, v := range c.Values {
			vals[i] = v.Num
		}
		out = append(out, Series{Column: c.Name, Values: vals})
	}
	return out
}

// ColumnStats summarises a single column.
// Mean, Min and Max are nil for text columns and for numeric columns with no values.
type ColumnStats struct {
	Name    string   `json:"name"`
	Kind    string   `json:"kind"`
	Count   int      `json:"count"`
	Missing int      `json:"missing"`
	Mean    *float64 `json:"mean,omitempty"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
}

// Describe returns per-column statistics in table order.
func Describe(t *Table) []ColumnStats {
	stats := make([]ColumnStats, len(t.columns))
	for i, c := range t.columns {
		missing := c.MissingCount()
		st := ColumnStats{
			Name:    c.Name,
			Kind:    c.Kind().String(),
			Count:   len(c.Values) - missing,
			Missing: missing,
		}

		if c.IsNumeric() && st.Count > 0 {
			lo, hi := math.Inf(1), math.Inf(-1)
			for _, v := range c.Values {
				if v.Kind != KindNumber {
					continue
				}
				lo = math.Min(lo, v.Num)
				hi = math.Max(hi, v.Num)
			}
			mean, _ := c.mean()
			st.Mean, st.Min, st.Max = &mean, &lo, &hi
		}

		stats[i] = st
	}
	return stats
}
