package codec

// records.go turns raw string records into typed tables and back.
//
// The rules match what users expect from dataframe tools:
//   - An empty header cell becomes "Unnamed: <index>"
//   - Repeated header names are suffixed ".1", ".2", ...
//   - Empty cells and common NA tokens ("NA", "NaN", "null", ...) are missing
//   - A column whose non-missing cells all parse as numbers is numeric;
//     otherwise every non-missing cell is kept as its original text

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/JonMunkholm/datasweeper/internal/table"
)

// naTokens are cell contents treated as missing values.
var naTokens = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// isMissingCell reports whether raw is an NA token.
func isMissingCell(raw string) bool {
	_, ok := naTokens[strings.TrimSpace(raw)]
	return ok
}

// parseNumber parses raw as a finite float.
func parseNumber(raw string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// normalizeHeader fills blank names and de-duplicates repeats.
func normalizeHeader(header []string) []string {
	names := make([]string, len(header))
	used := make(map[string]bool, len(header))

	for i, h := range header {
		if strings.TrimSpace(h) == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		name := h
		for k := 1; used[name]; k++ {
			name = fmt.Sprintf("%s.%d", h, k)
		}
		used[name] = true
		names[i] = name
	}
	return names
}

// buildTable types each column and assembles the table.
// Every row must already have exactly len(header) cells.
func buildTable(header []string, rows [][]string) (*table.Table, error) {
	names := normalizeHeader(header)
	cols := make([]table.Column, len(names))

	for c, name := range names {
		numeric := true
		for _, row := range rows {
			if isMissingCell(row[c]) {
				continue
			}
			if _, ok := parseNumber(row[c]); !ok {
				numeric = false
				break
			}
		}

		vals := make([]table.Value, len(rows))
		for r, row := range rows {
			raw := row[c]
			switch {
			case isMissingCell(raw):
				vals[r] = table.Missing()
			case numeric:
				f, _ := parseNumber(raw)
				vals[r] = table.Number(f)
			default:
				vals[r] = table.Text(raw)
			}
		}
		cols[c] = table.Column{Name: name, Values: vals}
	}

	if len(cols) == 0 {
		return table.Blank(len(rows)), nil
	}
	t, err := table.FromColumns(cols)
	if err != nil {
		return nil, parseErrorf("%v", err)
	}
	return t, nil
}

// toRecords renders t as a header record followed by one record per row.
func toRecords(t *table.Table) [][]string {
	records := make([][]string, 0, t.NumRows()+1)
	records = append(records, t.ColumnNames())
	for _, row := range t.Rows() {
		rec := make([]string, len(row))
		for i, v := range row {
			rec[i] = v.String()
		}
		records = append(records, rec)
	}
	return records
}

// utf8BOM is the byte order mark some spreadsheet tools prepend to CSV files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// sanitizeUTF8 strips a leading BOM and replaces invalid bytes with U+FFFD.
func sanitizeUTF8(data []byte) []byte {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('\uFFFD')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}
