package codec

import (
	"bytes"
	"fmt"

	"github.com/JonMunkholm/datasweeper/internal/table"
	"github.com/xuri/excelize/v2"
)

// decodeXLSX reads the first worksheet of a workbook. The first row is the
// header and shorter rows are padded with blank cells.
func decodeXLSX(data []byte) (*table.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid xlsx: %w", ErrParse, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, parseErrorf("workbook has no sheets")
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %w", ErrParse, sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %q: %w", ErrParse, sheet, ErrEmptyFile)
	}

	// Trailing blank cells are dropped by the reader, so a header with empty
	// cells on the right comes back shorter than the data under it. The
	// widest row sets the column count and missing header cells get
	// generated names.
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}

	header := make([]string, width)
	copy(header, rows[0])

	records := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		padded := make([]string, width)
		copy(padded, row)
		records = append(records, padded)
	}

	return buildTable(header, records)
}

// encodeXLSX writes t to a single-sheet workbook using the stream writer.
// Numbers are written as numeric cells and missing values are left blank.
func encodeXLSX(t *table.Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return nil, fmt.Errorf("open stream writer: %w", err)
	}

	names := t.ColumnNames()
	header := make([]interface{}, len(names))
	for i, name := range names {
		header[i] = name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for r, row := range t.Rows() {
		cells := make([]interface{}, len(row))
		for i, v := range row {
			switch v.Kind {
			case table.KindNumber:
				cells[i] = v.Num
			case table.KindText:
				cells[i] = v.Str
			default:
				cells[i] = nil
			}
		}

		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", r+2, err)
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return nil, fmt.Errorf("write row %d: %w", r+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return nil, fmt.Errorf("flush sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
