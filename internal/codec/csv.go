package codec

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/JonMunkholm/datasweeper/internal/table"
)

// decodeCSV parses comma-separated data. The first record is the header and
// every following record must have the same number of fields.
func decodeCSV(data []byte) (*table.Table, error) {
	data = sanitizeUTF8(data)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrParse, ErrEmptyFile)
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.LazyQuotes = true
	r.FieldsPerRecord = 0 // enforce the header's width on every row

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: invalid csv header: %w", ErrParse, err)
	}

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: invalid csv: %w", ErrParse, err)
		}
		rows = append(rows, rec)
	}

	return buildTable(header, rows)
}

// encodeCSV writes a header row followed by the data rows. No index column is
// added and missing values are written as empty fields. A record made of a
// single empty field is written as "" so readers do not skip it as a blank
// line. A table with no columns encodes as blank lines only and cannot be
// decoded again.
func encodeCSV(t *table.Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, rec := range toRecords(t) {
		if len(rec) == 1 && rec[0] == "" {
			w.Flush()
			buf.WriteString("\"\"\n")
			continue
		}
		if err := w.Write(rec); err != nil {
			return nil, fmt.Errorf("write csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}
