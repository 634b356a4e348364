// Package codec converts between raw file bytes and *table.Table.
//
// Two formats are supported: CSV and XLSX spreadsheets. Decoding applies the
// same header and missing-value rules to both, so a table decodes to the same
// content whichever container it arrived in.
package codec

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/datasweeper/internal/table"
)

var (
	// ErrUnsupportedFormat is returned for any format other than CSV or XLSX.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrParse is returned for malformed file content.
	ErrParse = errors.New("parse error")

	// ErrEmptyFile is returned alongside ErrParse when there is no header row.
	ErrEmptyFile = errors.New("empty file")
)

// Format is a tabular file format tag.
type Format string

const (
	CSV         Format = "csv"
	Spreadsheet Format = "xlsx"
)

// MIME types for exported artifacts.
const (
	MIMECSV         = "text/csv"
	MIMESpreadsheet = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Formats lists the supported formats in display order.
var Formats = []Format{CSV, Spreadsheet}

// ParseFormat resolves a user-supplied format tag.
func ParseFormat(tag string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "csv":
		return CSV, nil
	case "xlsx", "excel", "spreadsheet":
		return Spreadsheet, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, tag)
	}
}

// FormatFromName infers the format from a file name's extension.
func FormatFromName(name string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".csv":
		return CSV, nil
	case ".xlsx":
		return Spreadsheet, nil
	default:
		if ext == "" {
			ext = "(none)"
		}
		return "", fmt.Errorf("%w: file type %s", ErrUnsupportedFormat, ext)
	}
}

// Valid reports whether f is a supported format.
func (f Format) Valid() bool {
	return f == CSV || f == Spreadsheet
}

// Extension returns the canonical extension including the leading dot.
func (f Format) Extension() string {
	switch f {
	case CSV:
		return ".csv"
	case Spreadsheet:
		return ".xlsx"
	default:
		return ""
	}
}

// MIMEType returns the content type for exported files.
func (f Format) MIMEType() string {
	switch f {
	case CSV:
		return MIMECSV
	case Spreadsheet:
		return MIMESpreadsheet
	default:
		return "application/octet-stream"
	}
}

// Label returns the human-readable name shown in the UI.
func (f Format) Label() string {
	switch f {
	case CSV:
		return "CSV"
	case Spreadsheet:
		return "Excel"
	default:
		return string(f)
	}
}

// ExportName replaces the extension of original with f's extension.
// A name without an extension gets one appended.
func ExportName(original string, f Format) string {
	base := filepath.Base(original)
	if base == "." || base == string(filepath.Separator) {
		base = "export"
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + f.Extension()
}

// Decode parses data in format f into a table.
func Decode(data []byte, f Format) (*table.Table, error) {
	switch f {
	case CSV:
		return decodeCSV(data)
	case Spreadsheet:
		return decodeXLSX(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(f))
	}
}

// Encode serializes t in format f. CSV output is byte-deterministic; XLSX
// output preserves content but the container bytes may differ between calls.
func Encode(t *table.Table, f Format) ([]byte, error) {
	switch f {
	case CSV:
		return encodeCSV(t)
	case Spreadsheet:
		return encodeXLSX(t)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(f))
	}
}

// parseErrorf wraps a decode failure so that errors.Is(err, ErrParse) holds.
func parseErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrParse, fmt.Sprintf(format, args...))
}
