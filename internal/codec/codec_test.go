package codec

import (
	"bytes"
	"errors"
	"testing"

	"github.com/JonMunkholm/datasweeper/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func mustDecode(t *testing.T, data string, f Format) *table.Table {
	t.Helper()
	tbl, err := Decode([]byte(data), f)
	require.NoError(t, err)
	return tbl
}

func sampleTable(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.New([]string{"id", "name", "score"}, [][]table.Value{
		{table.Number(1), table.Text("Ann, PhD"), table.Number(9.25)},
		{table.Number(2), table.Text(`say "hi"`), table.Missing()},
		{table.Number(-3), table.Missing(), table.Number(1e6)},
		{table.Number(0.1), table.Text("Zoë"), table.Number(42)},
	})
	require.NoError(t, err)
	return tbl
}

// ============================================================================
// Format helpers
// ============================================================================

func TestFormatFromName(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"data.csv", CSV, false},
		{"DATA.CSV", CSV, false},
		{"book.xlsx", Spreadsheet, false},
		{"Book.XLSX", Spreadsheet, false},
		{"report.txt", "", true},
		{"legacy.xls", "", true},
		{"noext", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatFromName(tt.name)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnsupportedFormat))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFormat(t *testing.T) {
	for tag, want := range map[string]Format{
		"csv": CSV, "CSV": CSV, "xlsx": Spreadsheet, "Excel": Spreadsheet, "spreadsheet": Spreadsheet,
	} {
		got, err := ParseFormat(tag)
		require.NoError(t, err, tag)
		assert.Equal(t, want, got, tag)
	}

	_, err := ParseFormat("json")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestExportName(t *testing.T) {
	tests := []struct {
		original string
		format   Format
		want     string
	}{
		{"report.csv", Spreadsheet, "report.xlsx"},
		{"report.xlsx", CSV, "report.csv"},
		{"report.csv", CSV, "report.csv"},
		{"my.data.v2.xlsx", CSV, "my.data.v2.csv"},
		{"noext", CSV, "noext.csv"},
		{"dir/sub/file.csv", Spreadsheet, "file.xlsx"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ExportName(tt.original, tt.format), tt.original)
	}
}

func TestMIMEType(t *testing.T) {
	assert.Equal(t, "text/csv", CSV.MIMEType())
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", Spreadsheet.MIMEType())
}

// ============================================================================
// Decode
// ============================================================================

func TestDecodeCSV_Scenario(t *testing.T) {
	tbl := mustDecode(t, "a,b\n1,\n,4\n1,\n", CSV)

	assert.Equal(t, []string{"a", "b"}, tbl.ColumnNames())
	assert.Equal(t, 3, tbl.NumRows())

	a, _ := tbl.Column("a")
	assert.True(t, a.IsNumeric())
	assert.Equal(t, 1.0, a.Values[0].Num)
	assert.True(t, a.Values[1].IsMissing())

	b, _ := tbl.Column("b")
	assert.True(t, b.IsNumeric())
	assert.Equal(t, 4.0, b.Values[1].Num)
}

func TestDecodeCSV_Typing(t *testing.T) {
	tbl := mustDecode(t, "num,mixed,na\n1.5,1,NA\n-2,x,null\n 3 ,2,\n", CSV)

	num, _ := tbl.Column("num")
	assert.True(t, num.IsNumeric())
	assert.Equal(t, 3.0, num.Values[2].Num)

	mixed, _ := tbl.Column("mixed")
	assert.Equal(t, table.KindText, mixed.Kind())
	assert.Equal(t, "1", mixed.Values[0].Str)

	na, _ := tbl.Column("na")
	assert.Equal(t, 3, na.MissingCount())
}

func TestDecodeCSV_HeaderNormalization(t *testing.T) {
	tbl := mustDecode(t, "a,,a,a.1,a\n1,2,3,4,5\n", CSV)
	assert.Equal(t, []string{"a", "Unnamed: 1", "a.1", "a.1.1", "a.2"}, tbl.ColumnNames())
}

func TestDecodeCSV_BOMAndInvalidUTF8(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("name\ncaf\xe9\n")...)
	tbl, err := Decode(data, CSV)
	require.NoError(t, err)

	assert.Equal(t, []string{"name"}, tbl.ColumnNames())
	col, _ := tbl.Column("name")
	assert.Equal(t, "caf\uFFFD", col.Values[0].Str)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		format  Format
		wantErr error
	}{
		{"ragged row", "a,b\n1,2\n3\n", CSV, ErrParse},
		{"empty file", "", CSV, ErrEmptyFile},
		{"whitespace only", " \n\n", CSV, ErrParse},
		{"not a workbook", "a,b\n1,2\n", Spreadsheet, ErrParse},
		{"unknown format", "a\n1\n", Format("txt"), ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data), tt.format)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestDecodeXLSX_WorkbookFixture(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"region", "sales", "units"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"north", 10.5, 3}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"south", 20}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	tbl, err := Decode(buf.Bytes(), Spreadsheet)
	require.NoError(t, err)

	assert.Equal(t, []string{"region", "sales", "units"}, tbl.ColumnNames())
	assert.Equal(t, 2, tbl.NumRows())

	sales, _ := tbl.Column("sales")
	assert.Equal(t, 10.5, sales.Values[0].Num)
	units, _ := tbl.Column("units")
	assert.True(t, units.Values[1].IsMissing(), "short row is padded with missing")
}

func TestDecodeXLSX_RowWiderThanHeader(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"a"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{1, 2}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	tbl, err := Decode(buf.Bytes(), Spreadsheet)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "Unnamed: 1"}, tbl.ColumnNames())
	col, _ := tbl.Column("Unnamed: 1")
	assert.Equal(t, 2.0, col.Values[0].Num)
}

func TestDecodeXLSX_TrailingBlankHeaderCells(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"id", "", ""}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{1, "x"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{2, "y", 9.5}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	tbl, err := Decode(buf.Bytes(), Spreadsheet)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "Unnamed: 1", "Unnamed: 2"}, tbl.ColumnNames())
	assert.Equal(t, 2, tbl.NumRows())

	last, _ := tbl.Column("Unnamed: 2")
	assert.True(t, last.Values[0].IsMissing())
	assert.Equal(t, 9.5, last.Values[1].Num)
}

// ============================================================================
// Encode + round trips
// ============================================================================

func TestEncodeCSV_NoIndexColumn(t *testing.T) {
	tbl := mustDecode(t, "a,b\n1,\n,4\n", CSV)
	out, err := Encode(tbl, CSV)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,\n,4\n", string(out))
}

func TestEncodeCSV_NoColumns(t *testing.T) {
	tbl := mustDecode(t, "a,b\n1,2\n3,4\n", CSV)
	none, err := table.Project(tbl, table.Selection{})
	require.NoError(t, err)

	data, err := Encode(none, CSV)
	require.NoError(t, err)
	assert.Equal(t, "\n\n\n", string(data), "one blank line for the header and each row")

	_, err = Decode(data, CSV)
	assert.True(t, errors.Is(err, ErrEmptyFile), "got %v", err)
}

func TestRoundTripCSV_SingleColumnMissing(t *testing.T) {
	tbl, err := table.New([]string{"a"}, [][]table.Value{
		{table.Number(1)},
		{table.Missing()},
		{table.Number(3)},
	})
	require.NoError(t, err)

	data, err := Encode(tbl, CSV)
	require.NoError(t, err)
	assert.Equal(t, "a\n1\n\"\"\n3\n", string(data))

	got, err := Decode(data, CSV)
	require.NoError(t, err)
	assert.True(t, got.Equal(tbl), "got %v", got.Rows())
}

func TestRoundTripCSV_QuotedMultiline(t *testing.T) {
	tbl, err := table.New([]string{"note"}, [][]table.Value{
		{table.Text("multi\nline")},
		{table.Text(" padded ")},
	})
	require.NoError(t, err)

	data, err := Encode(tbl, CSV)
	require.NoError(t, err)
	got, err := Decode(data, CSV)
	require.NoError(t, err)
	assert.True(t, got.Equal(tbl), "got %v", got.Rows())
}

func TestEncodeCSV_Deterministic(t *testing.T) {
	tbl := sampleTable(t)
	first, err := Encode(tbl, CSV)
	require.NoError(t, err)
	second, err := Encode(tbl, CSV)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(first, second))
}

func TestEncode_DoesNotMutateInput(t *testing.T) {
	tbl := sampleTable(t)
	before := tbl.Clone()
	for _, f := range Formats {
		_, err := Encode(tbl, f)
		require.NoError(t, err)
	}
	assert.True(t, tbl.Equal(before))
}

func TestRoundTrip(t *testing.T) {
	for _, f := range Formats {
		t.Run(string(f), func(t *testing.T) {
			tbl := sampleTable(t)

			data, err := Encode(tbl, f)
			require.NoError(t, err)

			got, err := Decode(data, f)
			require.NoError(t, err)
			assert.True(t, got.Equal(tbl), "got %v, want %v", got.Rows(), tbl.Rows())
		})
	}
}

func TestRoundTrip_HeaderOnly(t *testing.T) {
	tbl, err := table.New([]string{"a", "b"}, nil)
	require.NoError(t, err)

	for _, f := range Formats {
		data, err := Encode(tbl, f)
		require.NoError(t, err)
		got, err := Decode(data, f)
		require.NoError(t, err, string(f))
		assert.Equal(t, []string{"a", "b"}, got.ColumnNames())
		assert.Equal(t, 0, got.NumRows())
	}
}

// Converting to Excel and then to CSV must give the same bytes as exporting
// straight to CSV.
func TestSpreadsheetThenCSV_MatchesDirectCSV(t *testing.T) {
	tbl := mustDecode(t, "city,pop,area\nOslo,709000,454\nBergen,,465.3\nTromso,77000,2521\n", CSV)

	direct, err := Encode(tbl, CSV)
	require.NoError(t, err)

	xlsx, err := Encode(tbl, Spreadsheet)
	require.NoError(t, err)
	back, err := Decode(xlsx, Spreadsheet)
	require.NoError(t, err)
	viaExcel, err := Encode(back, CSV)
	require.NoError(t, err)

	assert.Equal(t, string(direct), string(viaExcel))
	assert.Equal(t, 3, back.NumColumns())
}
