package templates

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/JonMunkholm/datasweeper/internal/codec"
	"github.com/JonMunkholm/datasweeper/internal/core"
	"github.com/JonMunkholm/datasweeper/internal/table"
	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func sampleView(t *testing.T) FileView {
	t.Helper()
	tbl, err := table.New([]string{"n", "<b>"}, [][]table.Value{
		{table.Number(1), table.Text("x")},
		{table.Number(-2), table.Missing()},
	})
	require.NoError(t, err)
	return FileView{
		Info: core.FileInfo{
			ID:              "abc",
			Name:            "<script>.csv",
			Size:            2048,
			Format:          codec.CSV,
			Stage:           core.StageCleaned,
			Rows:            2,
			OriginalRows:    3,
			Columns:         []string{"n"},
			OriginalColumns: []string{"n", "<b>"},
			History: []core.CleanRecord{
				{Op: core.OpFillMissing, RowsBefore: 3, RowsAfter: 3, Filled: 1, Warnings: []string{`column "<b>": no data`}},
			},
		},
		Preview: tbl,
		Series:  table.NumericSeries(tbl, 2),
		Stats:   table.Describe(tbl),
	}
}

func TestErrorAlert(t *testing.T) {
	out := render(t, ErrorAlert("Bad <file>", "Try again", "FILE002"))
	assert.Contains(t, out, "Bad &lt;file&gt;")
	assert.Contains(t, out, "(Code: FILE002)")
	assert.Contains(t, out, `role="alert"`)

	out = render(t, ErrorAlert("Oops", "", ""))
	assert.NotContains(t, out, "Code:")
}

func TestFileCard(t *testing.T) {
	out := render(t, FileCard(sampleView(t)))

	assert.NotContains(t, out, "<script>", "names are escaped")
	assert.Contains(t, out, "&lt;script&gt;.csv")
	assert.Contains(t, out, `id="file-abc"`)
	assert.Contains(t, out, `action="/files/abc/clean"`)
	assert.Contains(t, out, `value="remove_duplicates"`)
	assert.Contains(t, out, `value="n" checked`)
	assert.NotContains(t, out, `value="&lt;b&gt;" checked`)
	assert.Contains(t, out, `/files/abc/export?format=xlsx`)
	assert.Contains(t, out, `class="missing"`)
	assert.Contains(t, out, "1 cells filled")
	assert.Contains(t, out, `class="alert warn"`)
	assert.Contains(t, out, "<svg")
}

func TestPreviewTable_NoColumns(t *testing.T) {
	out := render(t, PreviewTable(table.Blank(3)))
	assert.Contains(t, out, "No columns selected")
}

func TestChart(t *testing.T) {
	series := []table.Series{
		{Column: "a", Values: []float64{1, 2, 3}},
		{Column: "b", Values: []float64{-1, 0, 5}},
	}
	out := render(t, Chart(series))

	// one rect per value plus one legend swatch per series
	assert.Equal(t, 8, strings.Count(out, "<rect"))
	assert.Contains(t, out, "a row 2: 3")
	assert.NotContains(t, out, "Showing the first")

	long := make([]float64, MaxChartPoints+10)
	out = render(t, Chart([]table.Series{{Column: "x", Values: long}}))
	assert.Equal(t, MaxChartPoints+1, strings.Count(out, "<rect"))
	assert.Contains(t, out, "Showing the first")

	out = render(t, Chart([]table.Series{{Column: "x"}}))
	assert.Contains(t, out, "Nothing to chart")
}

func TestPage(t *testing.T) {
	out := render(t, Page(PageData{
		Annotations: core.Annotations{Goal: "find <dupes>"},
		Files:       []FileView{sampleView(t)},
		Outcomes: []core.FileOutcome{
			{FileName: "ok.csv", FileID: "abc"},
			{FileName: "report.txt", Err: codec.ErrUnsupportedFormat},
		},
		MaxFileSize: 50 << 20,
		MaxFiles:    20,
	}))

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "find &lt;dupes&gt;")
	assert.Contains(t, out, "Uploaded <strong>ok.csv</strong>")
	assert.Contains(t, out, "report.txt: Unsupported file type")
	assert.Contains(t, out, "FILE001")
	assert.Contains(t, out, "50 MB each, 20 files per session")
	assert.Contains(t, out, `enctype="multipart/form-data"`)
}

func TestPage_Empty(t *testing.T) {
	msg := core.MapError(errors.New("boom"))
	out := render(t, Page(PageData{Error: &msg}))
	assert.Contains(t, out, "No files uploaded yet")
	assert.Contains(t, out, "ERR000")
}
