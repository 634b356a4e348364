package templates

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/datasweeper/internal/codec"
	"github.com/JonMunkholm/datasweeper/internal/core"
	"github.com/JonMunkholm/datasweeper/internal/table"
	"github.com/a-h/templ"
)

// PageData is everything the upload page shows for one session.
type PageData struct {
	Annotations core.Annotations
	Files       []FileView
	Outcomes    []core.FileOutcome
	Error       *core.UserMessage
	MaxFileSize int64
	MaxFiles    int
}

// FileView is one pipeline prepared for display.
type FileView struct {
	Info    core.FileInfo
	Preview *table.Table
	Series  []table.Series
	Stats   []table.ColumnStats
}

// Page renders the full upload page.
func Page(data PageData) templ.Component {
	return Layout("Data Sweeper", component(func(ctx context.Context, h *html) {
		if data.Error != nil {
			h.child(ctx, ErrorAlert(data.Error.Message, data.Error.Action, data.Error.Code))
		}
		h.child(ctx, Outcomes(data.Outcomes))

		h.raw(`<section id="goal"><h2>Goal</h2>`)
		h.raw(`<form method="post" action="/annotations"><label for="goal">What do you want to get out of this data?</label><br>`)
		h.raw(`<textarea id="goal" name="goal" rows="2" cols="80">`)
		h.text(data.Annotations.Goal)
		h.raw(`</textarea><br><button type="submit">Save goal</button></form></section>`)

		h.raw(`<section id="upload"><h2>Upload files</h2>`)
		h.raw(`<form method="post" action="/upload" enctype="multipart/form-data" class="row">`)
		h.raw(`<input type="file" name="files" multiple accept=".csv,.xlsx" required>`)
		h.raw(`<button type="submit">Upload</button></form>`)
		h.rawf(`<p class="muted">CSV or Excel (.xlsx), up to %s each, %d files per session.</p></section>`,
			esc(formatBytes(data.MaxFileSize)), data.MaxFiles)

		if len(data.Files) == 0 {
			h.raw(`<p class="muted">No files uploaded yet.</p>`)
		}
		for _, f := range data.Files {
			h.child(ctx, FileCard(f))
		}

		h.raw(`<section id="reflection"><h2>Reflection</h2>`)
		h.raw(`<form method="post" action="/annotations"><label for="reflection">What did you learn?</label><br>`)
		h.raw(`<textarea id="reflection" name="reflection" rows="3" cols="80">`)
		h.text(data.Annotations.Reflection)
		h.raw(`</textarea><br><button type="submit">Save reflection</button></form></section>`)
	}))
}

// Outcomes lists the result of an upload batch, one line per file.
func Outcomes(outcomes []core.FileOutcome) templ.Component {
	return component(func(ctx context.Context, h *html) {
		if len(outcomes) == 0 {
			return
		}
		h.raw(`<section id="outcomes"><h2>Upload results</h2>`)
		for _, o := range outcomes {
			if o.OK() {
				h.raw(`<p>Uploaded <strong>`)
				h.text(o.FileName)
				h.raw(`</strong></p>`)
				continue
			}
			msg := core.MapError(o.Err)
			if o.Error != nil {
				msg = *o.Error
			}
			h.child(ctx, ErrorAlert(o.FileName+": "+msg.Message, msg.Action, msg.Code))
		}
		h.raw(`</section>`)
	})
}

// FileCard renders one file with its cleaning, selection, preview, chart and
// export controls.
func FileCard(f FileView) templ.Component {
	return component(func(ctx context.Context, h *html) {
		info := f.Info
		base := "/files/" + info.ID

		h.rawf(`<article id="file-%s"><h2>`, esc(info.ID))
		h.text(info.Name)
		h.raw(`</h2>`)
		h.rawf(`<p class="muted">%.2f KB, %s, stage %s. %d rows by %d columns (uploaded with %d by %d).</p>`,
			info.SizeKB(), esc(info.Format.Label()), esc(string(info.Stage)),
			info.Rows, len(info.Columns), info.OriginalRows, len(info.OriginalColumns))

		if n := len(info.History); n > 0 {
			for _, w := range info.History[n-1].Warnings {
				h.raw(`<div class="alert warn">`)
				h.text(w)
				h.raw(`</div>`)
			}
		}

		h.raw(`<h3>Clean</h3><div class="row">`)
		for _, op := range core.CleanOps {
			h.rawf(`<form method="post" action="%s/clean"><input type="hidden" name="operation" value="%s">`, esc(base), esc(string(op)))
			h.rawf(`<button type="submit">%s</button></form>`, esc(op.Label()))
		}
		h.rawf(`<form method="post" action="%s/reset"><button type="submit">Reset</button></form></div>`, esc(base))
		h.child(ctx, History(info.History))

		h.raw(`<h3>Columns</h3>`)
		h.rawf(`<form method="post" action="%s/columns" class="row">`, esc(base))
		selected := make(map[string]bool, len(info.Columns))
		for _, c := range info.Columns {
			selected[c] = true
		}
		for _, c := range info.OriginalColumns {
			checked := ""
			if selected[c] {
				checked = " checked"
			}
			h.rawf(`<label><input type="checkbox" name="columns" value="%s"%s> %s</label>`, esc(c), checked, esc(c))
		}
		h.raw(`<button type="submit">Apply selection</button></form>`)

		h.raw(`<h3>Preview</h3>`)
		h.child(ctx, PreviewTable(f.Preview))

		h.raw(`<h3>Summary</h3>`)
		h.child(ctx, StatsTable(f.Stats))

		h.raw(`<h3>Chart</h3>`)
		if len(f.Series) == 0 {
			h.raw(`<p class="muted">No complete numeric columns to chart.</p>`)
		} else {
			h.child(ctx, Chart(f.Series))
		}

		h.raw(`<h3>Export</h3><div class="row">`)
		for _, format := range codec.Formats {
			h.rawf(`<a href="%s/export?format=%s" download>Download %s</a>`, esc(base), esc(string(format)), esc(format.Label()))
		}
		h.rawf(`<form method="post" action="%s/delete"><button type="submit">Remove file</button></form></div>`, esc(base))
		h.raw(`</article>`)
	})
}

// History lists the applied cleaning operations.
func History(records []core.CleanRecord) templ.Component {
	return component(func(_ context.Context, h *html) {
		if len(records) == 0 {
			return
		}
		h.raw(`<ol class="muted">`)
		for _, rec := range records {
			h.rawf(`<li>%s: %d rows before, %d after`, esc(rec.Op.Label()), rec.RowsBefore, rec.RowsAfter)
			if rec.Filled > 0 {
				h.rawf(`, %d cells filled`, rec.Filled)
			}
			h.raw(`</li>`)
		}
		h.raw(`</ol>`)
	})
}

// PreviewTable renders a table. Missing cells are marked.
func PreviewTable(t *table.Table) templ.Component {
	return component(func(_ context.Context, h *html) {
		if t == nil || t.NumColumns() == 0 {
			h.raw(`<p class="muted">No columns selected.</p>`)
			return
		}
		h.raw(`<table><thead><tr>`)
		for _, name := range t.ColumnNames() {
			h.raw(`<th>`)
			h.text(name)
			h.raw(`</th>`)
		}
		h.raw(`</tr></thead><tbody>`)
		for _, row := range t.Rows() {
			h.raw(`<tr>`)
			for _, v := range row {
				if v.IsMissing() {
					h.raw(`<td class="missing">missing</td>`)
					continue
				}
				h.raw(`<td>`)
				h.text(v.String())
				h.raw(`</td>`)
			}
			h.raw(`</tr>`)
		}
		h.raw(`</tbody></table>`)
	})
}

// StatsTable renders per-column statistics.
func StatsTable(stats []table.ColumnStats) templ.Component {
	return component(func(_ context.Context, h *html) {
		if len(stats) == 0 {
			return
		}
		h.raw(`<table><thead><tr><th>Column</th><th>Type</th><th>Count</th><th>Missing</th><th>Mean</th><th>Min</th><th>Max</th></tr></thead><tbody>`)
		for _, st := range stats {
			h.raw(`<tr><td>`)
			h.text(st.Name)
			h.rawf(`</td><td>%s</td><td>%d</td><td>%d</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
				esc(st.Kind), st.Count, st.Missing, optNumber(st.Mean), optNumber(st.Min), optNumber(st.Max))
		}
		h.raw(`</tbody></table>`)
	})
}

func optNumber(f *float64) string {
	if f == nil {
		return ""
	}
	return table.FormatNumber(*f)
}

func formatBytes(n int64) string {
	switch {
	case n <= 0:
		return "any size"
	case n >= 1<<20:
		return fmt.Sprintf("%d MB", n>>20)
	case n >= 1<<10:
		return fmt.Sprintf("%d KB", n>>10)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}
