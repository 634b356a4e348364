package core

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/JonMunkholm/datasweeper/internal/codec"
	"github.com/JonMunkholm/datasweeper/internal/table"
	"github.com/google/uuid"
)

// Pipeline is the interactive, per-file form of the sweep. It owns the decoded
// table exclusively; every method is safe for concurrent use.
//
// The cleaned table always keeps every original column. The working table
// handed to preview, chart and export is recomputed from the cleaned table
// and the current selection, so cleaning and selecting can be interleaved
// in any order.
type Pipeline struct {
	ID         string
	Name       string
	Size       int64
	Format     codec.Format
	UploadedAt time.Time

	mu        sync.Mutex
	stage     Stage
	decoded   *table.Table
	cleaned   *table.Table
	selection table.Selection
	history   []CleanRecord
	exports   int
	now       func() time.Time
}

// Open decodes file and returns a pipeline in the Decoded stage.
// The returned error wraps codec.ErrUnsupportedFormat or codec.ErrParse.
func Open(file UploadedFile) (*Pipeline, error) {
	format, err := file.Format()
	if err != nil {
		return nil, err
	}

	t, err := codec.Decode(file.Data, format)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", file.Name, err)
	}

	p := &Pipeline{
		ID:         uuid.NewString(),
		Name:       file.Name,
		Size:       file.Size,
		Format:     format,
		UploadedAt: time.Now(),
		stage:      StageDecoded,
		decoded:    t,
		cleaned:    t,
		selection:  table.AllColumns(t),
		now:        time.Now,
	}

	slog.Debug("file decoded",
		"file", p.Name,
		"format", p.Format,
		"rows", t.NumRows(),
		"columns", t.NumColumns(),
	)
	return p, nil
}

// Stage returns the most recent stage reached.
func (p *Pipeline) Stage() Stage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stage
}

// Clean applies op to the cleaned table.
func (p *Pipeline) Clean(op CleanOp) (CleanRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cleaned, rec, _, err := applyOp(p.cleaned, op)
	if err != nil {
		return CleanRecord{}, err
	}
	rec.AppliedAt = p.now()

	p.cleaned = cleaned
	p.history = append(p.history, rec)
	p.stage = StageCleaned

	slog.Debug("clean applied",
		"file", p.Name,
		"operation", op,
		"rows_before", rec.RowsBefore,
		"rows_after", rec.RowsAfter,
		"filled", rec.Filled,
		"warnings", len(rec.Warnings),
	)
	return rec, nil
}

// Select sets the columns to keep. Names must exist in the uploaded file; on
// error the previous selection is kept.
func (p *Pipeline) Select(names []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	projected, err := table.Project(p.cleaned, names)
	if err != nil {
		return err
	}
	p.selection = table.Selection(projected.ColumnNames())
	p.stage = StageProjected
	return nil
}

// Selection returns the selected column names in table order.
func (p *Pipeline) Selection() table.Selection {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append(table.Selection(nil), p.selection...)
}

// Table returns the working table: the cleaned table projected onto the
// current selection.
func (p *Pipeline) Table() *table.Table {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.working()
}

// working must be called with mu held.
func (p *Pipeline) working() *table.Table {
	t, err := table.Project(p.cleaned, p.selection)
	if err != nil {
		// Unreachable while cleaning keeps every column.
		slog.Error("stale column selection", "file", p.Name, "error", err)
		return p.cleaned
	}
	return t
}

// Preview returns the first n rows of the working table.
func (p *Pipeline) Preview(n int) *table.Table {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advance(StagePreviewed)
	return table.Preview(p.working(), n)
}

// Chart returns up to max fully numeric series from the working table.
func (p *Pipeline) Chart(max int) []table.Series {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advance(StageVisualized)
	return table.NumericSeries(p.working(), max)
}

// Describe returns per-column statistics of the working table.
func (p *Pipeline) Describe() []table.ColumnStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return table.Describe(p.working())
}

// Export encodes the working table. The working table is unchanged, so Export
// may be called repeatedly with different formats.
func (p *Pipeline) Export(format codec.Format) (*Artifact, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	art, err := Export(ExportRequest{Format: format, Table: p.working(), SourceName: p.Name})
	if err != nil {
		return nil, err
	}
	p.exports++
	p.stage = StageExported

	slog.Debug("file exported", "file", p.Name, "format", format, "bytes", len(art.Data))
	return art, nil
}

// Reset discards cleaning and selection and returns to the decoded table.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cleaned = p.decoded
	p.selection = table.AllColumns(p.decoded)
	p.history = nil
	p.stage = StageDecoded
}

// Info returns a snapshot for display.
func (p *Pipeline) Info() FileInfo {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.info(p.working())
}

// info must be called with mu held.
func (p *Pipeline) info(w *table.Table) FileInfo {
	return FileInfo{
		ID:              p.ID,
		Name:            p.Name,
		Size:            p.Size,
		Format:          p.Format,
		Stage:           p.stage,
		Rows:            w.NumRows(),
		OriginalRows:    p.decoded.NumRows(),
		Columns:         w.ColumnNames(),
		OriginalColumns: p.decoded.ColumnNames(),
		History:         append([]CleanRecord(nil), p.history...),
		Exports:         p.exports,
		UploadedAt:      p.UploadedAt,
	}
}

// Snapshot is a read-only view of a pipeline for display.
type Snapshot struct {
	Info    FileInfo
	Preview *table.Table
	Series  []table.Series
	Stats   []table.ColumnStats
}

// Snapshot returns the info, preview, chart series and statistics of the
// working table under one lock. Unlike Preview and Chart it does not move
// the pipeline to a later stage.
func (p *Pipeline) Snapshot(previewRows, chartColumns int) Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	w := p.working()
	return Snapshot{
		Info:    p.info(w),
		Preview: table.Preview(w, previewRows),
		Series:  table.NumericSeries(w, chartColumns),
		Stats:   table.Describe(w),
	}
}

// advance moves to s unless the pipeline has already been exported.
// Previewing after an export does not undo the export.
func (p *Pipeline) advance(s Stage) {
	if p.stage != StageExported {
		p.stage = s
	}
}

