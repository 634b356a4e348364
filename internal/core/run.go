package core

import (
	"fmt"

	"github.com/JonMunkholm/datasweeper/internal/codec"
	"github.com/JonMunkholm/datasweeper/internal/table"
)

// Plan describes one complete pass over a file.
type Plan struct {
	// Operations are applied in order. Repeats are allowed.
	Operations []CleanOp

	// Columns to keep. Nil keeps every column; an empty non-nil slice keeps none.
	Columns []string

	// Formats to export. Each produces one Artifact.
	Formats []codec.Format

	PreviewRows  int
	ChartColumns int
}

// Result is everything a Plan produced for one file.
type Result struct {
	FileName string
	Size     int64
	Table    *table.Table
	Preview  *table.Table
	Series   []table.Series
	History  []CleanRecord
	Warnings []table.Warning

	Artifacts []*Artifact
}

// Run executes plan against file from scratch. It has no side effects, so
// calling it twice with the same arguments gives equal results.
func Run(file UploadedFile, plan Plan) (*Result, error) {
	format, err := file.Format()
	if err != nil {
		return nil, err
	}
	t, err := codec.Decode(file.Data, format)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", file.Name, err)
	}

	res := &Result{FileName: file.Name, Size: file.Size}

	for _, op := range plan.Operations {
		var (
			rec      CleanRecord
			warnings []table.Warning
		)
		if t, rec, warnings, err = applyOp(t, op); err != nil {
			return nil, err
		}
		res.History = append(res.History, rec)
		res.Warnings = append(res.Warnings, warnings...)
	}

	sel := table.AllColumns(t)
	if plan.Columns != nil {
		sel = plan.Columns
	}
	if t, err = table.Project(t, sel); err != nil {
		return nil, err
	}

	res.Table = t
	res.Preview = table.Preview(t, plan.PreviewRows)
	res.Series = table.NumericSeries(t, plan.ChartColumns)

	for _, f := range plan.Formats {
		art, err := Export(ExportRequest{Format: f, Table: t, SourceName: file.Name})
		if err != nil {
			return nil, err
		}
		res.Artifacts = append(res.Artifacts, art)
	}
	return res, nil
}
