package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/datasweeper/internal/codec"
	"github.com/JonMunkholm/datasweeper/internal/table"
)

// UploadedFile is a file received from the user. It is immutable once
// received and its bytes are released after decoding.
type UploadedFile struct {
	Name string
	Size int64
	Data []byte
}

// Format infers the file's format from its extension.
func (f UploadedFile) Format() (codec.Format, error) {
	return codec.FormatFromName(f.Name)
}

// SizeKB returns the file size in kilobytes for display.
func (f UploadedFile) SizeKB() float64 {
	return float64(f.Size) / 1024
}

// Stage is a pipeline state.
type Stage string

const (
	StageUploaded   Stage = "uploaded"
	StageDecoded    Stage = "decoded"
	StageCleaned    Stage = "cleaned"
	StageProjected  Stage = "projected"
	StagePreviewed  Stage = "previewed"
	StageVisualized Stage = "visualized"
	StageExported   Stage = "exported"
)

// CleanOp names a cleaning operation.
type CleanOp string

const (
	OpRemoveDuplicates CleanOp = "remove_duplicates"
	OpFillMissing      CleanOp = "fill_missing"
)

// CleanOps lists the supported operations in display order.
var CleanOps = []CleanOp{OpRemoveDuplicates, OpFillMissing}

// ParseCleanOp resolves an operation name.
func ParseCleanOp(s string) (CleanOp, error) {
	switch CleanOp(strings.ToLower(strings.TrimSpace(s))) {
	case OpRemoveDuplicates:
		return OpRemoveDuplicates, nil
	case OpFillMissing:
		return OpFillMissing, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOperation, s)
	}
}

// Label returns the button text for the operation.
func (op CleanOp) Label() string {
	switch op {
	case OpRemoveDuplicates:
		return "Remove duplicates"
	case OpFillMissing:
		return "Fill missing values"
	default:
		return string(op)
	}
}

// CleanRecord describes one applied cleaning operation.
type CleanRecord struct {
	Op         CleanOp   `json:"operation"`
	RowsBefore int       `json:"rowsBefore"`
	RowsAfter  int       `json:"rowsAfter"`
	Filled     int       `json:"filled"`
	Warnings   []string  `json:"warnings,omitempty"`
	AppliedAt  time.Time `json:"appliedAt"`
}

// Artifact is one exported file.
type Artifact struct {
	FileName string
	MIMEType string
	Format   codec.Format
	Data     []byte
}

// ExportRequest asks for a table to be serialized. SourceName is the
// original upload name; the artifact name is derived from it.
type ExportRequest struct {
	Format     codec.Format
	Table      *table.Table
	SourceName string
}

// Export encodes the request's table and names the artifact.
func Export(req ExportRequest) (*Artifact, error) {
	data, err := codec.Encode(req.Table, req.Format)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", req.Format, err)
	}
	return &Artifact{
		FileName: codec.ExportName(req.SourceName, req.Format),
		MIMEType: req.Format.MIMEType(),
		Format:   req.Format,
		Data:     data,
	}, nil
}

// Annotations are opaque user notes attached to a session. The pipeline
// never reads them.
type Annotations struct {
	Goal       string `json:"goal"`
	Reflection string `json:"reflection"`
}

// FileInfo is a point-in-time view of a pipeline for display.
type FileInfo struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Size            int64         `json:"size"`
	Format          codec.Format  `json:"format"`
	Stage           Stage         `json:"stage"`
	Rows            int           `json:"rows"`
	OriginalRows    int           `json:"originalRows"`
	Columns         []string      `json:"columns"`
	OriginalColumns []string      `json:"originalColumns"`
	History         []CleanRecord `json:"history"`
	Exports         int           `json:"exports"`
	UploadedAt      time.Time     `json:"uploadedAt"`
}

// SizeKB returns the original file size in kilobytes for display.
func (i FileInfo) SizeKB() float64 {
	return float64(i.Size) / 1024
}
