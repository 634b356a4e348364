package web

import (
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/datasweeper/internal/codec"
	"github.com/JonMunkholm/datasweeper/internal/core"
	"github.com/JonMunkholm/datasweeper/internal/logging"
	"github.com/JonMunkholm/datasweeper/internal/table"
	"github.com/go-chi/chi/v5"
)

type sessionResponse struct {
	ID          string           `json:"id"`
	CreatedAt   time.Time        `json:"createdAt"`
	Annotations core.Annotations `json:"annotations"`
	Files       []core.FileInfo  `json:"files"`
}

type outcomeResponse struct {
	core.FileOutcome
	Status int `json:"status"`
}

type uploadResponse struct {
	Files    []outcomeResponse `json:"files"`
	Accepted int               `json:"accepted"`
	Rejected int               `json:"rejected"`
}

type fileResponse struct {
	File    core.FileInfo       `json:"file"`
	Preview tableJSON           `json:"preview"`
	Stats   []table.ColumnStats `json:"stats"`
}

type cleanResponse struct {
	Record core.CleanRecord `json:"record"`
	File   core.FileInfo    `json:"file"`
}

// tableJSON is a table as header plus rows. Missing cells are null.
type tableJSON struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

func toTableJSON(t *table.Table) tableJSON {
	out := tableJSON{Columns: t.ColumnNames(), Rows: make([][]any, 0, t.NumRows())}
	for _, row := range t.Rows() {
		cells := make([]any, len(row))
		for i, v := range row {
			switch v.Kind {
			case table.KindNumber:
				cells[i] = v.Num
			case table.KindText:
				cells[i] = v.Str
			}
		}
		out.Rows = append(out.Rows, cells)
	}
	return out
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	files := sess.Files()
	infos := make([]core.FileInfo, len(files))
	for i, p := range files {
		infos[i] = p.Info()
	}
	writeJSON(w, r, http.StatusOK, sessionResponse{
		ID:          sess.ID,
		CreatedAt:   sess.CreatedAt,
		Annotations: sess.Annotations(),
		Files:       infos,
	})
}

func (s *Server) handleSetAnnotations(w http.ResponseWriter, r *http.Request) {
	var req annotationsRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	notes := core.Annotations{Goal: req.Goal, Reflection: req.Reflection}
	if err := s.service.SetAnnotations(sessionFrom(r).ID, notes); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusOK, notes)
}

// handleUpload ingests a multipart batch. The response is 200 as long as the
// batch itself was readable; each file carries its own status.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	files, err := s.readUploads(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	outcomes, err := s.service.Ingest(r.Context(), sessionFrom(r).ID, files)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	resp := uploadResponse{Files: make([]outcomeResponse, len(outcomes))}
	for i, o := range outcomes {
		status := http.StatusOK
		if o.OK() {
			resp.Accepted++
		} else {
			status = statusFor(o.Err)
			resp.Rejected++
		}
		resp.Files[i] = outcomeResponse{FileOutcome: o, Status: status}
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	p, err := pipelineFor(r, chi.URLParam(r, "fileID"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	preview := p.Preview(s.cfg.Pipeline.PreviewRows)
	writeJSON(w, r, http.StatusOK, fileResponse{
		File:    p.Info(),
		Preview: toTableJSON(preview),
		Stats:   p.Describe(),
	})
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")
	if err := sessionFrom(r).RemoveFile(fileID); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	logging.FromContext(r.Context()).Info("file removed", "file_id", fileID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	p, err := pipelineFor(r, chi.URLParam(r, "fileID"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	var req cleanRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	op, err := core.ParseCleanOp(req.Operation)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	rec, err := s.service.Clean(p, op)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusOK, cleanResponse{Record: rec, File: p.Info()})
}

func (s *Server) handleSelectColumns(w http.ResponseWriter, r *http.Request) {
	p, err := pipelineFor(r, chi.URLParam(r, "fileID"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	var req columnsRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if err := p.Select(req.Columns); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusOK, p.Info())
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	p, err := pipelineFor(r, chi.URLParam(r, "fileID"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	n, err := queryInt(r, "n")
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if n == 0 {
		n = s.cfg.Pipeline.PreviewRows
	}
	writeJSON(w, r, http.StatusOK, toTableJSON(p.Preview(n)))
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	p, err := pipelineFor(r, chi.URLParam(r, "fileID"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	n, err := queryInt(r, "max")
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if n == 0 {
		n = s.cfg.Pipeline.ChartColumns
	}
	writeJSON(w, r, http.StatusOK, map[string][]table.Series{"series": p.Chart(n)})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	p, err := pipelineFor(r, chi.URLParam(r, "fileID"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	p.Reset()
	writeJSON(w, r, http.StatusOK, p.Info())
}

// handleExport streams the working table as a download. It serves both the
// page link and the API route.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	p, err := pipelineFor(r, chi.URLParam(r, "fileID"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	tag := r.URL.Query().Get("format")
	if tag == "" {
		tag = string(codec.CSV)
	}
	format, err := codec.ParseFormat(tag)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	art, err := s.service.Export(r.Context(), p, format)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	w.Header().Set("Content-Type", art.MIMEType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": art.FileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(art.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(art.Data); err != nil {
		logging.FromContext(r.Context()).Warn("write export", "file", art.FileName, "error", err)
	}
}

func fileAnchor(id string) string {
	return fmt.Sprintf("/#file-%s", id)
}
