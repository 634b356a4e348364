package web

import (
	"net/http"

	"github.com/JonMunkholm/datasweeper/internal/core"
	"github.com/JonMunkholm/datasweeper/internal/logging"
	"github.com/JonMunkholm/datasweeper/internal/web/templates"
	"github.com/go-chi/chi/v5"
)

// pageData prepares every file of the session for display. Rendering the page
// leaves each file at its current stage.
func (s *Server) pageData(sess *core.Session) templates.PageData {
	files := sess.Files()
	views := make([]templates.FileView, len(files))
	for i, p := range files {
		views[i] = templates.FileView(p.Snapshot(s.cfg.Pipeline.PreviewRows, s.cfg.Pipeline.ChartColumns))
	}
	return templates.PageData{
		Annotations: sess.Annotations(),
		Files:       views,
		MaxFileSize: s.cfg.Upload.MaxFileSize,
		MaxFiles:    s.cfg.Upload.MaxFiles,
	}
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, data templates.PageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.Page(data).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "error", err)
	}
}

// renderPageError shows the page with an alert for err. The technical error
// is logged.
func (s *Server) renderPageError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)
	logging.FromContext(r.Context()).Warn("page action failed",
		"path", r.URL.Path,
		"status", status,
		"code", msg.Code,
		"error", err,
	)

	data := s.pageData(sessionFrom(r))
	data.Error = &msg
	s.renderPage(w, r, status, data)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, s.pageData(sessionFrom(r)))
}

// handlePageUpload ingests the batch and shows the page with one result line
// per file.
func (s *Server) handlePageUpload(w http.ResponseWriter, r *http.Request) {
	files, err := s.readUploads(w, r)
	if err != nil {
		s.renderPageError(w, r, err)
		return
	}

	sess := sessionFrom(r)
	outcomes, err := s.service.Ingest(r.Context(), sess.ID, files)
	if err != nil {
		s.renderPageError(w, r, err)
		return
	}

	data := s.pageData(sess)
	data.Outcomes = outcomes
	s.renderPage(w, r, http.StatusOK, data)
}

// handlePageAnnotations updates whichever of goal and reflection the form
// submitted.
func (s *Server) handlePageAnnotations(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderPageError(w, r, err)
		return
	}

	sess := sessionFrom(r)
	notes := sess.Annotations()
	req := annotationsRequest{Goal: notes.Goal, Reflection: notes.Reflection}
	if r.PostForm.Has("goal") {
		req.Goal = r.PostForm.Get("goal")
	}
	if r.PostForm.Has("reflection") {
		req.Reflection = r.PostForm.Get("reflection")
	}
	if err := validateStruct(&req); err != nil {
		s.renderPageError(w, r, err)
		return
	}

	if err := s.service.SetAnnotations(sess.ID, core.Annotations{Goal: req.Goal, Reflection: req.Reflection}); err != nil {
		s.renderPageError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handlePageClean(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")
	p, err := pipelineFor(r, fileID)
	if err != nil {
		s.renderPageError(w, r, err)
		return
	}

	req := cleanRequest{Operation: r.FormValue("operation")}
	if err := validateStruct(&req); err != nil {
		s.renderPageError(w, r, err)
		return
	}
	op, err := core.ParseCleanOp(req.Operation)
	if err != nil {
		s.renderPageError(w, r, err)
		return
	}
	if _, err := s.service.Clean(p, op); err != nil {
		s.renderPageError(w, r, err)
		return
	}
	http.Redirect(w, r, fileAnchor(fileID), http.StatusSeeOther)
}

// handlePageColumns applies the checked columns. No boxes checked selects no
// columns.
func (s *Server) handlePageColumns(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")
	p, err := pipelineFor(r, fileID)
	if err != nil {
		s.renderPageError(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.renderPageError(w, r, err)
		return
	}

	if err := p.Select(r.PostForm["columns"]); err != nil {
		s.renderPageError(w, r, err)
		return
	}
	http.Redirect(w, r, fileAnchor(fileID), http.StatusSeeOther)
}

func (s *Server) handlePageReset(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")
	p, err := pipelineFor(r, fileID)
	if err != nil {
		s.renderPageError(w, r, err)
		return
	}
	p.Reset()
	http.Redirect(w, r, fileAnchor(fileID), http.StatusSeeOther)
}

func (s *Server) handlePageDelete(w http.ResponseWriter, r *http.Request) {
	if err := sessionFrom(r).RemoveFile(chi.URLParam(r, "fileID")); err != nil {
		s.renderPageError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
