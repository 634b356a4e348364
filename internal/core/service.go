package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/JonMunkholm/datasweeper/internal/codec"
	"github.com/JonMunkholm/datasweeper/internal/logging"
	"github.com/google/uuid"
)

// DefaultSessionTTL is how long an idle session is kept.
const DefaultSessionTTL = 2 * time.Hour

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	SessionTTL    time.Duration
	MaxFileSize   int64 // bytes, 0 = unlimited
	MaxFiles      int   // per session, 0 = unlimited
	MaxConcurrent int
	MaxWait       time.Duration
	Recorder      Recorder
}

// Recorder receives pipeline events for metrics.
type Recorder interface {
	FileIngested(format codec.Format, outcome string)
	CleanApplied(op CleanOp)
	Exported(format codec.Format, bytes int)
	SessionsActive(n int)
}

type nopRecorder struct{}

func (nopRecorder) FileIngested(codec.Format, string) {}
func (nopRecorder) CleanApplied(CleanOp)             {}
func (nopRecorder) Exported(codec.Format, int)       {}
func (nopRecorder) SessionsActive(int)               {}

// Ingest outcome labels passed to Recorder.FileIngested.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Service holds every live session in memory.
type Service struct {
	opts    Options
	limiter *Limiter
	rec     Recorder
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewService creates a Service.
func NewService(opts Options) *Service {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	rec := opts.Recorder
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Service{
		opts:     opts,
		limiter:  NewLimiter(opts.MaxConcurrent, opts.MaxWait),
		rec:      rec,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Limiter returns the service's conversion limiter.
func (s *Service) Limiter() *Limiter {
	return s.limiter
}

// NewSession creates an empty session.
func (s *Service) NewSession() *Session {
	sess := newSession(uuid.NewString(), s.now())

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	s.rec.SessionsActive(n)
	slog.Debug("session created", "session", sess.ID)
	return sess
}

// Session returns a live session and marks it as seen.
func (s *Service) Session(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	now := s.now()
	if now.Sub(sess.LastSeen()) > s.opts.SessionTTL {
		s.DeleteSession(id)
		return nil, fmt.Errorf("%w: %s expired", ErrSessionNotFound, id)
	}
	sess.touch(now)
	return sess, nil
}

// DeleteSession drops a session and all its tables.
func (s *Service) DeleteSession(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()

	s.rec.SessionsActive(n)
}

// SessionCount returns the number of live sessions.
func (s *Service) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// SetAnnotations stores the session's opaque notes.
func (s *Service) SetAnnotations(sessionID string, a Annotations) error {
	sess, err := s.Session(sessionID)
	if err != nil {
		return err
	}
	sess.SetAnnotations(a)
	return nil
}

// FileOutcome is the result of ingesting one file of a batch.
type FileOutcome struct {
	FileName string       `json:"fileName"`
	FileID   string       `json:"fileId,omitempty"`
	Error    *UserMessage `json:"error,omitempty"`

	Err error `json:"-"`
}

// OK reports whether the file was ingested.
func (o FileOutcome) OK() bool { return o.Err == nil }

// Ingest decodes each file in order and adds the successful ones to the
// session. A failing file gets its own outcome and the rest of the batch
// continues. The error return is reserved for problems with the session
// itself.
func (s *Service) Ingest(ctx context.Context, sessionID string, files []UploadedFile) ([]FileOutcome, error) {
	sess, err := s.Session(sessionID)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoFile
	}

	log := logging.WithFields(logging.WithSession(ctx, sessionID),
		"ip", GetIPAddressFromContext(ctx),
		"user_agent", GetUserAgentFromContext(ctx),
	)

	outcomes := make([]FileOutcome, 0, len(files))
	for _, f := range files {
		out := FileOutcome{FileName: f.Name}

		p, err := s.ingestOne(ctx, sess, f)
		if err != nil {
			msg := MapError(err)
			out.Err = err
			out.Error = &msg
			log.Warn("file rejected",
				"file", f.Name,
				"size", f.Size,
				"code", msg.Code,
				"user_error", FormatUserError(err),
				"error", err,
			)
		} else {
			out.FileID = p.ID
			log.Info("file ingested", "file", f.Name, "size", f.Size, "file_id", p.ID)
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

func (s *Service) ingestOne(ctx context.Context, sess *Session, f UploadedFile) (*Pipeline, error) {
	format, err := f.Format()
	if err != nil {
		s.rec.FileIngested(format, OutcomeRejected)
		return nil, err
	}
	if s.opts.MaxFileSize > 0 && f.Size > s.opts.MaxFileSize {
		s.rec.FileIngested(format, OutcomeRejected)
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrFileTooLarge, f.Name, f.Size, s.opts.MaxFileSize)
	}
	if s.opts.MaxFiles > 0 && sess.FileCount() >= s.opts.MaxFiles {
		s.rec.FileIngested(format, OutcomeRejected)
		return nil, fmt.Errorf("%w: limit is %d", ErrTooManyFiles, s.opts.MaxFiles)
	}

	var p *Pipeline
	err = s.limiter.Do(ctx, func() error {
		var openErr error
		p, openErr = Open(f)
		return openErr
	})
	if err != nil {
		s.rec.FileIngested(format, OutcomeFailed)
		return nil, err
	}

	if err := sess.addFile(p, s.opts.MaxFiles); err != nil {
		s.rec.FileIngested(format, OutcomeRejected)
		return nil, err
	}
	s.rec.FileIngested(format, OutcomeOK)
	return p, nil
}

// Clean applies op to a file and records it.
func (s *Service) Clean(p *Pipeline, op CleanOp) (CleanRecord, error) {
	rec, err := p.Clean(op)
	if err != nil {
		return rec, err
	}
	s.rec.CleanApplied(op)
	return rec, nil
}

// Export encodes a file's working table under the conversion limiter.
func (s *Service) Export(ctx context.Context, p *Pipeline, format codec.Format) (*Artifact, error) {
	var art *Artifact
	err := s.limiter.Do(ctx, func() error {
		var exportErr error
		art, exportErr = p.Export(format)
		return exportErr
	})
	if err != nil {
		return nil, err
	}
	s.rec.Exported(format, len(art.Data))
	return art, nil
}
