package core

import (
	"fmt"
	"sync"
	"time"
)

// Session is one user's workspace: their files in upload order plus the
// opaque annotation fields. Sessions never share pipelines.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu          sync.RWMutex
	lastSeen    time.Time
	annotations Annotations
	order       []string
	files       map[string]*Pipeline
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		CreatedAt: now,
		lastSeen:  now,
		files:     make(map[string]*Pipeline),
	}
}

// Annotations returns the session's goal and reflection notes.
func (s *Session) Annotations() Annotations {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.annotations
}

// SetAnnotations replaces the session's notes.
func (s *Session) SetAnnotations(a Annotations) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.annotations = a
}

// Files returns the session's pipelines in upload order.
func (s *Session) Files() []*Pipeline {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Pipeline, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.files[id])
	}
	return out
}

// File returns the pipeline with the given ID.
func (s *Session) File(id string) (*Pipeline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, id)
	}
	return p, nil
}

// FileCount returns the number of files in the session.
func (s *Session) FileCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// RemoveFile drops a pipeline from the session.
func (s *Session) RemoveFile(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[id]; !ok {
		return fmt.Errorf("%w: %s", ErrFileNotFound, id)
	}
	delete(s.files, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// addFile appends p unless the session already holds max files.
// A non-positive max means no limit.
func (s *Session) addFile(p *Pipeline, max int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if max > 0 && len(s.order) >= max {
		return fmt.Errorf("%w: limit is %d", ErrTooManyFiles, max)
	}
	s.files[p.ID] = p
	s.order = append(s.order, p.ID)
	return nil
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// LastSeen returns the time of the last lookup of this session.
func (s *Session) LastSeen() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeen
}
