package core

// sweeper.go expires idle sessions.
//
// Sessions live only in memory, so an abandoned browser tab would otherwise
// hold its tables until the process exits. The sweeper is long-running and
// stops when its context is cancelled.

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is how often idle sessions are checked.
const DefaultSweepInterval = 5 * time.Minute

// StartSessionSweeper removes sessions idle longer than the session TTL,
// every interval, until ctx is cancelled. Run it in its own goroutine.
func (s *Service) StartSessionSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	slog.Info("session sweeper started",
		"interval", interval,
		"ttl", s.opts.SessionTTL,
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case <-ticker.C:
			s.SweepExpired()
		}
	}
}

// SweepExpired removes idle sessions once and returns how many were dropped.
func (s *Service) SweepExpired() int {
	cutoff := s.now().Add(-s.opts.SessionTTL)

	s.mu.Lock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.LastSeen().Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	remaining := len(s.sessions)
	s.mu.Unlock()

	if removed > 0 {
		s.rec.SessionsActive(remaining)
		slog.Info("expired idle sessions", "removed", removed, "remaining", remaining)
	}
	return removed
}
