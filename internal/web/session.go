package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/datasweeper/internal/core"
	"github.com/JonMunkholm/datasweeper/internal/logging"
	mw "github.com/JonMunkholm/datasweeper/internal/web/middleware"
)

type sessionKey struct{}

// sessionMiddleware loads the caller's session from its cookie, starting a
// new one when the cookie is missing or the session has expired.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sess *core.Session
		if c, err := r.Cookie(s.cfg.Session.CookieName); err == nil {
			sess, _ = s.service.Session(c.Value)
		}
		if sess == nil {
			sess = s.service.NewSession()
			http.SetCookie(w, &http.Cookie{
				Name:     s.cfg.Session.CookieName,
				Value:    sess.ID,
				Path:     "/",
				MaxAge:   int(s.cfg.Session.TTL.Seconds()),
				HttpOnly: true,
				Secure:   s.cfg.Session.CookieSecure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), sessionKey{}, sess)
		ctx = logging.WithSession(ctx, sess.ID)
		ctx = core.ContextWithClient(ctx, mw.ClientIP(r), r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionFrom returns the session attached by sessionMiddleware.
func sessionFrom(r *http.Request) *core.Session {
	sess, _ := r.Context().Value(sessionKey{}).(*core.Session)
	return sess
}

// pipelineFor resolves the {fileID} URL parameter within the caller's session.
func pipelineFor(r *http.Request, fileID string) (*core.Pipeline, error) {
	sess := sessionFrom(r)
	if sess == nil {
		return nil, core.ErrSessionNotFound
	}
	return sess.File(fileID)
}
