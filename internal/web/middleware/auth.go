package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/datasweeper/internal/config"
	"github.com/go-chi/render"
)

// authError is the JSON body for rejected API requests.
type authError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// APIKeyAuth checks the X-API-Key header against the configured keys when
// RequireAPIKey is set. With it unset every request passes.
func APIKeyAuth(cfg config.SecurityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !cfg.RequireAPIKey {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")

			status, body := 0, authError{}
			switch {
			case key == "":
				status, body = http.StatusUnauthorized, authError{Error: "missing API key", Code: "AUTH001"}
			case !isValidAPIKey(key, cfg.APIKeys):
				status, body = http.StatusForbidden, authError{Error: "invalid API key", Code: "AUTH002"}
			}

			if status != 0 {
				slog.Warn("auth: rejected request",
					"path", r.URL.Path,
					"method", r.Method,
					"ip", r.RemoteAddr,
					"code", body.Code,
				)
				render.Status(r, status)
				render.JSON(w, r, body)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// isValidAPIKey compares against every key in constant time.
func isValidAPIKey(key string, validKeys []string) bool {
	valid := 0
	for _, k := range validKeys {
		valid |= subtle.ConstantTimeCompare([]byte(key), []byte(k))
	}
	return valid == 1
}
