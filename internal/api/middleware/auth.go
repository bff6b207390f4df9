package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/kiranshivaraju/logtrail/internal/api/response"
	"github.com/kiranshivaraju/logtrail/internal/apperr"
	"github.com/kiranshivaraju/logtrail/internal/config"
)

// Auth identifies the caller from a session token.
type Auth struct {
	secret     []byte
	cookieName string
}

// NewAuth creates a new Auth middleware.
func NewAuth(cfg config.SessionConfig) *Auth {
	return &Auth{secret: []byte(cfg.Secret), cookieName: cfg.CookieName}
}

// Authenticate reads the session token from the session cookie, falling back
// to a Bearer Authorization header, and sets the user id in the request
// context. Requests without a valid session are refused with 403.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := a.extractToken(r)
		if token == "" {
			response.FromError(w, r, apperr.Unauthenticated("authentication required"))
			return
		}

		userID, err := ValidateSession(token, a.secret)
		if err != nil {
			slog.Debug("session rejected", "error", err, "path", r.URL.Path)
			response.FromError(w, r, apperr.Unauthenticated("invalid session"))
			return
		}

		next.ServeHTTP(w, r.WithContext(SetUserID(r.Context(), userID)))
	})
}

func (a *Auth) extractToken(r *http.Request) string {
	if a.cookieName != "" {
		if c, err := r.Cookie(a.cookieName); err == nil && c.Value != "" {
			return c.Value
		}
	}
	return extractBearerToken(r)
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
