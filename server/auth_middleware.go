package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/jrsteele09/go-session-auth/auth"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeySession stores the validated *auth.SessionView
	ContextKeySession ContextKey = "session"
)

// bearerToken extracts the token from an "Authorization: Bearer" header.
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func sessionFromContext(ctx context.Context) (*auth.SessionView, bool) {
	view, ok := ctx.Value(ContextKeySession).(*auth.SessionView)
	return view, ok && view != nil
}

func withSession(r *http.Request, view *auth.SessionView) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ContextKeySession, view))
}

// RequireSession validates the bearer token and injects the session view.
// When the token was signed by a retained secret the response carries
// X-Session-Refresh so the client knows to call the refresh route.
func (s *Server) RequireSession() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeJSONError(w, "unauthorized", "missing bearer token", http.StatusUnauthorized)
				return
			}

			view, err := s.manager.ValidateSession(r.Context(), token)
			if err != nil {
				s.writeError(w, r, err)
				return
			}
			w.Header().Set(HeaderSessionRefresh, strconv.FormatBool(view.ShouldRefresh))

			next(w, withSession(r, view))
		}
	}
}

// RequireAdmin validates the bearer session together with the admin
// credential header. Either missing or invalid is a 403 once the session
// itself is valid.
func (s *Server) RequireAdmin() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeJSONError(w, "unauthorized", "missing bearer token", http.StatusUnauthorized)
				return
			}

			view, err := s.manager.ValidateAdminCredential(r.Context(), token, r.Header.Get(HeaderAdminCredential))
			if err != nil {
				s.writeError(w, r, err)
				return
			}
			w.Header().Set(HeaderSessionRefresh, strconv.FormatBool(view.ShouldRefresh))

			next(w, withSession(r, view))
		}
	}
}
