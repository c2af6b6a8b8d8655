package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jrsteele09/go-session-auth/auth"
	"github.com/jrsteele09/go-session-auth/passkeys"
)

const maxBodyBytes = 64 << 10

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// PasskeyLoginHandler verifies an assertion and opens a session for the device.
func (s *Server) PasskeyLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var login auth.PasskeyLogin
		if err := decodeJSON(r, &login); err != nil {
			writeJSONError(w, "invalid_request", err.Error(), http.StatusBadRequest)
			return
		}
		issued, err := s.manager.LoginWithPasskey(r.Context(), login)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, issued)
	}
}

func (s *Server) RegisterPasskeyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, _ := sessionFromContext(r.Context())
		var reg passkeys.Registration
		if err := decodeJSON(r, &reg); err != nil {
			writeJSONError(w, "invalid_request", err.Error(), http.StatusBadRequest)
			return
		}
		cred, err := s.manager.RegisterPasskey(r.Context(), view.PrincipalID, reg)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, cred)
	}
}

func (s *Server) ListPasskeysHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, _ := sessionFromContext(r.Context())
		creds, err := s.manager.Passkeys(r.Context(), view.PrincipalID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if creds == nil {
			creds = []*passkeys.Credential{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"passkeys": creds})
	}
}

func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, _ := sessionFromContext(r.Context())
		writeJSON(w, http.StatusOK, view)
	}
}

func (s *Server) ActiveSessionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, _ := sessionFromContext(r.Context())
		list, err := s.manager.ActiveSessions(r.Context(), view.PrincipalID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"sessions": list})
	}
}

// RefreshHandler re-issues the bearer session under the current secret.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeJSONError(w, "unauthorized", "missing bearer token", http.StatusUnauthorized)
			return
		}
		issued, err := s.manager.Refresh(r.Context(), token)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, issued)
	}
}

// LogoutHandler ends the bearer session. An expired token still logs out.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeJSONError(w, "unauthorized", "missing bearer token", http.StatusUnauthorized)
			return
		}
		if err := s.manager.Logout(r.Context(), token); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) RevokeAllHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, _ := sessionFromContext(r.Context())
		removed, err := s.manager.RevokeAll(r.Context(), view.PrincipalID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"revoked": removed})
	}
}

func (s *Server) KycHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, _ := sessionFromContext(r.Context())
		req, err := s.manager.EvaluateKyc(r.Context(), view.PrincipalID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, req)
	}
}

func (s *Server) RotationStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.manager.RotationStatus())
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return errors.New("request body is not valid JSON")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}

// writeError maps err to its public form. The internal reason is already
// logged by the session manager and never reaches the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	public := auth.PublicError(err)
	switch public {
	case auth.ErrAuthenticationFailed:
		w.Header().Set("WWW-Authenticate", `Bearer realm="session"`)
		writeJSONError(w, "unauthorized", public.Error(), http.StatusUnauthorized)
	case auth.ErrAdminAccessDenied:
		writeJSONError(w, "forbidden", public.Error(), http.StatusForbidden)
	case auth.ErrStorageUnavailable:
		writeJSONError(w, "storage_unavailable", public.Error(), http.StatusServiceUnavailable)
	case auth.ErrInvalidRequest:
		writeJSONError(w, "invalid_request", public.Error(), http.StatusBadRequest)
	default:
		s.requestLogger(r).Error().Err(err).Str("path", r.URL.Path).Msg("unhandled error")
		writeJSONError(w, "server_error", "internal error", http.StatusInternalServerError)
	}
}
