package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/jrsteele09/go-session-auth/auth"
	"github.com/jrsteele09/go-session-auth/internal/config"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	router  *mux.Router
	routes  []string
	manager *auth.SessionManager
	logger  zerolog.Logger
}

func New(cfg config.EnvConfig, manager *auth.SessionManager, logger zerolog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("[server.New] env config is required")
	}
	if manager == nil {
		return nil, errors.New("[server.New] session manager is required")
	}

	s := &Server{
		env:     cfg.GetEnv(),
		router:  mux.NewRouter(),
		manager: manager,
		logger:  logger,
	}
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, "not_found", "no such route", http.StatusNotFound)
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, "method_not_allowed", r.Method+" is not allowed here", http.StatusMethodNotAllowed)
	})

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// RegisterRouteFunc registers handler for a "METHOD /path" pattern.
func (s *Server) RegisterRouteFunc(pattern string, handler http.HandlerFunc) {
	method, path := splitPattern(pattern)
	s.routes = append(s.routes, pattern)
	route := s.router.HandleFunc(path, handler)
	if method != "" {
		route.Methods(method)
	}
}

func splitPattern(pattern string) (method, path string) {
	parts := strings.SplitN(pattern, " ", 2)
	if len(parts) > 1 {
		return parts[0], parts[1]
	}
	return "", parts[0]
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		s.logRoute(splitPattern(route))
	}
}

func (s *Server) logRoute(method, path string) {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	color, ok := methodColors[method]
	if !ok {
		color = Gray
	}
	s.logger.Info().Msgf("[%-19s] %s", color+paddedMethod+ResetColor, path)
}
