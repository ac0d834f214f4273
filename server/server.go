package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/docusign-mcp-server/internal/config"
	"github.com/jrsteele09/docusign-mcp-server/sessions"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// StateReporter reports the session state without network I/O.
// *sessions.Manager satisfies it.
type StateReporter interface {
	State() sessions.State
}

// Server is the HTTP transport: the MCP endpoint plus a health check.
type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	mux     *http.ServeMux
	routes  []string
	mcp     http.Handler
	session StateReporter
	logger  zerolog.Logger
}

type Option func(*Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New wires mcpHandler (normally an mcp-go StreamableHTTPServer) and the
// health check onto a mux.
func New(cfg config.EnvConfig, mcpHandler http.Handler, session StateReporter, options ...Option) *Server {
	s := &Server{
		env:     cfg.GetEnv(),
		mux:     http.NewServeMux(),
		mcp:     mcpHandler,
		session: session,
		logger:  log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}

	s.initRoutes()
	s.logRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			s.logRoute(parts[0], parts[1])
		} else {
			s.logRoute("", parts[0])
		}
	}
}

func (s *Server) logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	s.logger.Info().Msgf("[%-19s] %s", displayMethod, path)
}
