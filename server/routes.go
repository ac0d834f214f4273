package server

import (
	"encoding/json"
	"net/http"
)

func (s *Server) initRoutes() {
	s.RegisterRouteHandler(RouteMCP, ChainMiddleware(s.mcp.ServeHTTP, s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))
}

type healthResponse struct {
	Status  string `json:"status"`
	Session string `json:"session"`
}

// HealthHandler reports liveness and the session state. It never triggers
// authentication.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		resp := healthResponse{Status: "ok", Session: s.session.State().String()}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			s.logger.Error().Err(err).Msg("writing health response")
		}
	}
}
