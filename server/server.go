package server

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/authcore/auth-service/auth"
	"github.com/authcore/auth-service/internal/config"
)

// Routes served by the API. Everything is POST; anything else is answered
// with the same JSON envelope as a success.
const (
	RouteRegister = "/register"
	RouteLogin    = "/login"
	RouteRefresh  = "/token/refresh"
)

type Server struct {
	env    string // Environment (e.g., "DEV", "production")
	mux    *http.ServeMux
	routes []string
	config config.Config
	auth   *auth.Service
	log    zerolog.Logger
}

func New(cfg config.Config, authService *auth.Service, log zerolog.Logger) *Server {
	s := &Server{
		mux:    http.NewServeMux(),
		config: cfg,
		auth:   authService,
		log:    log,
	}
	s.env = cfg.GetEnv()

	s.initRoutes()
	s.logRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		s.log.Info().Str("method", http.MethodPost).Str("route", route).Msg("route_registered")
	}
}

func (s *Server) initRoutes() {
	s.RegisterRouteFunc(RouteRegister, s.RegisterHandler())
	s.RegisterRouteFunc(RouteLogin, s.LoginHandler())
	s.RegisterRouteFunc(RouteRefresh, s.RefreshHandler())
	s.RegisterRouteFunc("/", s.NotFoundHandler())
}

// RegisterRouteFunc mounts a handler behind the standard middleware chain.
// The method check sits innermost so a GET to an unknown path still gets
// 405 before the 404 catch-all would answer, matching the original API.
func (s *Server) RegisterRouteFunc(pattern string, handler http.HandlerFunc) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, ChainMiddleware(handler,
		s.RequestContextMiddleware,
		s.RecoverMiddleware,
		s.PostOnlyMiddleware,
	))
}
