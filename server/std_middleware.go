package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func ChainMiddleware(routeFunction http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	chainedHandler := routeFunction
	// Apply middleware in reverse order
	for i := len(mw) - 1; i >= 0; i-- {
		chainedHandler = mw[i](chainedHandler)
	}
	return chainedHandler
}

// RequestContextMiddleware attaches a request-scoped logger carrying a
// fresh request id, so every event down the call chain can be correlated.
func (s *Server) RequestContextMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := s.log.With().
			Str("request_id", uuid.New().String()).
			Str("path", r.URL.Path).
			Logger()
		next(w, r.WithContext(log.WithContext(r.Context())))
	}
}

// RecoverMiddleware converts a panic into a generic 500; the detail stays
// in the log.
func (s *Server) RecoverMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				zerolog.Ctx(r.Context()).Error().Interface("panic", rec).Msg("handler_panic")
				writeResponse(w, http.StatusInternalServerError, "Internal server error", nil)
			}
		}()
		next(w, r)
	}
}

// PostOnlyMiddleware rejects any non-POST request with the JSON envelope
// rather than the mux's plain-text 405.
func (s *Server) PostOnlyMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			zerolog.Ctx(r.Context()).Warn().Str("method", r.Method).Msg("invalid_method")
			writeResponse(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
			return
		}
		next(w, r)
	}
}
