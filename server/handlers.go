package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/authcore/auth-service/auth"
	"github.com/authcore/auth-service/users"
)

// RegisterHandler processes POST /register.
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in auth.RegisterInput
		if !s.decodeBody(w, r, &in) {
			return
		}
		if err := s.auth.Register(r.Context(), in); err != nil {
			s.writeError(w, r, err)
			return
		}
		writeResponse(w, http.StatusCreated, "Registered", nil)
	}
}

// LoginHandler processes POST /login.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in auth.LoginInput
		if !s.decodeBody(w, r, &in) {
			return
		}
		pair, err := s.auth.Login(r.Context(), in)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeResponse(w, http.StatusOK, "Login successful", pair)
	}
}

// RefreshHandler processes POST /token/refresh.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			RefreshToken string `json:"refreshToken"`
		}
		if !s.decodeBody(w, r, &in) {
			return
		}
		pair, err := s.auth.Refresh(r.Context(), in.RefreshToken)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeResponse(w, http.StatusOK, "Token refreshed", pair)
	}
}

// NotFoundHandler answers every unrouted path.
func (s *Server) NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Warn().Msg("route_not_found")
		writeResponse(w, http.StatusNotFound, "Not Found", nil)
	}
}

// decodeBody decodes the JSON body into v, answering 400 itself when the
// body is unparseable. An empty body decodes to the zero value so that
// missing-field validation produces itemized issues instead.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		zerolog.Ctx(r.Context()).Warn().Msg("invalid_json")
		writeResponse(w, http.StatusBadRequest, "Invalid JSON", nil)
		return false
	}
	return true
}

// writeError maps a domain outcome to its status code and safe message.
// Anything unrecognized is logged in full and leaves as a generic 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *auth.ValidationError
	var weakPasswordErr *auth.WeakPasswordError

	switch {
	case errors.As(err, &validationErr):
		writeResponse(w, http.StatusBadRequest, "Validation failed", map[string]interface{}{
			"issues": validationErr.Issues,
		})
	case errors.As(err, &weakPasswordErr):
		writeResponse(w, http.StatusBadRequest, "Password does not meet security requirements", map[string]interface{}{
			"reasons": weakPasswordErr.Reasons,
		})
	case errors.Is(err, users.ErrUserExists):
		writeResponse(w, http.StatusConflict, "User exists", nil)
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeResponse(w, http.StatusUnauthorized, "Invalid credentials", nil)
	case errors.Is(err, auth.ErrInvalidRefreshToken):
		writeResponse(w, http.StatusUnauthorized, "Authentication failed", nil)
	case errors.Is(err, auth.ErrAccountLocked):
		writeResponse(w, http.StatusTooManyRequests, "Too many requests", nil)
	case errors.Is(err, auth.ErrPasswordCheckUnavailable):
		writeResponse(w, http.StatusInternalServerError, "Password validation failed", nil)
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("unhandled_error")
		writeResponse(w, http.StatusInternalServerError, "Internal server error", nil)
	}
}
