package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/authcore/auth-service/auth"
	"github.com/authcore/auth-service/internal/config"
	fakechecker "github.com/authcore/auth-service/policy/checkerfake"
	"github.com/authcore/auth-service/secrets"
	"github.com/authcore/auth-service/server"
	"github.com/authcore/auth-service/token"
	fakeuserrepo "github.com/authcore/auth-service/users/repofake"
)

const (
	testEmail    = "john.doe@example.com"
	testName     = "John Doe"
	testPassword = "Password123!"
)

type testFixture struct {
	server  *server.Server
	checker *fakechecker.FakeChecker
	now     time.Time
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Payload json.RawMessage `json:"payload"`
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		checker: fakechecker.NewFakeChecker(),
		now:     time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	nowFunc := func() time.Time { return f.now }

	userRepo := fakeuserrepo.NewFakeUserRepo()
	userRepo.NowTime = nowFunc
	tokens := token.NewManager(secrets.Static("server-test-secret"), 0, 0, token.WithNowTime(nowFunc))

	authService, err := auth.NewService(
		auth.Repos{Users: userRepo},
		tokens,
		f.checker,
		auth.WithNowTime(nowFunc),
	)
	require.NoError(t, err)

	f.server = server.New(config.New(), authService, zerolog.Nop())
	return f
}

func (f *testFixture) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	var resp envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec, resp
}

func (f *testFixture) register(t *testing.T) {
	t.Helper()

	rec, _ := f.do(t, http.MethodPost, server.RouteRegister, map[string]string{
		"email":    testEmail,
		"password": testPassword,
		"name":     testName,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
}

func (f *testFixture) login(t *testing.T, password string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	return f.do(t, http.MethodPost, server.RouteLogin, map[string]string{
		"email":    testEmail,
		"password": password,
	})
}

func TestRegisterEndpoint(t *testing.T) {
	t.Run("register then duplicate", func(t *testing.T) {
		f := setupTestFixture(t)

		rec, resp := f.do(t, http.MethodPost, server.RouteRegister, map[string]string{
			"email":    testEmail,
			"password": testPassword,
			"name":     testName,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		require.True(t, resp.Success)
		require.Equal(t, "Registered", resp.Message)

		rec, resp = f.do(t, http.MethodPost, server.RouteRegister, map[string]string{
			"email":    testEmail,
			"password": testPassword,
			"name":     testName,
		})
		require.Equal(t, http.StatusConflict, rec.Code)
		require.False(t, resp.Success)
		require.Equal(t, "User exists", resp.Message)
	})

	t.Run("validation issues are itemized", func(t *testing.T) {
		f := setupTestFixture(t)

		rec, resp := f.do(t, http.MethodPost, server.RouteRegister, map[string]string{
			"email":    "not-an-email",
			"password": "short",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "Validation failed", resp.Message)

		var payload struct {
			Issues []string `json:"issues"`
		}
		require.NoError(t, json.Unmarshal(resp.Payload, &payload))
		require.Equal(t, []string{
			"Please provide a valid email address",
			"Password must be at least 8 characters long",
			"Name is required",
		}, payload.Issues)
	})

	t.Run("weak password reasons are itemized", func(t *testing.T) {
		f := setupTestFixture(t)
		f.checker.Result.OK = false
		f.checker.Result.Reasons = []string{"no_number"}

		rec, resp := f.do(t, http.MethodPost, server.RouteRegister, map[string]string{
			"email":    testEmail,
			"password": testPassword,
			"name":     testName,
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "Password does not meet security requirements", resp.Message)

		var payload struct {
			Reasons []string `json:"reasons"`
		}
		require.NoError(t, json.Unmarshal(resp.Payload, &payload))
		require.Equal(t, []string{"Password must contain at least one number"}, payload.Reasons)
	})

	t.Run("checker outage is a server error", func(t *testing.T) {
		f := setupTestFixture(t)
		f.checker.Err = errTestOutage

		rec, resp := f.do(t, http.MethodPost, server.RouteRegister, map[string]string{
			"email":    testEmail,
			"password": testPassword,
			"name":     testName,
		})
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Equal(t, "Password validation failed", resp.Message)
	})
}

func TestLoginEndpoint(t *testing.T) {
	t.Run("valid credentials return a token pair", func(t *testing.T) {
		f := setupTestFixture(t)
		f.register(t)

		rec, resp := f.login(t, testPassword)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "Login successful", resp.Message)

		var pair token.Pair
		require.NoError(t, json.Unmarshal(resp.Payload, &pair))
		require.NotEmpty(t, pair.AccessToken)
		require.NotEmpty(t, pair.RefreshToken)
	})

	t.Run("wrong password and unknown user read the same", func(t *testing.T) {
		f := setupTestFixture(t)
		f.register(t)

		rec, resp := f.login(t, "WrongPassword1!")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "Invalid credentials", resp.Message)

		rec, resp = f.do(t, http.MethodPost, server.RouteLogin, map[string]string{
			"email":    "nobody@example.com",
			"password": testPassword,
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "Invalid credentials", resp.Message)
	})

	t.Run("repeated failures lock the account", func(t *testing.T) {
		f := setupTestFixture(t)
		f.register(t)

		for i := 0; i < 5; i++ {
			rec, _ := f.login(t, "WrongPassword1!")
			require.Equal(t, http.StatusUnauthorized, rec.Code)
		}

		// Correct password no longer helps while the lock holds
		rec, resp := f.login(t, testPassword)
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.Equal(t, "Too many requests", resp.Message)

		// Lock expiry restores access
		f.now = f.now.Add(33 * time.Minute)
		rec, _ = f.login(t, testPassword)
		require.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRefreshEndpoint(t *testing.T) {
	t.Run("refresh token exchanges for a new pair", func(t *testing.T) {
		f := setupTestFixture(t)
		f.register(t)

		_, resp := f.login(t, testPassword)
		var pair token.Pair
		require.NoError(t, json.Unmarshal(resp.Payload, &pair))

		rec, resp := f.do(t, http.MethodPost, server.RouteRefresh, map[string]string{
			"refreshToken": pair.RefreshToken,
		})
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "Token refreshed", resp.Message)

		var refreshed token.Pair
		require.NoError(t, json.Unmarshal(resp.Payload, &refreshed))
		require.NotEmpty(t, refreshed.AccessToken)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		f := setupTestFixture(t)
		f.register(t)

		_, resp := f.login(t, testPassword)
		var pair token.Pair
		require.NoError(t, json.Unmarshal(resp.Payload, &pair))

		rec, resp := f.do(t, http.MethodPost, server.RouteRefresh, map[string]string{
			"refreshToken": pair.AccessToken,
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "Authentication failed", resp.Message)
	})

	t.Run("missing token is a validation failure", func(t *testing.T) {
		f := setupTestFixture(t)

		rec, resp := f.do(t, http.MethodPost, server.RouteRefresh, map[string]string{})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "Validation failed", resp.Message)
	})
}

func TestRouting(t *testing.T) {
	t.Run("non-POST gets 405 even on unknown paths", func(t *testing.T) {
		f := setupTestFixture(t)

		rec, resp := f.do(t, http.MethodGet, server.RouteLogin, nil)
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		require.Equal(t, "Method Not Allowed", resp.Message)
		require.False(t, resp.Success)

		rec, resp = f.do(t, http.MethodGet, "/nope", nil)
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		require.Equal(t, "Method Not Allowed", resp.Message)
	})

	t.Run("unknown POST path gets the envelope 404", func(t *testing.T) {
		f := setupTestFixture(t)

		rec, resp := f.do(t, http.MethodPost, "/nope", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "Not Found", resp.Message)
		require.False(t, resp.Success)
	})

	t.Run("unparseable body gets 400", func(t *testing.T) {
		f := setupTestFixture(t)

		req := httptest.NewRequest(http.MethodPost, server.RouteLogin, bytes.NewBufferString("{not json"))
		rec := httptest.NewRecorder()
		f.server.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)

		var resp envelope
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Equal(t, "Invalid JSON", resp.Message)
	})

	t.Run("responses are JSON with charset", func(t *testing.T) {
		f := setupTestFixture(t)

		rec, _ := f.do(t, http.MethodPost, "/nope", nil)
		require.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	})
}

func TestRouteLogging(t *testing.T) {
	t.Setenv("ENV", "DEV")

	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	tokens := token.NewManager(secrets.Static("server-test-secret"), 0, 0)
	authService, err := auth.NewService(
		auth.Repos{Users: fakeuserrepo.NewFakeUserRepo()},
		tokens,
		fakechecker.NewFakeChecker(),
	)
	require.NoError(t, err)

	server.New(config.New(), authService, logger)

	logged := buf.String()
	require.Contains(t, logged, "route_registered")
	for _, route := range []string{server.RouteRegister, server.RouteLogin, server.RouteRefresh} {
		require.Contains(t, logged, route)
	}
}

var errTestOutage = errors.New("password checker unavailable")
