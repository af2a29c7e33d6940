package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toursApi/internal/config"
	"toursApi/internal/platform/storage"
	"toursApi/internal/shared/auth"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		App:      config.AppConfig{Env: config.EnvProduction, Port: "0"},
		Database: config.DatabaseConfig{Driver: config.DriverMemory},
		Auth: config.AuthConfig{
			JWTSecret:     "app-test-secret",
			JWTExpiresIn:  time.Hour,
			CookieExpires: time.Hour,
			BcryptCost:    4,
		},
		Storage:  config.StorageConfig{PublicDir: t.TempDir()},
		Payments: config.PaymentsConfig{WebhookSecret: "whsec_test", Tolerance: 5 * time.Minute},
		Security: config.SecurityConfig{
			RateLimitMax:    100,
			RateLimitWindow: time.Hour,
			BodyLimit:       "10KB",
			CORSOrigins:     []string{"*"},
		},
		Query:   config.QueryConfig{DefaultLimit: 10, MaxLimit: 100},
		Mail:    config.MailConfig{From: "Tours API <hello@tours.io>"},
		Logging: config.LoggingConfig{Level: "error"},
	}
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	a, err := New(context.Background(), testConfig(t), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })
	return a
}

type response struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Token   string          `json:"token"`
	Results *int            `json:"results"`
	Data    json.RawMessage `json:"data"`
}

func call(t *testing.T, a *App, method, target, body, token string) (*httptest.ResponseRecorder, response) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)

	var res response
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	}
	return rec, res
}

func TestPublicRoutes(t *testing.T) {
	a := newTestApp(t)

	tests := []struct {
		name    string
		method  string
		target  string
		status  int
		message string
	}{
		{name: "list tours", method: http.MethodGet, target: "/api/v1/tours", status: http.StatusOK},
		{name: "unknown route", method: http.MethodGet, target: "/api/v1/nowhere", status: http.StatusNotFound, message: "Can't find /api/v1/nowhere on this server!"},
		{name: "users need a session", method: http.MethodGet, target: "/api/v1/users", status: http.StatusUnauthorized},
		{name: "unsigned webhook", method: http.MethodPost, target: webhookRoute, status: http.StatusBadRequest, message: "Webhook error: "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, res := call(t, a, tt.method, tt.target, "", "")
			if rec.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if tt.message != "" {
				assert.Contains(t, res.Message, tt.message)
			}
		})
	}
}

func TestSignupThenRoleChecks(t *testing.T) {
	a := newTestApp(t)

	rec, res := call(t, a, http.MethodPost, "/api/v1/users/signup",
		`{"name":"Laura Wilson","email":"laura@example.com","password":"pass1234","passwordConfirm":"pass1234"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotEmpty(t, res.Token)

	rec, _ = call(t, a, http.MethodGet, "/api/v1/users/me", "", res.Token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = call(t, a, http.MethodPost, "/api/v1/tours", `{"name":"The Forest Hiker"}`, res.Token)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, res = call(t, a, http.MethodGet, "/api/v1/bookings/my-tours", "", res.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, res.Results)
	assert.Zero(t, *res.Results)
}

func TestMetricsAreExposed(t *testing.T) {
	a := newTestApp(t)
	call(t, a, http.MethodGet, "/api/v1/tours", "", "")

	req := httptest.NewRequest(http.MethodGet, metricsRoute, nil)
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tours_api_http_requests_total")
}

func TestErrorMapperTranslatesSentinels(t *testing.T) {
	mapper := ErrorMapper()
	tests := []struct {
		err    error
		status int
	}{
		{err: fmt.Errorf("parse: %w", auth.ErrInvalidToken), status: http.StatusUnauthorized},
		{err: auth.ErrExpiredToken, status: http.StatusUnauthorized},
		{err: storage.ErrInvalidKey, status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		info, ok := mapper.Lookup(tt.err)
		if !ok || info.Status != tt.status {
			t.Fatalf("expected %d for %v, got %d (found=%v)", tt.status, tt.err, info.Status, ok)
		}
	}
}
