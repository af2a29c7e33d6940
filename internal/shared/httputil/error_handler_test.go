package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toursApi/internal/shared/apperror"
)

var errTokenExpired = errors.New("token expired")

func render(t *testing.T, development bool, err error) (int, ErrorBody) {
	t.Helper()
	e := echo.New()
	mapper := NewErrorMapper().WithMapping(errTokenExpired, http.StatusUnauthorized, "Your token has expired! Please log in again.")
	e.HTTPErrorHandler = NewHTTPErrorHandler(development, mapper)
	e.GET("/boom", func(echo.Context) error { return err })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestHTTPErrorHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		development bool
		err         error
		wantStatus  int
		wantLabel   string
		wantMessage string
	}{
		{"not found", false, apperror.NotFound("No document found with that ID"), 404, "fail", "No document found with that ID"},
		{"validation", false, apperror.BadRequest("Invalid _id: x."), 400, "fail", "Invalid _id: x."},
		{"store hidden in production", false, apperror.Store("store operation failed", errors.New("dial tcp")), 500, "error", MessageUnexpected},
		{"store shown in development", true, apperror.Store("store operation failed", errors.New("dial tcp")), 500, "error", "store operation failed"},
		{"unknown error hidden", false, errors.New("nil map"), 500, "error", MessageUnexpected},
		{"mapped sentinel", false, errTokenExpired, 401, "fail", "Your token has expired! Please log in again."},
		{"echo error", false, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "Request Entity Too Large"), 413, "fail", "Request Entity Too Large"},
		{"deadline", false, apperror.Store("store operation interrupted", context.DeadlineExceeded), 504, "error", "request timeout"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			status, body := render(t, tt.development, tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantLabel, body.Status)
			assert.Equal(t, tt.wantMessage, body.Message)
			if tt.development {
				assert.NotEmpty(t, body.Error)
			} else {
				assert.Empty(t, body.Error)
			}
		})
	}
}

func TestHTTPErrorHandlerUnknownRoute(t *testing.T) {
	t.Parallel()

	e := echo.New()
	e.HTTPErrorHandler = NewHTTPErrorHandler(false, nil)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/nowhere?x=1", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Can't find /api/v1/nowhere?x=1 on this server!")
}

func TestReadPayload(t *testing.T) {
	t.Parallel()

	e := echo.New()
	tests := []struct {
		name        string
		contentType string
		body        string
		want        map[string]any
		wantErr     bool
	}{
		{"json", echo.MIMEApplicationJSON, `{"name":"Forest","price":397}`, map[string]any{"name": "Forest", "price": 397.0}, false},
		{"empty", echo.MIMEApplicationJSON, ``, map[string]any{}, false},
		{"form", echo.MIMEApplicationForm, `name=Forest&images=a&images=b`, map[string]any{"name": "Forest", "images": []any{"a", "b"}}, false},
		{"broken json", echo.MIMEApplicationJSON, `{"name":`, nil, true},
		{"array", echo.MIMEApplicationJSON, `[1,2]`, nil, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, tt.contentType)
			c := e.NewContext(req, httptest.NewRecorder())

			got, err := ReadPayload(c)
			if tt.wantErr {
				assert.True(t, apperror.Is(err, apperror.KindValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
