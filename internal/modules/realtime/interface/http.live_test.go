package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toursApi/internal/modules/realtime/domain"
	"toursApi/internal/modules/realtime/infrastructure"
	resource "toursApi/internal/modules/resource/domain"
	"toursApi/internal/shared/apperror"
	"toursApi/internal/shared/httputil"
)

var users = map[string]resource.Document{
	"admin-token": {resource.IDField: "5c8a1d5b0190b214360dc057", "role": "admin"},
	"user-token":  {resource.IDField: "5c8a1d5b0190b214360dc058", "role": "user"},
}

func authenticate(_ context.Context, token string) (resource.Document, error) {
	if user, ok := users[token]; ok {
		return user, nil
	}
	return nil, apperror.Unauthorized("Invalid token. Please log in again!")
}

func newLiveServer(t *testing.T) (*httptest.Server, *infrastructure.Hub) {
	t.Helper()
	hub := infrastructure.NewHub()
	e := echo.New()
	e.HTTPErrorHandler = httputil.NewHTTPErrorHandler(false, nil)
	e.GET("/live", NewLiveHandler(hub, authenticate, "admin", "lead-guide"))
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv, hub
}

func dial(srv *httptest.Server, query string) (*websocket.Conn, *http.Response, error) {
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/live?" + query
	return websocket.DefaultDialer.Dial(url, nil)
}

func TestLiveFeedStreamsEvents(t *testing.T) {
	srv, hub := newLiveServer(t)
	conn, _, err := dial(srv, "token=admin-token&collections=bookings")
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var hello domain.Message
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, domain.TopicSystemConnected, hello.Topic)

	hub.Broadcast(context.Background(), &domain.Message{Topic: "review.created", Entity: "review"})
	hub.Broadcast(context.Background(), &domain.Message{Topic: "booking.created", Entity: "booking", ResourceID: "b1"})

	var got domain.Message
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "booking.created", got.Topic)
	assert.Equal(t, "b1", got.ResourceID)
}

func TestLiveFeedRejects(t *testing.T) {
	srv, _ := newLiveServer(t)
	tests := []struct {
		name   string
		query  string
		status int
	}{
		{name: "no token", query: "", status: http.StatusUnauthorized},
		{name: "bad token", query: "token=nope", status: http.StatusUnauthorized},
		{name: "wrong role", query: "token=user-token", status: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp, err := dial(srv, tt.query)
			require.Error(t, err)
			require.NotNil(t, resp)
			if resp.StatusCode != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, resp.StatusCode)
			}
		})
	}
}
