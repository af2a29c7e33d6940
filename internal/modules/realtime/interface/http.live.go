package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	domain "toursApi/internal/modules/realtime/domain"
	"toursApi/internal/modules/realtime/infrastructure"
	resource "toursApi/internal/modules/resource/domain"
	"toursApi/internal/shared/apperror"
	"toursApi/internal/shared/auth"
	"toursApi/internal/shared/normalization"
)

const (
	MessageForbidden = "You do not have permission to perform this action"
	MessageNoToken   = "You are not logged in! Please log in to get access."

	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

var sessionCounter atomic.Uint64

// Authenticator resolves a session token to the signed-in user.
type Authenticator func(ctx context.Context, token string) (resource.Document, error)

// NewLiveHandler exposes the live event feed. The token comes from the
// "token" query parameter, since browsers cannot set headers on websocket
// requests, or from the usual header and cookie. Only users holding one of
// roles may connect. "collections" narrows the feed, e.g. bookings,reviews.
func NewLiveHandler(hub *infrastructure.Hub, authenticate Authenticator, roles ...string) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Response().Header().Get(echo.HeaderXRequestID)
		peerIP := c.RealIP()

		token := auth.ExtractTokenFromQuery(c.Request(), "token")
		if token == "" {
			token = auth.ExtractToken(c.Request())
		}
		if token == "" {
			return apperror.Unauthorized(MessageNoToken)
		}
		user, err := authenticate(c.Request().Context(), token)
		if err != nil {
			slog.Warn("live ws auth failed", slog.String("ip", peerIP), slog.Any("error", err))
			return err
		}
		role, _ := user["role"].(string)
		if len(roles) > 0 && !slices.Contains(roles, role) {
			return apperror.Forbidden(MessageForbidden)
		}

		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			slog.Error("live ws upgrade failed", slog.String("ip", peerIP), slog.String("reqID", requestID), slog.Any("error", err))
			return nil
		}

		userID := resource.IDOf(user)
		sessionID := fmt.Sprintf("live-%d", sessionCounter.Add(1))
		collections := normalization.NormalizeEntities(c.QueryParam("collections"))
		client := infrastructure.NewClient(hub, conn, userID, sessionID, sendBuffer)
		hub.AttachClient(client, collections)

		go client.WritePump()
		go client.ReadPump()

		client.SendDomainMessage(domain.Connected(sessionID, userID, collections))
		slog.Info("live ws connected", slog.String("userId", userID), slog.String("sessionId", sessionID), slog.String("ip", peerIP), slog.String("reqID", requestID))
		return nil
	}
}
