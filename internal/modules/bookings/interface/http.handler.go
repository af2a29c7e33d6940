package transport

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"toursApi/internal/modules/bookings/application/usecase"
	"toursApi/internal/modules/bookings/domain"
	resource "toursApi/internal/modules/resource/interface"
	"toursApi/internal/shared/apperror"
	"toursApi/internal/shared/httputil"
)

const (
	RoleAdmin     = "admin"
	RoleLeadGuide = "lead-guide"

	WebhookPath = "/webhook-checkout"

	mimeXLSX        = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	maxWebhookBytes = 1 << 16
)

// CurrentUserFunc returns the id of the signed-in user.
type CurrentUserFunc func(c echo.Context) string

type Handler struct {
	crud        *resource.Handler
	service     *usecase.Service
	currentUser CurrentUserFunc
}

func NewHandler(service *usecase.Service, currentUser CurrentUserFunc) *Handler {
	return &Handler{
		crud:        resource.NewHandler(service.Resources()),
		service:     service,
		currentUser: currentUser,
	}
}

func (h *Handler) MyTours(c echo.Context) error {
	tours, err := h.service.MyTours(c.Request().Context(), h.currentUser(c))
	if err != nil {
		return err
	}
	return httputil.List(c, len(tours), int64(len(tours)), tours)
}

func (h *Handler) Export(c echo.Context) error {
	var buf bytes.Buffer
	if err := h.service.Export(c.Request().Context(), &buf); err != nil {
		return err
	}
	name := fmt.Sprintf("bookings-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, mimeXLSX, buf.Bytes())
}

// Webhook receives checkout events. The body must stay unparsed for the
// signature check.
func (h *Handler) Webhook(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBytes))
	if err != nil {
		return apperror.BadRequest(usecase.MessageWebhookError + err.Error())
	}
	signature := c.Request().Header.Get(domain.SignatureHeader)
	if _, err := h.service.Checkout(c.Request().Context(), signature, body); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}

// Routes mounts /bookings. The webhook is public, my-tours needs a
// signed-in user and everything else is for admins and lead guides.
func (h *Handler) Routes(g *echo.Group, access httputil.Access) {
	g.POST(WebhookPath, h.Webhook)
	g.GET("/my-tours", h.MyTours, access.Authenticated()...)

	staff := access.Roles(RoleAdmin, RoleLeadGuide)
	g.GET("/export", h.Export, staff...)
	g.GET("", h.crud.List, staff...)
	g.POST("", h.crud.CreateOne, staff...)
	g.GET("/:id", h.crud.GetOne, staff...)
	g.PATCH("/:id", h.crud.UpdateOne, staff...)
	g.DELETE("/:id", h.crud.DeleteOne, staff...)
}
