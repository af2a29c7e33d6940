package transport

import (
	"net/http"

	"github.com/labstack/echo/v4"

	query "toursApi/internal/modules/query/domain"
	"toursApi/internal/modules/resource/application/usecase"
	"toursApi/internal/modules/resource/domain"
	"toursApi/internal/shared/httputil"
)

const DefaultIDParam = "id"

// ScopeFunc restricts List to the records a route may see.
type ScopeFunc func(c echo.Context) query.FilterExpression

// PayloadFunc adjusts a create payload from the request context.
type PayloadFunc func(c echo.Context, payload domain.Document) error

// Handler exposes a Service as the five CRUD endpoints.
type Handler struct {
	service  *usecase.Service
	idParam  string
	scope    ScopeFunc
	onCreate PayloadFunc
}

type HandlerOption func(*Handler)

func WithIDParam(name string) HandlerOption {
	return func(h *Handler) {
		h.idParam = name
	}
}

func WithScope(fn ScopeFunc) HandlerOption {
	return func(h *Handler) {
		h.scope = fn
	}
}

func WithCreatePayload(fn PayloadFunc) HandlerOption {
	return func(h *Handler) {
		h.onCreate = fn
	}
}

func NewHandler(service *usecase.Service, opts ...HandlerOption) *Handler {
	h := &Handler{service: service, idParam: DefaultIDParam}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Service() *usecase.Service {
	return h.service
}

func (h *Handler) List(c echo.Context) error {
	var scope query.FilterExpression
	if h.scope != nil {
		scope = h.scope(c)
	}
	res, err := h.service.List(c.Request().Context(), query.ParseDescriptor(c.Request().URL.RawQuery), scope)
	if err != nil {
		return err
	}
	return httputil.List(c, res.Results, res.Total, res.Records)
}

func (h *Handler) GetOne(c echo.Context) error {
	doc, err := h.service.GetOne(c.Request().Context(), c.Param(h.idParam))
	if err != nil {
		return err
	}
	return httputil.Success(c, http.StatusOK, doc)
}

func (h *Handler) CreateOne(c echo.Context) error {
	payload, err := httputil.ReadPayload(c)
	if err != nil {
		return err
	}
	if h.onCreate != nil {
		if err := h.onCreate(c, payload); err != nil {
			return err
		}
	}
	doc, err := h.service.CreateOne(c.Request().Context(), payload)
	if err != nil {
		return err
	}
	return httputil.Success(c, http.StatusCreated, doc)
}

func (h *Handler) UpdateOne(c echo.Context) error {
	payload, err := httputil.ReadPayload(c)
	if err != nil {
		return err
	}
	return h.Update(c, payload)
}

// Update applies an already decoded payload.
func (h *Handler) Update(c echo.Context, payload domain.Document) error {
	doc, err := h.service.UpdateOne(c.Request().Context(), c.Param(h.idParam), payload)
	if err != nil {
		return err
	}
	return httputil.Success(c, http.StatusOK, doc)
}

func (h *Handler) DeleteOne(c echo.Context) error {
	if err := h.service.DeleteOne(c.Request().Context(), c.Param(h.idParam)); err != nil {
		return err
	}
	return httputil.Deleted(c)
}

// Routes mounts the endpoints on g. Middlewares guard every route;
// writeGuards additionally guard the mutating ones.
func (h *Handler) Routes(g *echo.Group, writeGuards ...echo.MiddlewareFunc) {
	g.GET("", h.List)
	g.POST("", h.CreateOne, writeGuards...)
	g.GET("/:"+h.idParam, h.GetOne)
	g.PATCH("/:"+h.idParam, h.UpdateOne, writeGuards...)
	g.DELETE("/:"+h.idParam, h.DeleteOne, writeGuards...)
}
