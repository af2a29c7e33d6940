package transport

import (
	"net/http"

	"github.com/labstack/echo/v4"

	mediausecase "toursApi/internal/modules/media/application/usecase"
	media "toursApi/internal/modules/media/interface"
	query "toursApi/internal/modules/query/domain"
	resource "toursApi/internal/modules/resource/interface"
	"toursApi/internal/modules/tours/application/usecase"
	"toursApi/internal/modules/tours/domain"
	"toursApi/internal/shared/httputil"
)

const (
	RoleAdmin     = "admin"
	RoleLeadGuide = "lead-guide"
	RoleGuide     = "guide"

	maxGalleryImages = 3
)

type Handler struct {
	crud    *resource.Handler
	service *usecase.Service
	images  *mediausecase.Processor
}

func NewHandler(service *usecase.Service, images *mediausecase.Processor) *Handler {
	return &Handler{
		crud:    resource.NewHandler(service.Resources()),
		service: service,
		images:  images,
	}
}

// TopCheap lists the five best rated, cheapest tours.
func (h *Handler) TopCheap(c echo.Context) error {
	d := domain.TopCheap(query.ParseDescriptor(c.Request().URL.RawQuery))
	c.Request().URL.RawQuery = d.Encode()
	return h.crud.List(c)
}

func (h *Handler) Stats(c echo.Context) error {
	stats, err := h.service.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return httputil.Success(c, http.StatusOK, map[string]any{"stats": stats})
}

func (h *Handler) MonthlyPlan(c echo.Context) error {
	plan, err := h.service.MonthlyPlan(c.Request().Context(), c.Param("year"))
	if err != nil {
		return err
	}
	return httputil.Success(c, http.StatusOK, map[string]any{"plan": plan})
}

func (h *Handler) Within(c echo.Context) error {
	tours, err := h.service.Within(c.Request().Context(), c.Param("distance"), c.Param("latlng"), c.Param("unit"))
	if err != nil {
		return err
	}
	return httputil.List(c, len(tours), int64(len(tours)), tours)
}

func (h *Handler) Distances(c echo.Context) error {
	distances, err := h.service.Distances(c.Request().Context(), c.Param("latlng"), c.Param("unit"))
	if err != nil {
		return err
	}
	return httputil.Success(c, http.StatusOK, distances)
}

// Update accepts JSON or a multipart form with imageCover and images files.
func (h *Handler) Update(c echo.Context) error {
	payload, err := httputil.ReadPayload(c)
	if err != nil {
		return err
	}
	if h.images != nil && media.IsMultipart(c) {
		cover, err := media.File(c, "imageCover")
		if err != nil {
			return err
		}
		gallery, err := media.Files(c, "images", maxGalleryImages)
		if err != nil {
			return err
		}
		stored, err := h.images.TourImages(c.Request().Context(), c.Param(resource.DefaultIDParam), cover, gallery)
		if err != nil {
			return err
		}
		if stored.Cover != "" {
			payload["imageCover"] = stored.Cover
		}
		if len(stored.Images) > 0 {
			images := make([]any, len(stored.Images))
			for i, name := range stored.Images {
				images[i] = name
			}
			payload["images"] = images
		}
	}
	return h.crud.Update(c, payload)
}

// Routes mounts /tours. Nested review routes are mounted by the reviews
// module on the same group.
func (h *Handler) Routes(g *echo.Group, access httputil.Access) {
	planners := access.Roles(RoleAdmin, RoleLeadGuide, RoleGuide)
	editors := access.Roles(RoleAdmin, RoleLeadGuide)

	g.GET("/top-5-cheap", h.TopCheap)
	g.GET("/tour-stats", h.Stats)
	g.GET("/monthly-plan/:year", h.MonthlyPlan, planners...)
	g.GET("/tours-within/:distance/center/:latlng/unit/:unit", h.Within)
	g.GET("/distances/:latlng/unit/:unit", h.Distances)

	g.GET("", h.crud.List)
	g.POST("", h.crud.CreateOne, editors...)
	g.GET("/:id", h.crud.GetOne)
	g.PATCH("/:id", h.Update, editors...)
	g.DELETE("/:id", h.crud.DeleteOne, editors...)
}
