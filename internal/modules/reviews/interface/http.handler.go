package transport

import (
	"github.com/labstack/echo/v4"

	query "toursApi/internal/modules/query/domain"
	resourceusecase "toursApi/internal/modules/resource/application/usecase"
	resource "toursApi/internal/modules/resource/domain"
	crud "toursApi/internal/modules/resource/interface"
	"toursApi/internal/modules/reviews/domain"
	"toursApi/internal/shared/httputil"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	// TourParam names the tour id in nested routes, /tours/:id/reviews.
	TourParam = "id"
)

// CurrentUserFunc returns the id of the signed-in user.
type CurrentUserFunc func(c echo.Context) string

type Handler struct {
	flat   *crud.Handler
	nested *crud.Handler
}

func NewHandler(service *resourceusecase.Service, currentUser CurrentUserFunc) *Handler {
	fill := func(c echo.Context, payload resource.Document) error {
		if tourID := c.Param(TourParam); tourID != "" && payload[domain.FieldTour] == nil {
			payload[domain.FieldTour] = tourID
		}
		if payload[domain.FieldUser] == nil && currentUser != nil {
			if userID := currentUser(c); userID != "" {
				payload[domain.FieldUser] = userID
			}
		}
		return nil
	}
	scope := func(c echo.Context) query.FilterExpression {
		if tourID := c.Param(TourParam); tourID != "" {
			return query.FilterExpression{domain.FieldTour: query.Eq(tourID)}
		}
		return nil
	}
	return &Handler{
		flat:   crud.NewHandler(service, crud.WithCreatePayload(fill), crud.WithIDParam("reviewId")),
		nested: crud.NewHandler(service, crud.WithCreatePayload(fill), crud.WithScope(scope)),
	}
}

// Routes mounts /reviews. Every route needs a signed-in user.
func (h *Handler) Routes(g *echo.Group, access httputil.Access) {
	signedIn := access.Authenticated()
	reviewers := access.Roles(RoleUser)
	owners := access.Roles(RoleUser, RoleAdmin)

	g.GET("", h.flat.List, signedIn...)
	g.POST("", h.flat.CreateOne, reviewers...)
	g.GET("/:reviewId", h.flat.GetOne, signedIn...)
	g.PATCH("/:reviewId", h.flat.UpdateOne, owners...)
	g.DELETE("/:reviewId", h.flat.DeleteOne, owners...)
}

// NestedRoutes mounts /:id/reviews on the tours group.
func (h *Handler) NestedRoutes(tours *echo.Group, access httputil.Access) {
	tours.GET("/:"+TourParam+"/reviews", h.nested.List, access.Authenticated()...)
	tours.POST("/:"+TourParam+"/reviews", h.nested.CreateOne, access.Roles(RoleUser)...)
}
