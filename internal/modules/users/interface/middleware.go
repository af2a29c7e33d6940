package transport

import (
	"slices"

	"github.com/labstack/echo/v4"

	resource "toursApi/internal/modules/resource/domain"
	"toursApi/internal/modules/users/application/usecase"
	"toursApi/internal/modules/users/domain"
	"toursApi/internal/shared/apperror"
	"toursApi/internal/shared/auth"
	"toursApi/internal/shared/httputil"
)

const (
	ContextUserKey = "user"

	MessageForbidden = "You do not have permission to perform this action"
)

// Protect rejects requests without a valid session and stores the user on
// the context.
func Protect(service *usecase.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, err := service.Authenticate(c.Request().Context(), auth.ExtractToken(c.Request()))
			if err != nil {
				return err
			}
			c.Set(ContextUserKey, user)
			return next(c)
		}
	}
}

// RestrictTo lets through users holding one of roles. It runs after
// Protect.
func RestrictTo(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := CurrentUser(c)
			if !ok {
				return apperror.Unauthorized(usecase.MessageNotLoggedIn)
			}
			if !slices.Contains(roles, domain.RoleOf(user)) {
				return apperror.Forbidden(MessageForbidden)
			}
			return next(c)
		}
	}
}

// Access bundles Protect and RestrictTo for other modules' routes.
func Access(service *usecase.AuthService) httputil.Access {
	return httputil.Access{Protect: Protect(service), RestrictTo: RestrictTo}
}

func CurrentUser(c echo.Context) (resource.Document, bool) {
	user, ok := c.Get(ContextUserKey).(resource.Document)
	return user, ok && user != nil
}

func CurrentUserID(c echo.Context) string {
	user, _ := CurrentUser(c)
	return resource.IDOf(user)
}
