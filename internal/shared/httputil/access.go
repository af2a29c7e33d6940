package httputil

import "github.com/labstack/echo/v4"

// Access bundles the authentication middlewares routes are guarded with.
type Access struct {
	Protect    echo.MiddlewareFunc
	RestrictTo func(roles ...string) echo.MiddlewareFunc
}

// Authenticated guards a route with Protect only.
func (a Access) Authenticated() []echo.MiddlewareFunc {
	if a.Protect == nil {
		return nil
	}
	return []echo.MiddlewareFunc{a.Protect}
}

// Roles guards a route with Protect followed by RestrictTo(roles...).
func (a Access) Roles(roles ...string) []echo.MiddlewareFunc {
	guards := a.Authenticated()
	if a.RestrictTo != nil {
		guards = append(guards, a.RestrictTo(roles...))
	}
	return guards
}
