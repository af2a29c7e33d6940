package middleware

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
	"github.com/labstack/echo/v4"
)

// Compress gzips responses of at least minSize bytes for clients that accept
// it. Errors are rendered inside the compressed writer.
func Compress(minSize int, skip func(c echo.Context) bool) (echo.MiddlewareFunc, error) {
	wrap, err := gzhttp.NewWrapper(gzhttp.MinSize(minSize))
	if err != nil {
		return nil, err
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skip != nil && skip(c) {
				return next(c)
			}
			res := c.Response()
			original := res.Writer
			defer func() { res.Writer = original }()

			wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				res.Writer = w
				c.SetRequest(r)
				if err := next(c); err != nil {
					c.Error(err)
				}
			})).ServeHTTP(original, c.Request())
			return nil
		}
	}, nil
}
