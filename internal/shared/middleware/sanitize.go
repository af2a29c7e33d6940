package middleware

import (
	"bytes"
	"encoding/json"
	"html"
	"io"
	"strings"

	"github.com/labstack/echo/v4"
)

// Sanitize rewrites JSON request bodies: keys starting with "$" or
// containing "." are dropped so they cannot become query operators, and
// string values are HTML escaped. Other bodies pass untouched.
func Sanitize(skip func(c echo.Context) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if (skip != nil && skip(c)) || req.Body == nil || !isJSON(req.Header.Get(echo.HeaderContentType)) {
				return next(c)
			}
			raw, err := io.ReadAll(req.Body)
			_ = req.Body.Close()
			if err != nil {
				return err
			}
			req.Body = io.NopCloser(bytes.NewReader(raw))

			decoder := json.NewDecoder(bytes.NewReader(raw))
			decoder.UseNumber()
			var body any
			if err := decoder.Decode(&body); err != nil {
				// Malformed bodies are reported by the handler.
				return next(c)
			}
			clean, err := json.Marshal(SanitizeValue(body))
			if err != nil {
				return next(c)
			}
			req.Body = io.NopCloser(bytes.NewReader(clean))
			req.ContentLength = int64(len(clean))
			return next(c)
		}
	}
}

// SanitizeValue applies the body rules recursively.
func SanitizeValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, v := range typed {
			if strings.HasPrefix(key, "$") || strings.Contains(key, ".") {
				continue
			}
			out[key] = SanitizeValue(v)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, v := range typed {
			out[i] = SanitizeValue(v)
		}
		return out
	case string:
		return html.EscapeString(typed)
	default:
		return value
	}
}

func isJSON(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), echo.MIMEApplicationJSON)
}
