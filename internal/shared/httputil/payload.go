package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"toursApi/internal/shared/apperror"
)

// ReadPayload decodes a JSON object, urlencoded form or multipart form body
// into a loosely typed map. An empty body yields an empty map.
func ReadPayload(c echo.Context) (map[string]any, error) {
	req := c.Request()
	contentType := strings.ToLower(req.Header.Get(echo.HeaderContentType))

	switch {
	case strings.HasPrefix(contentType, echo.MIMEMultipartForm):
		form, err := c.MultipartForm()
		if err != nil {
			return nil, apperror.BadRequest("Invalid multipart body")
		}
		return flattenValues(form.Value), nil
	case strings.HasPrefix(contentType, echo.MIMEApplicationForm):
		values, err := c.FormParams()
		if err != nil {
			return nil, apperror.BadRequest("Invalid form body")
		}
		return flattenValues(values), nil
	}

	payload := map[string]any{}
	if req.Body == nil || req.Body == http.NoBody {
		return payload, nil
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, apperror.BadRequest("Invalid JSON body")
	}
	if payload == nil {
		payload = map[string]any{}
	}
	return payload, nil
}

func flattenValues(values map[string][]string) map[string]any {
	out := make(map[string]any, len(values))
	for key, list := range values {
		switch len(list) {
		case 0:
		case 1:
			out[key] = list[0]
		default:
			items := make([]any, len(list))
			for i, v := range list {
				items[i] = v
			}
			out[key] = items
		}
	}
	return out
}
