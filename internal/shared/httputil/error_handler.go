package httputil

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"toursApi/internal/shared/apperror"
)

const MessageUnexpected = "Something went very wrong!"

// ErrorBody is the body of every failed response. Error and Fields are only
// filled in development.
type ErrorBody struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Error   string            `json:"error,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type resolved struct {
	status      int
	message     string
	operational bool
	fields      map[string]string
}

// NewHTTPErrorHandler renders every error returned by a handler. In
// production the message of non-operational errors is replaced.
func NewHTTPErrorHandler(development bool, mapper *ErrorMapper) echo.HTTPErrorHandler {
	if mapper == nil {
		mapper = NewErrorMapper()
	}
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		r := resolve(err, c, mapper)

		if r.status >= http.StatusInternalServerError {
			slog.Error("request failed",
				slog.String("method", c.Request().Method),
				slog.String("path", c.Request().URL.Path),
				slog.Int("status", r.status),
				slog.Any("error", err),
			)
		}

		body := ErrorBody{Status: apperror.StatusLabel(r.status), Message: r.message}
		switch {
		case development:
			body.Error = err.Error()
			body.Fields = r.fields
		case !r.operational:
			body.Message = MessageUnexpected
		default:
			body.Fields = r.fields
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(r.status)
		} else {
			writeErr = c.JSON(r.status, body)
		}
		if writeErr != nil {
			slog.Warn("write error response failed", slog.Any("error", writeErr))
		}
	}
}

func resolve(err error, c echo.Context, mapper *ErrorMapper) resolved {
	if info, ok := contextError(err); ok {
		return resolved{status: info.Status, message: info.Message, operational: true}
	}
	if appErr, ok := apperror.As(err); ok {
		return resolved{
			status:      appErr.Status(),
			message:     appErr.Message,
			operational: appErr.Operational(),
			fields:      appErr.Fields,
		}
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		message := fmt.Sprint(he.Message)
		if he.Code == http.StatusNotFound && errors.Is(err, echo.ErrNotFound) {
			message = fmt.Sprintf("Can't find %s on this server!", c.Request().RequestURI)
		}
		return resolved{status: he.Code, message: message, operational: he.Code < http.StatusInternalServerError}
	}
	if info, ok := mapper.Lookup(err); ok {
		return resolved{status: info.Status, message: info.Message, operational: true}
	}
	info := mapper.Map(err)
	return resolved{status: info.Status, message: info.Message}
}
