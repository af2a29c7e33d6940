package httputil

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const StatusSuccess = "success"

// Envelope is the body of every successful JSON response.
type Envelope struct {
	Status  string `json:"status"`
	Results *int   `json:"results,omitempty"`
	Total   *int64 `json:"total,omitempty"`
	Data    any    `json:"data"`
}

// Success writes data with the given status code.
func Success(c echo.Context, status int, data any) error {
	return c.JSON(status, Envelope{Status: StatusSuccess, Data: data})
}

// List writes a page of records with its counts.
func List(c echo.Context, results int, total int64, data any) error {
	return c.JSON(http.StatusOK, Envelope{Status: StatusSuccess, Results: &results, Total: &total, Data: data})
}

// Deleted answers 204 with no body.
func Deleted(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}
