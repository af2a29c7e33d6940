package httputil

import (
	"context"
	"errors"
	"net/http"
)

// HTTPErrorInfo contains the HTTP status code and message for an error.
type HTTPErrorInfo struct {
	Status  int
	Message string
}

// ErrorMapping represents a single error to HTTP status/message mapping.
type ErrorMapping struct {
	Error   error
	Status  int
	Message string
}

// ErrorMapper maps sentinel errors that never became application errors,
// such as token failures, to HTTP status codes and messages.
type ErrorMapper struct {
	mappings       []ErrorMapping
	defaultStatus  int
	defaultMessage string
}

// NewErrorMapper creates a new ErrorMapper with default settings.
func NewErrorMapper() *ErrorMapper {
	return &ErrorMapper{
		mappings:       make([]ErrorMapping, 0),
		defaultStatus:  http.StatusInternalServerError,
		defaultMessage: "internal server error",
	}
}

// WithMapping adds an error mapping to the mapper.
func (m *ErrorMapper) WithMapping(err error, status int, message string) *ErrorMapper {
	m.mappings = append(m.mappings, ErrorMapping{
		Error:   err,
		Status:  status,
		Message: message,
	})
	return m
}

// WithDefault sets the default status and message for unmatched errors.
func (m *ErrorMapper) WithDefault(status int, message string) *ErrorMapper {
	m.defaultStatus = status
	m.defaultMessage = message
	return m
}

// Map converts an error to HTTP status and message.
func (m *ErrorMapper) Map(err error) HTTPErrorInfo {
	if err == nil {
		return HTTPErrorInfo{Status: http.StatusOK, Message: ""}
	}

	if info, ok := m.Lookup(err); ok {
		return info
	}
	return HTTPErrorInfo{Status: m.defaultStatus, Message: m.defaultMessage}
}

// Lookup reports whether err matches a context error or a registered mapping.
func (m *ErrorMapper) Lookup(err error) (HTTPErrorInfo, bool) {
	if info, ok := contextError(err); ok {
		return info, true
	}
	for _, mapping := range m.mappings {
		if errors.Is(err, mapping.Error) {
			return HTTPErrorInfo{Status: mapping.Status, Message: mapping.Message}, true
		}
	}
	return HTTPErrorInfo{}, false
}

func contextError(err error) (HTTPErrorInfo, bool) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return HTTPErrorInfo{Status: http.StatusGatewayTimeout, Message: "request timeout"}, true
	case errors.Is(err, context.Canceled):
		return HTTPErrorInfo{Status: http.StatusServiceUnavailable, Message: "request cancelled"}, true
	default:
		return HTTPErrorInfo{}, false
	}
}

// QuickMap is a convenience function for quick error mapping without creating a mapper.
func QuickMap(err error, mappings ...ErrorMapping) HTTPErrorInfo {
	if err == nil {
		return HTTPErrorInfo{Status: http.StatusOK, Message: ""}
	}

	mapper := &ErrorMapper{mappings: mappings, defaultStatus: http.StatusInternalServerError, defaultMessage: "internal server error"}
	return mapper.Map(err)
}
