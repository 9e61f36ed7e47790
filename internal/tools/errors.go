package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aaronjoyvictor/seam-mcp/internal/seam"
)

// ToolError carries an HTTP-style status code and message for tool failures.
type ToolError struct {
	statusCode int
	message    string
	kind       seam.ErrorKind
	cause      error
}

// Error implements error.
func (e *ToolError) Error() string {
	if e == nil {
		return ""
	}
	return strings.TrimSpace(e.message)
}

// StatusCode returns the attached status code.
func (e *ToolError) StatusCode() int {
	if e == nil || e.statusCode == 0 {
		return http.StatusInternalServerError
	}
	return e.statusCode
}

// Kind returns the gateway failure kind, empty for argument errors.
func (e *ToolError) Kind() seam.ErrorKind {
	if e == nil {
		return ""
	}
	return e.kind
}

// Unwrap exposes the gateway error.
func (e *ToolError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func validationErrorf(format string, args ...any) error {
	return &ToolError{
		statusCode: http.StatusBadRequest,
		message:    fmt.Sprintf(format, args...),
	}
}

func notFoundErrorf(format string, args ...any) error {
	return &ToolError{
		statusCode: http.StatusNotFound,
		message:    fmt.Sprintf(format, args...),
	}
}

// mapExecutionError keeps the gateway message verbatim and picks a status code
// from the failure kind.
func mapExecutionError(err error) error {
	if err == nil {
		return nil
	}
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr
	}

	mapped := &ToolError{
		statusCode: http.StatusInternalServerError,
		message:    err.Error(),
		kind:       seam.KindOf(err),
		cause:      err,
	}
	switch mapped.kind {
	case seam.KindConfiguration:
		mapped.statusCode = http.StatusServiceUnavailable
	case seam.KindRemoteService:
		mapped.statusCode = http.StatusBadGateway
	case seam.KindTransport:
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			mapped.statusCode = http.StatusGatewayTimeout
		case errors.Is(err, context.Canceled):
			mapped.statusCode = http.StatusRequestTimeout
		default:
			mapped.statusCode = http.StatusBadGateway
		}
	}
	return mapped
}
