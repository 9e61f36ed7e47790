package seam

import (
	"errors"
	"fmt"
)

// ErrorKind classifies gateway failures.
type ErrorKind string

const (
	// KindConfiguration means required credentials were absent at call time.
	KindConfiguration ErrorKind = "configuration"
	// KindRemoteService means the downstream API answered with a non-success status.
	KindRemoteService ErrorKind = "remote"
	// KindTransport means no response was obtained from the downstream API.
	KindTransport ErrorKind = "transport"
)

// ConfigurationError is returned when the API key or device ID is missing.
type ConfigurationError struct {
	Action  Action
	Missing []string
}

// Error implements error.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s and %s must be configured in environment variables.", EnvAPIKey, EnvDeviceID)
}

// RemoteServiceError is returned when the downstream API rejects the action.
type RemoteServiceError struct {
	Action     Action
	StatusCode int
	Message    string
}

// Error implements error.
func (e *RemoteServiceError) Error() string {
	return fmt.Sprintf("%s failed (%d): %s", e.Action.Title(), e.StatusCode, e.Message)
}

// TransportError is returned when the request failed below the HTTP layer.
// It carries no status code.
type TransportError struct {
	Action Action
	Err    error
}

// Error implements error.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Action.Title(), e.Err)
}

// Unwrap returns the underlying network error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind of err, or an empty kind for foreign errors.
func KindOf(err error) ErrorKind {
	var (
		cfgErr       *ConfigurationError
		remoteErr    *RemoteServiceError
		transportErr *TransportError
	)
	switch {
	case errors.As(err, &cfgErr):
		return KindConfiguration
	case errors.As(err, &remoteErr):
		return KindRemoteService
	case errors.As(err, &transportErr):
		return KindTransport
	default:
		return ""
	}
}
