package types

import (
	"context"
	"errors"
	"fmt"
)

// Generic messages shown to users when no more specific text applies.
const (
	MessageServerError  = "Server error occurred"
	MessageLoadingError = "Error loading results"
)

// ConfigurationError means a source lacks the credentials it needs.
type ConfigurationError struct {
	Source  string
	Message string
}

func (e ConfigurationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s is not configured", e.Source)
}

// AuthorizationError means an authenticity or permission check failed.
type AuthorizationError struct {
	Reason string
}

func (e AuthorizationError) Error() string {
	return e.Reason
}

// UpstreamError is a non-success status or error payload from a third-party API.
type UpstreamError struct {
	Service    string
	StatusCode int
	Code       string
	Message    string
}

func (e UpstreamError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s API error (status %d)", e.Service, e.StatusCode)
}

// InvalidResponseError is an upstream payload that could not be interpreted.
type InvalidResponseError struct {
	Service string
	Reason  string
}

func (e InvalidResponseError) Error() string {
	return fmt.Sprintf("Invalid response from %s API", e.Service)
}

// ValidationError is bad client input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return e.Reason
}

// UserMessage flattens any error into text that can be shown to a user.
// Errors outside the taxonomy are not leaked.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var (
		configErr   ConfigurationError
		authErr     AuthorizationError
		upstreamErr UpstreamError
		invalidErr  InvalidResponseError
		validErr    ValidationError
	)

	switch {
	case errors.As(err, &configErr):
		return configErr.Error()
	case errors.As(err, &authErr):
		return authErr.Error()
	case errors.As(err, &upstreamErr):
		return upstreamErr.Error()
	case errors.As(err, &invalidErr):
		return invalidErr.Error()
	case errors.As(err, &validErr):
		return validErr.Error()
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return MessageLoadingError
	default:
		return MessageServerError
	}
}

// Kind names the taxonomy class of err, or "internal" when it has none.
func Kind(err error) string {
	var (
		configErr   ConfigurationError
		authErr     AuthorizationError
		upstreamErr UpstreamError
		invalidErr  InvalidResponseError
		validErr    ValidationError
	)

	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &configErr):
		return "configuration"
	case errors.As(err, &authErr):
		return "authorization"
	case errors.As(err, &upstreamErr):
		return "upstream"
	case errors.As(err, &invalidErr):
		return "invalid_response"
	case errors.As(err, &validErr):
		return "validation"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "internal"
	}
}
