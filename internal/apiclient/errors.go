package apiclient

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned when the backend answers 401.
// The session token has already been cleared when this is returned.
var ErrUnauthorized = errors.New("unauthorized")

const (
	loginRequiredMessage = "Please log in to continue"
	genericMessage       = "Something went wrong. Please try again."
)

// HTTPError is a non-2xx answer from the backend
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NetworkError wraps a transport failure
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: backend unavailable: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError means the backend answered 2xx with a payload we could not use
type ParseError struct {
	Op  string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.Op, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// displayable is implemented by errors whose text is safe to show as-is
type displayable interface {
	DisplayMessage() string
}

// Message converts any error into a string fit for inline display
func Message(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, ErrUnauthorized) {
		return loginRequiredMessage
	}

	var d displayable
	if errors.As(err, &d) {
		return d.DisplayMessage()
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.Message != "" {
		return httpErr.Message
	}

	return genericMessage
}
