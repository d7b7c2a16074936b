package domain

import (
	"errors"
	"fmt"
)

// Sentinel transport error kinds, usable with errors.Is.
var (
	ErrTimeout         = errors.New("timeout")
	ErrConnection      = errors.New("connection failed")
	ErrInvalidResponse = errors.New("invalid response")
	ErrHTTPStatus      = errors.New("http status")
)

// TransportError is returned by the webhook transport.
type TransportError struct {
	Kind       error
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Kind == ErrHTTPStatus:
		return fmt.Sprintf("webhook returned status %d", e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	default:
		return e.Kind.Error()
	}
}

func (e *TransportError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func NewTimeoutError(err error) *TransportError {
	return &TransportError{Kind: ErrTimeout, Err: err}
}

func NewConnectionError(err error) *TransportError {
	return &TransportError{Kind: ErrConnection, Err: err}
}

func NewInvalidResponseError(err error) *TransportError {
	return &TransportError{Kind: ErrInvalidResponse, Err: err}
}

func NewHTTPStatusError(code int) *TransportError {
	return &TransportError{Kind: ErrHTTPStatus, StatusCode: code}
}
