package api

import (
	"errors"
	"fmt"
)

// ErrorKind classifies client failures
type ErrorKind int

const (
	// KindServer is a non-success HTTP response
	KindServer ErrorKind = iota
	// KindTransport means no HTTP response was received
	KindTransport
	// KindDecode is a success response with an unreadable body
	KindDecode
	// KindRequest means the request could not be built
	KindRequest
	// KindCanceled means the caller's context ended first
	KindCanceled
)

func (k ErrorKind) String() string {
	switch k {
	case KindServer:
		return "server"
	case KindTransport:
		return "transport"
	case KindDecode:
		return "decode"
	case KindRequest:
		return "request"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by Client methods.
// Message is always safe to show to the user.
type Error struct {
	Op      string
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Detail returns a diagnostic string for logs, including the underlying cause
func (e *Error) Detail() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s error (status %d): %s: %v", e.Op, e.Kind, e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s error (status %d): %s", e.Op, e.Kind, e.Status, e.Message)
}

// IsTransport reports whether err is an unreachable-server failure
func IsTransport(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindTransport
}

// IsNotFound reports whether err is a 404 from the service
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindServer && apiErr.Status == 404
}
