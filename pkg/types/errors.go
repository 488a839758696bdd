package types

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	KindInvalidArgument ErrorKind = "InvalidArgument"
	KindNotFound        ErrorKind = "NotFound"
	KindRateLimit       ErrorKind = "RateLimit"
	KindExternal        ErrorKind = "External"
)

// APIError represents a standard API error response
type APIError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	cause   error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// Code is the numeric reason carried in error bodies.
func (e *APIError) Code() int {
	switch e.Kind {
	case KindInvalidArgument:
		return 1
	case KindNotFound:
		return 3
	case KindRateLimit:
		return 4
	default:
		return 5
	}
}

func (e *APIError) HTTPStatus() int {
	switch e.Kind {
	case KindInvalidArgument:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func NotFound(format string, args ...interface{}) *APIError {
	return &APIError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func InvalidArgument(format string, args ...interface{}) *APIError {
	return &APIError{Kind: KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

func RateLimit(format string, args ...interface{}) *APIError {
	return &APIError{Kind: KindRateLimit, Message: fmt.Sprintf(format, args...)}
}

// External wraps an infrastructure failure without hiding its cause.
func External(err error, format string, args ...interface{}) *APIError {
	return &APIError{Kind: KindExternal, Message: fmt.Sprintf(format, args...), cause: err}
}

// AsAPIError converts any error into an APIError; foreign errors become External.
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return External(err, "internal error")
}

func IsKind(err error, kind ErrorKind) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}
