// Package errors defines the structured error vocabulary of the conversion
// API. Every error that reaches a client is an AppError carrying the wire
// kind and the HTTP status it maps to.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the machine-readable error discriminator sent to clients.
type Kind string

const (
	KindUnsupportedFormat Kind = "UnsupportedFormat"
	KindEmptyPayload      Kind = "EmptyPayload"
	KindPayloadTooLarge   Kind = "PayloadTooLarge"
	KindConversionFailed  Kind = "ConversionFailed"
	KindConversionTimeout Kind = "ConversionTimeout"
	KindServiceBusy       Kind = "ServiceBusy"
	KindInternal          Kind = "InternalError"
)

// AppError is a structured application error. Message is safe to show to
// clients; Cause is server-side detail and never leaves the process.
type AppError struct {
	Kind       Kind
	Message    string
	StatusCode int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewUnsupportedFormat creates an error for a file the endpoint does not accept.
func NewUnsupportedFormat(message string) *AppError {
	return &AppError{
		Kind:       KindUnsupportedFormat,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NewEmptyPayload creates an error for an empty upload.
func NewEmptyPayload(message string) *AppError {
	return &AppError{
		Kind:       KindEmptyPayload,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NewPayloadTooLarge creates an error for an upload over the size limit.
func NewPayloadTooLarge(message string) *AppError {
	return &AppError{
		Kind:       KindPayloadTooLarge,
		Message:    message,
		StatusCode: http.StatusRequestEntityTooLarge,
	}
}

// NewConversionFailed creates an error for a document the backend could not convert.
func NewConversionFailed(message string, cause error) *AppError {
	return &AppError{
		Kind:       KindConversionFailed,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

// NewConversionTimeout creates an error for a conversion that exceeded its deadline.
func NewConversionTimeout(message string) *AppError {
	return &AppError{
		Kind:       KindConversionTimeout,
		Message:    message,
		StatusCode: http.StatusGatewayTimeout,
	}
}

// NewServiceBusy creates an error for a request rejected because the queue is full.
func NewServiceBusy(message string) *AppError {
	return &AppError{
		Kind:       KindServiceBusy,
		Message:    message,
		StatusCode: http.StatusServiceUnavailable,
	}
}

// NewInternal creates an error for an unexpected server-side failure.
func NewInternal(message string, cause error) *AppError {
	return &AppError{
		Kind:       KindInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// IsKind checks whether the error is an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// GetStatusCode returns the HTTP status code for an error. Errors outside
// the AppError vocabulary map to 500.
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// AsAppError coerces any error to an AppError. Unrecognized errors become
// internal errors with a generic client message; the original error is kept
// as the cause for logging.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternal("An unexpected error occurred", err)
}
