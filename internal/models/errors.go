package models

import (
	"errors"
	"fmt"
)

// Error codes carried by AppError.
const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeForbidden     = "FORBIDDEN"
	CodeNotFound      = "NOT_FOUND"
	CodeNetwork       = "NETWORK_ERROR"
	CodeServer        = "SERVER_ERROR"
	CodeDecode        = "DECODE_ERROR"
	CodeRequestFailed = "REQUEST_FAILED"
)

// AppError represents a client-side error with a stable code and a human message.
type AppError struct {
	Code    string
	Message string
	// Status is the HTTP status that produced the error, 0 when no response arrived.
	Status int
	// Remote is set when Message was supplied by the server.
	Remote bool
	Err    error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
		Status:  401,
	}
}

func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %v not found", resource, id),
		Status:  404,
	}
}

func NewNetworkError(err error) *AppError {
	return &AppError{
		Code:    CodeNetwork,
		Message: "Cannot reach server",
		Err:     err,
	}
}

func NewDecodeError(err error) *AppError {
	return &AppError{
		Code:    CodeDecode,
		Message: "Unexpected response from server",
		Err:     err,
	}
}

// NewHTTPError maps a non-2xx status and server message onto the code taxonomy.
func NewHTTPError(status int, message string) *AppError {
	code := CodeRequestFailed
	switch {
	case status == 400 || status == 422:
		code = CodeValidation
	case status == 401:
		code = CodeUnauthorized
	case status == 403:
		code = CodeForbidden
	case status == 404:
		code = CodeNotFound
	case status >= 500:
		code = CodeServer
	}
	remote := message != ""
	if !remote {
		message = defaultStatusMessage(status)
	}
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Remote:  remote,
	}
}

func defaultStatusMessage(status int) string {
	switch {
	case status == 400:
		return "Bad request"
	case status == 401:
		return "Session expired"
	case status == 403:
		return "Not allowed"
	case status == 404:
		return "Not found"
	case status >= 500:
		return "Server error"
	default:
		return fmt.Sprintf("Request failed with status %d", status)
	}
}

// AsAppError unwraps err into an AppError when possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code string) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// StatusOf returns the HTTP status behind err, or 0.
func StatusOf(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Status
	}
	return 0
}

// MessageOf returns the user-facing message for err, or fallback when err carries none.
func MessageOf(err error, fallback string) string {
	if appErr, ok := AsAppError(err); ok && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}

// ServerMessage returns the message the server attached to err, or fallback.
func ServerMessage(err error, fallback string) string {
	if appErr, ok := AsAppError(err); ok && appErr.Remote {
		return appErr.Message
	}
	return fallback
}
