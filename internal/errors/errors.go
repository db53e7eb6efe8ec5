package errors

import (
	"errors"
	"fmt"
	"sort"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeValidation indicates invalid input rejected before any network call.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeUnauthenticated indicates no session token was presented.
	ErrCodeUnauthenticated ErrorCode = "unauthenticated"
	// ErrCodeInvalidToken indicates the backend rejected the presented token.
	ErrCodeInvalidToken ErrorCode = "invalid_token"
	// ErrCodeForbidden indicates a valid session without the required capability.
	ErrCodeForbidden ErrorCode = "forbidden"
	// ErrCodeUpstream indicates the backend answered with a non-2xx status.
	ErrCodeUpstream ErrorCode = "upstream"
	// ErrCodeNetwork indicates the backend could not be reached or timed out.
	ErrCodeNetwork ErrorCode = "network"
	// ErrCodeMalformedResponse indicates the backend answered with an unusable body.
	ErrCodeMalformedResponse ErrorCode = "malformed_response"
	// ErrCodeRateLimited indicates too many attempts in the current window.
	ErrCodeRateLimited ErrorCode = "rate_limited"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "internal"
)

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Field is the specific field that caused the error (optional, for validation errors)
	Field string
	// Fields holds per-field messages when several inputs failed validation.
	Fields map[string]string
	// Status is the backend HTTP status for upstream errors (0 otherwise).
	Status int
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
		Field:   field,
		Fields:  map[string]string{field: message},
	}
}

// ValidationFields creates a Validation error carrying every failed field.
// Returns nil when fields is empty so callers can return it directly.
func ValidationFields(fields map[string]string) *AppError {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fields[keys[0]],
		Field:   keys[0],
		Fields:  fields,
	}
}

// Unauthenticated creates a new Unauthenticated error.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Code:    ErrCodeUnauthenticated,
		Message: message,
	}
}

// InvalidToken creates a new InvalidToken error.
func InvalidToken(message string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidToken,
		Message: message,
	}
}

// Forbidden creates a new Forbidden error.
func Forbidden(message string) *AppError {
	return &AppError{
		Code:    ErrCodeForbidden,
		Message: message,
	}
}

// Upstream creates an error for a non-2xx backend answer.
func Upstream(status int, message string) *AppError {
	return &AppError{
		Code:    ErrCodeUpstream,
		Message: message,
		Status:  status,
	}
}

// Network wraps a transport-level failure talking to the backend.
func Network(err error) *AppError {
	return Wrap(err, ErrCodeNetwork, "backend unreachable")
}

// MalformedResponse wraps a decoding failure of a backend body.
func MalformedResponse(err error) *AppError {
	if err == nil {
		return &AppError{Code: ErrCodeMalformedResponse, Message: "malformed backend response"}
	}
	return Wrap(err, ErrCodeMalformedResponse, "malformed backend response")
}

// RateLimited creates a new RateLimited error.
func RateLimited(message string) *AppError {
	return &AppError{
		Code:    ErrCodeRateLimited,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool {
	return isCode(err, ErrCodeValidation)
}

// IsUnauthenticated checks if an error is an Unauthenticated error.
func IsUnauthenticated(err error) bool {
	return isCode(err, ErrCodeUnauthenticated)
}

// IsInvalidToken checks if an error is an InvalidToken error.
func IsInvalidToken(err error) bool {
	return isCode(err, ErrCodeInvalidToken)
}

// IsUpstream checks if an error is an Upstream error.
func IsUpstream(err error) bool {
	return isCode(err, ErrCodeUpstream)
}

// IsNetwork checks if an error is a Network error.
func IsNetwork(err error) bool {
	return isCode(err, ErrCodeNetwork)
}

// IsRateLimited checks if an error is a RateLimited error.
func IsRateLimited(err error) bool {
	return isCode(err, ErrCodeRateLimited)
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the Field from an error, or empty string if not an AppError or no field set.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}

// GetStatus returns the backend HTTP status carried by an error, or 0.
func GetStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return 0
}

// GetFields returns the per-field messages of a validation error.
func GetFields(err error) map[string]string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Fields
	}
	return nil
}
