// Package errors defines the error type shared by the audit services, the
// repositories and the HTTP layer. Each AppError carries a stable code that
// API clients can switch on and the HTTP status it maps to.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type AppError struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	StatusCode int         `json:"-"`
	Internal   error       `json:"-"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e.Internal == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Internal)
}

func (e *AppError) Unwrap() error {
	return e.Internal
}

// Temporary reports whether retrying the failed operation may succeed
func (e *AppError) Temporary() bool {
	switch e.Code {
	case ErrCodeRateLimited, ErrCodeServiceUnavailable, ErrCodeProviderAPI, ErrCodeRunInProgress:
		return true
	}
	return false
}

const (
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeDatabase           = "DATABASE_ERROR"
	ErrCodeProviderAuth       = "PROVIDER_AUTH_ERROR"
	ErrCodeProviderAPI        = "PROVIDER_API_ERROR"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"

	// ErrCodeRunInProgress is returned when a run is requested while another
	// one still holds the run slot.
	ErrCodeRunInProgress = "RUN_IN_PROGRESS"
)

func New(code, message string, statusCode int) *AppError {
	return &AppError{Code: code, Message: message, StatusCode: statusCode}
}

// Wrap attaches err as the cause of a new AppError
func Wrap(err error, code, message string, statusCode int) *AppError {
	appErr := New(code, message, statusCode)
	appErr.Internal = err
	return appErr
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// As returns the AppError in err's chain, or an internal error wrapping err.
func As(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("Internal server error", err)
}

// IsCode reports whether err's chain holds an AppError with the given code
func IsCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func IsNotFound(err error) bool {
	return IsCode(err, ErrCodeNotFound)
}

func Internal(message string, err error) *AppError {
	return Wrap(err, ErrCodeInternal, message, http.StatusInternalServerError)
}

func BadRequest(message string) *AppError {
	return New(ErrCodeBadRequest, message, http.StatusBadRequest)
}

// NotFound builds the error for a missing finding, run or rule
func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, resource+" not found", http.StatusNotFound)
}

func Unauthorized(message string) *AppError {
	return New(ErrCodeUnauthorized, message, http.StatusUnauthorized)
}

func Forbidden(message string) *AppError {
	return New(ErrCodeForbidden, message, http.StatusForbidden)
}

func Conflict(message string) *AppError {
	return New(ErrCodeConflict, message, http.StatusConflict)
}

// RunInProgress maps a refused run trigger to 409
func RunInProgress(err error) *AppError {
	return Wrap(err, ErrCodeRunInProgress, "An audit run is already in progress", http.StatusConflict)
}

// ValidationError carries per-field messages in Details
func ValidationError(message string, details interface{}) *AppError {
	return New(ErrCodeValidation, message, http.StatusBadRequest).WithDetails(details)
}

func DatabaseError(message string, err error) *AppError {
	return Wrap(err, ErrCodeDatabase, message, http.StatusInternalServerError)
}

// ProviderAuthError reports that the AWS identity behind provider could not
// be resolved. The caller's own credentials are not at fault, so it maps to
// 502 rather than 401.
func ProviderAuthError(provider string, err error) *AppError {
	return Wrap(err, ErrCodeProviderAuth,
		fmt.Sprintf("Failed to resolve credentials for %s", provider),
		http.StatusBadGateway)
}

func ProviderAPIError(provider string, err error) *AppError {
	return Wrap(err, ErrCodeProviderAPI,
		fmt.Sprintf("Call to %s failed", provider),
		http.StatusBadGateway)
}

func RateLimited(message string) *AppError {
	return New(ErrCodeRateLimited, message, http.StatusTooManyRequests)
}

func ServiceUnavailable(message string) *AppError {
	return New(ErrCodeServiceUnavailable, message, http.StatusServiceUnavailable)
}
