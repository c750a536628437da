// Package utils holds the JSON envelope and pagination helpers used by the
// HTTP handlers.
package utils

import (
	"encoding/json"
	"net/http"

	"github.com/pratik-mahalle/amiaudit/internal/pkg/errors"
)

// SuccessResponse is the envelope of every 2xx body
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ErrorResponse is the envelope of every error body. Error.Code is one of
// the AppError codes.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// WriteJSON encodes body with the given status. Encoding errors are
// returned since the status line has already been sent.
func WriteJSON(w http.ResponseWriter, status int, body interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) error {
	return WriteJSON(w, status, SuccessResponse{Success: true, Data: data})
}

func WriteSuccessWithMessage(w http.ResponseWriter, status int, message string, data interface{}) error {
	return WriteJSON(w, status, SuccessResponse{Success: true, Data: data, Message: message})
}

// WriteError renders err. The wrapped cause never leaves the process.
func WriteError(w http.ResponseWriter, err *errors.AppError) error {
	if err.StatusCode == http.StatusTooManyRequests || err.StatusCode == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	return WriteJSON(w, err.StatusCode, ErrorResponse{
		Error: ErrorDetail{Code: err.Code, Message: err.Message, Details: err.Details},
	})
}

// WriteAppError renders any error, reporting unknown ones as internal
func WriteAppError(w http.ResponseWriter, err error) error {
	return WriteError(w, errors.As(err))
}
