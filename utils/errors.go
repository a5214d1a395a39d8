package utils

import (
	"errors"
	"log"
	"net/http"
)

// ErrNotFound is returned by stores when a keyed lookup misses.
var ErrNotFound = errors.New("not found")

// AppError carries the status and client-facing message for a failed request.
// Err holds the detail that is only ever logged.
type AppError struct {
	Status  int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func Validation(msg string) error {
	return &AppError{Status: http.StatusBadRequest, Message: msg}
}

func NotFound(msg string) error {
	return &AppError{Status: http.StatusNotFound, Message: msg, Err: ErrNotFound}
}

func Forbidden(msg string) error {
	return &AppError{Status: http.StatusForbidden, Message: msg}
}

func Unauthorized(msg string) error {
	return &AppError{Status: http.StatusUnauthorized, Message: msg}
}

// Upstream wraps a failure of an external geodata or geocoding call.
func Upstream(msg string, err error) error {
	return &AppError{Status: http.StatusInternalServerError, Message: msg, Err: err}
}

// StatusOf maps err to the HTTP status it is reported with.
func StatusOf(err error) int {
	var appErr *AppError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &appErr):
		return appErr.Status
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithErr reports err to the client. Anything that is not an AppError is
// logged and answered with a generic 500.
func RespondWithErr(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Status >= http.StatusInternalServerError {
			log.Printf("request failed: %v", err)
		}
		RespondWithError(w, appErr.Status, appErr.Message)
		return
	}
	if errors.Is(err, ErrNotFound) {
		RespondWithError(w, http.StatusNotFound, "Not found")
		return
	}
	log.Printf("internal error: %v", err)
	RespondWithError(w, http.StatusInternalServerError, "Internal server error")
}
