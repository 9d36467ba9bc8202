// Package fakeapi is an in-memory stand-in for the AuroraX search API, used
// by tests and for local development against the CLI.
package fakeapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// APIError is the AuroraX error body.
type APIError struct {
	Code    string `json:"error_code"`
	Message string `json:"error_message"`
}

// AuroraX error codes used by the fake.
const (
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeServerError  = "SERVER_ERROR"
	ErrCodeMaintenance  = "MAINTENANCE"
)

// WriteJSON encodes v as the response body. Encoding failures after the
// header is sent can only be logged.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("fake api failed to encode response", slog.Int("status", status), slog.String("error", err.Error()))
	}
	return err
}

// WriteError writes an AuroraX error response.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	_ = WriteJSON(w, status, APIError{Code: code, Message: message})
}

// WriteBadRequest answers 400, as AuroraX does for malformed queries.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// WriteNotFound answers 404 for unknown requests and data sources.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// WriteUnauthorized answers 401 for a missing or wrong API key.
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// WriteConflict answers 409 for data sources that still have records.
func WriteConflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, ErrCodeConflict, message)
}

// WriteInternalError answers 500 with a SERVER_ERROR body.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, ErrCodeServerError, message)
}
