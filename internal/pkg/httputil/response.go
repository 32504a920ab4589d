package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/SophieEDesign/fibi-lifecycle/internal/pkg/logger"
)

// errorBody is the envelope every error response uses.
type errorBody struct {
	Error string `json:"error"`
}

// JSON writes data with the given status. An encode failure is only
// logged; the status line has already gone out.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("response encode failed", "error", err.Error())
	}
}

// OK writes a 200 with the given data.
func OK(w http.ResponseWriter, data any) { JSON(w, http.StatusOK, data) }

// Created writes a 201 with the given data.
func Created(w http.ResponseWriter, data any) { JSON(w, http.StatusCreated, data) }

// Error writes an error envelope with the given status.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, errorBody{Error: message})
}

// BadRequest writes a 400.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

// Unauthorized writes a 401.
func Unauthorized(w http.ResponseWriter) {
	Error(w, http.StatusUnauthorized, "unauthorized")
}

// InternalError writes a 500. The real error goes to the log, not to the
// client.
func InternalError(w http.ResponseWriter, err error) {
	logger.Error("internal error", "error", err.Error())
	Error(w, http.StatusInternalServerError, "internal server error")
}

// Decode reads the JSON request body into dst. On a parse failure it
// writes a 400 and returns false.
func Decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		BadRequest(w, "invalid JSON: "+err.Error())
		return false
	}
	return true
}
