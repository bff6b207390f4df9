package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kiranshivaraju/logtrail/internal/apperr"
)

// errorEnvelope is the body of every failed request.
type errorEnvelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// JSON writes data as a bare 200 response.
func JSON(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, data)
}

// Created writes data as a bare 201 response.
func Created(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, data)
}

func Error(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorEnvelope{Code: status, Message: message})
}

// FromError translates err into the error envelope. Only apperr messages
// reach the client; anything else is logged and answered generically.
func FromError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusOf(err)

	var ae *apperr.Error
	if status >= http.StatusInternalServerError || !errors.As(err, &ae) {
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
		if status == http.StatusServiceUnavailable {
			Error(w, status, "A backend service is unavailable")
			return
		}
		Error(w, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}

	Error(w, status, ae.Message)
}

// StatusOf maps an error to its HTTP status.
func StatusOf(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindUnknownTeam:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindForbidden, apperr.KindUnauthenticated:
		return http.StatusForbidden
	case apperr.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
