// Package render writes JSON responses.
package render

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/nzoschke/apartments/internal/service"
)

type message struct {
	Message string `json:"message"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Error writes {"message": ...} with the status carried by a service error.
// Anything else is logged and reported as a 500.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		if svcErr.Status >= http.StatusInternalServerError {
			slog.Error("request failed", "error", err, "method", r.Method, "path", r.URL.Path)
		}
		JSON(w, svcErr.Status, message{Message: svcErr.Message})
		return
	}

	slog.Error("unexpected error", "error", err, "method", r.Method, "path", r.URL.Path)
	JSON(w, http.StatusInternalServerError, message{Message: "Internal server error"})
}
