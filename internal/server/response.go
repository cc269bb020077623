package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

func writeJSON(log *slog.Logger, w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn("failed to encode json response", "error", err)
	}
}

func writeJSONError(log *slog.Logger, w http.ResponseWriter, status int, msg string) {
	writeJSON(log, w, status, map[string]string{"error": msg})
}

func methodNotAllowed(log *slog.Logger, w http.ResponseWriter) {
	writeJSONError(log, w, http.StatusMethodNotAllowed, "method not allowed")
}

func badRequest(log *slog.Logger, w http.ResponseWriter, msg string) {
	writeJSONError(log, w, http.StatusBadRequest, msg)
}
