package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/chat"
	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/contextutil"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, ErrorResponse{Error: message})
}

// writeServiceError maps service errors to HTTP status codes.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error, defaultMsg string) {
	logger := contextutil.LoggerFromContext(ctx)

	switch {
	case errors.Is(err, chat.ErrInvalidInput):
		logger.WarnContext(ctx, "invalid request", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chat.ErrNotFound):
		logger.WarnContext(ctx, "resource not found", "error", err)
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, chat.ErrExternalService):
		logger.ErrorContext(ctx, "external service error", "error", err)
		writeError(w, http.StatusBadGateway, "External service error")
	default:
		logger.ErrorContext(ctx, defaultMsg, "error", err)
		writeError(w, http.StatusInternalServerError, defaultMsg)
	}
}
