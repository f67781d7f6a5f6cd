package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/chat"
	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/contextutil"
)

// StreamHandler serves POST /api/chat/sessions/{sessionID}/messages as a
// Server-Sent Events stream. Each model fragment is forwarded as one `data:`
// event the moment it arrives; the stream always ends with a [DONE] event,
// whatever happened before it.
type StreamHandler struct {
	chatService *chat.Service
}

func NewStreamHandler(chatService *chat.Service) *StreamHandler {
	return &StreamHandler{chatService: chatService}
}

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	userID := contextutil.UserIDFromContext(ctx)
	sessionID := chi.URLParam(r, "sessionID")

	var req chat.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.ErrorContext(ctx, "response writer does not support streaming")
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	defer func() {
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	}()

	err := h.chatService.SendMessage(ctx, sessionID, userID, req, func(chunk string) error {
		if err := writeEvent(w, chunk); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		// The stream is already open; the error can only be logged here. The
		// service has emitted whatever the client should see in-band.
		logger.ErrorContext(ctx, "send message failed", "session", sessionID, "error", err)
	}
}

// writeEvent writes one SSE event. Fragments may span lines; each line gets
// its own data: field so the client reassembles the fragment verbatim.
func writeEvent(w io.Writer, chunk string) error {
	for _, line := range strings.Split(chunk, "\n") {
		if _, err := fmt.Fprintf(w, "data: %s\n", line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(w, "\n")
	return err
}
