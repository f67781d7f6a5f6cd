package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/chat"
	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/contextutil"
	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/storage"
)

// SessionsHandler serves chat session CRUD and message history.
type SessionsHandler struct {
	chatService *chat.Service
}

func NewSessionsHandler(chatService *chat.Service) *SessionsHandler {
	return &SessionsHandler{chatService: chatService}
}

// CreateSessionRequest is the payload for creating a chat session.
type CreateSessionRequest struct {
	Name           string   `json:"name"`
	ContextFileIDs []string `json:"contextFileIds"`
}

// RenameSessionRequest is the payload for renaming a chat session.
type RenameSessionRequest struct {
	Name string `json:"name"`
}

// UpdateContextFilesRequest is the payload for replacing a session's pinned
// context files.
type UpdateContextFilesRequest struct {
	ContextFileIDs []string `json:"contextFileIds"`
}

// SessionResponse is the wire form of a chat session.
type SessionResponse struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	Name            string    `json:"name"`
	NameAIGenerated bool      `json:"nameAiGenerated"`
	ContextFileIDs  []string  `json:"contextFileIds"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// MessageResponse is the wire form of a chat message.
type MessageResponse struct {
	ID        string             `json:"id"`
	SessionID string             `json:"sessionId"`
	Role      string             `json:"role"`
	Content   string             `json:"content"`
	Citations []storage.Citation `json:"citations,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
}

func toSessionResponse(s *storage.ChatSession) SessionResponse {
	contextFileIDs := s.ContextFileIDs
	if contextFileIDs == nil {
		contextFileIDs = []string{}
	}
	return SessionResponse{
		ID:              s.ID,
		UserID:          s.UserID,
		Name:            s.Name,
		NameAIGenerated: s.NameAIGenerated,
		ContextFileIDs:  contextFileIDs,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func toMessageResponse(m storage.ChatMessage) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		SessionID: m.SessionID,
		Role:      string(m.Role),
		Content:   m.Content,
		Citations: m.Citations,
		CreatedAt: m.CreatedAt,
	}
}

// List handles GET /api/chat/sessions.
func (h *SessionsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := contextutil.UserIDFromContext(ctx)

	sessions, err := h.chatService.ListSessions(ctx, userID)
	if err != nil {
		writeServiceError(ctx, w, err, "Failed to list sessions")
		return
	}

	resp := make([]SessionResponse, 0, len(sessions))
	for i := range sessions {
		resp = append(resp, toSessionResponse(&sessions[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /api/chat/sessions.
func (h *SessionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := contextutil.UserIDFromContext(ctx)

	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := h.chatService.CreateSession(ctx, userID, req.Name, req.ContextFileIDs)
	if err != nil {
		writeServiceError(ctx, w, err, "Failed to create session")
		return
	}
	writeJSON(w, http.StatusCreated, toSessionResponse(session))
}

// Get handles GET /api/chat/sessions/{sessionID}.
func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := contextutil.UserIDFromContext(ctx)

	session, err := h.chatService.GetSession(ctx, chi.URLParam(r, "sessionID"), userID)
	if err != nil {
		writeServiceError(ctx, w, err, "Failed to get session")
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

// Rename handles PATCH /api/chat/sessions/{sessionID}.
func (h *SessionsHandler) Rename(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := contextutil.UserIDFromContext(ctx)

	var req RenameSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := h.chatService.RenameSession(ctx, chi.URLParam(r, "sessionID"), userID, req.Name)
	if err != nil {
		writeServiceError(ctx, w, err, "Failed to rename session")
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

// UpdateContextFiles handles PUT /api/chat/sessions/{sessionID}/context-files.
func (h *SessionsHandler) UpdateContextFiles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := contextutil.UserIDFromContext(ctx)

	var req UpdateContextFilesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := h.chatService.UpdateContextFiles(ctx, chi.URLParam(r, "sessionID"), userID, req.ContextFileIDs)
	if err != nil {
		writeServiceError(ctx, w, err, "Failed to update context files")
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

// Delete handles DELETE /api/chat/sessions/{sessionID}.
func (h *SessionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := contextutil.UserIDFromContext(ctx)

	if err := h.chatService.DeleteSession(ctx, chi.URLParam(r, "sessionID"), userID); err != nil {
		writeServiceError(ctx, w, err, "Failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Messages handles GET /api/chat/sessions/{sessionID}/messages.
func (h *SessionsHandler) Messages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := contextutil.UserIDFromContext(ctx)

	messages, err := h.chatService.GetMessages(ctx, chi.URLParam(r, "sessionID"), userID)
	if err != nil {
		writeServiceError(ctx, w, err, "Failed to list messages")
		return
	}

	resp := make([]MessageResponse, 0, len(messages))
	for _, msg := range messages {
		resp = append(resp, toMessageResponse(msg))
	}
	writeJSON(w, http.StatusOK, resp)
}
