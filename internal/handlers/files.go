package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/contextutil"
	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/storage"
)

// Ingestor indexes a stored file into the owner's vector namespace.
type Ingestor interface {
	IngestFile(ctx context.Context, userID string, file *storage.File) error
}

// FilesHandler serves file creation. Created files are indexed for semantic
// search as part of the request.
type FilesHandler struct {
	files    storage.FileStore
	courses  storage.CourseStore
	ingestor Ingestor
}

func NewFilesHandler(files storage.FileStore, courses storage.CourseStore, ingestor Ingestor) *FilesHandler {
	return &FilesHandler{files: files, courses: courses, ingestor: ingestor}
}

// CreateFileRequest is the payload for creating a file.
type CreateFileRequest struct {
	CourseID     string  `json:"courseId"`
	FolderID     *string `json:"folderId"`
	Name         string  `json:"name"`
	OriginalName string  `json:"originalName"`
	Type         string  `json:"type"`
	Content      string  `json:"content"`
}

// FileResponse is the wire form of a file. Content is omitted; clients that
// need it fetch the file individually.
type FileResponse struct {
	ID           string    `json:"id"`
	CourseID     string    `json:"courseId"`
	FolderID     *string   `json:"folderId,omitempty"`
	Name         string    `json:"name"`
	OriginalName string    `json:"originalName"`
	Type         string    `json:"type"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Create handles POST /api/files.
func (h *FilesHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	userID := contextutil.UserIDFromContext(ctx)

	var req CreateFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.CourseID == "" {
		writeError(w, http.StatusBadRequest, "name and courseId are required")
		return
	}

	if _, err := h.courses.Get(ctx, req.CourseID, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Course not found")
			return
		}
		writeServiceError(ctx, w, err, "Failed to validate course")
		return
	}

	file := &storage.File{
		CourseID:     req.CourseID,
		FolderID:     req.FolderID,
		Name:         req.Name,
		OriginalName: req.OriginalName,
		Type:         req.Type,
		Content:      req.Content,
	}
	if err := h.files.Create(ctx, file); err != nil {
		writeServiceError(ctx, w, err, "Failed to create file")
		return
	}

	// Indexing is best-effort. The file is stored either way; a failed index
	// run only means it is invisible to semantic search.
	if h.ingestor != nil {
		if err := h.ingestor.IngestFile(ctx, userID, file); err != nil {
			logger.WarnContext(ctx, "failed to index file", "file", file.ID, "error", err)
		}
	}

	writeJSON(w, http.StatusCreated, FileResponse{
		ID:           file.ID,
		CourseID:     file.CourseID,
		FolderID:     file.FolderID,
		Name:         file.Name,
		OriginalName: file.OriginalName,
		Type:         file.Type,
		CreatedAt:    file.CreatedAt,
	})
}
