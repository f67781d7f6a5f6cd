package http

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/chat"
	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/handlers"
	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/storage"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	DB          *sql.DB
	ChatService *chat.Service
	Files       storage.FileStore
	Courses     storage.CourseStore
	Ingestor    handlers.Ingestor
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)
	r.Use(LoggerMiddleware)

	r.Method(http.MethodGet, "/health", handlers.NewHealthHandler(deps.DB))

	sessionsHandler := handlers.NewSessionsHandler(deps.ChatService)
	streamHandler := handlers.NewStreamHandler(deps.ChatService)
	filesHandler := handlers.NewFilesHandler(deps.Files, deps.Courses, deps.Ingestor)

	r.Route("/api", func(r chi.Router) {
		r.Use(Identity)

		r.Route("/chat/sessions", func(r chi.Router) {
			r.Get("/", sessionsHandler.List)
			r.Post("/", sessionsHandler.Create)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", sessionsHandler.Get)
				r.Patch("/", sessionsHandler.Rename)
				r.Delete("/", sessionsHandler.Delete)
				r.Put("/context-files", sessionsHandler.UpdateContextFiles)
				r.Get("/messages", sessionsHandler.Messages)
				r.Method(http.MethodPost, "/messages", streamHandler)
			})
		})

		r.Post("/files", filesHandler.Create)
	})

	return r
}
