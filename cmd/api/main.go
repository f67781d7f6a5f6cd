package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/chat"
	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/config"
	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/content"
	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/http"
	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/ingest"
	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/llm"
	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/retrieval"
	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/storage"
	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/usage"
	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/vectorstore"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	// Create repository instances
	sessionRepo := storage.NewSessionRepo(db)
	messageRepo := storage.NewMessageRepo(db)
	fileRepo := storage.NewFileRepo(db)
	folderRepo := storage.NewFolderRepo(db)
	courseRepo := storage.NewCourseRepo(db)
	deckRepo := storage.NewDeckRepo(db)
	quizRepo := storage.NewQuizRepo(db)

	ctx := context.Background()

	// Initialize the per-user Qdrant index
	index, err := vectorstore.NewQdrantIndex(cfg.QdrantURL, cfg.QdrantNamespacePrefix, cfg.QdrantVectorSize)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}
	slog.Info("Qdrant index ready", "prefix", cfg.QdrantNamespacePrefix, "vector_size", cfg.QdrantVectorSize)

	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize)

	// Select the model client. A missing API key degrades chat instead of
	// keeping the whole server down.
	var model llm.ModelClient
	if cfg.GeminiAPIKey != "" {
		geminiClient, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiChatModel, cfg.GeminiLiteModel, cfg.GeminiThinkModel)
		if err != nil {
			log.Fatalf("Failed to create Gemini client: %v", err)
		}
		defer geminiClient.Close()
		model = geminiClient
		slog.Info("Gemini client initialized", "chat_model", cfg.GeminiChatModel, "lite_model", cfg.GeminiLiteModel, "think_model", cfg.GeminiThinkModel)
	} else {
		model = llm.NewDegradedClient()
		slog.Warn("GEMINI_API_KEY not set, starting with degraded model client")
	}

	retriever := retrieval.New(embedder, index, cfg.RerankEnabled)
	resolver := content.NewResolver(fileRepo, folderRepo, courseRepo, deckRepo, quizRepo)
	paths := chat.NewStorePaths(fileRepo, deckRepo, quizRepo)
	tracker := usage.NewTracker(usage.NewMemoryCache(), usage.DefaultPeriod)

	chatService := chat.NewService(sessionRepo, messageRepo, fileRepo, resolver, retriever, model, paths, tracker)
	pipeline := ingest.NewPipeline(ingest.NewChunker(), embedder, index)
	slog.Info("Chat service initialized", "rerank_enabled", cfg.RerankEnabled)

	router := http.NewRouter(&http.Deps{
		DB:          db,
		ChatService: chatService,
		Files:       fileRepo,
		Courses:     courseRepo,
		Ingestor:    pipeline,
	})

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
