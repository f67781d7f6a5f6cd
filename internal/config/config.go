package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	APIPort string

	DBPath string

	// Gemini model configuration. When GeminiAPIKey is empty the server
	// starts with a degraded model client instead of failing.
	GeminiAPIKey    string
	GeminiChatModel string
	GeminiLiteModel string
	// GeminiThinkModel is used when a request asks for think mode.
	GeminiThinkModel string

	EmbeddingBaseURL   string
	EmbeddingAPIKey    string
	EmbeddingModelName string

	QdrantURL             string
	QdrantNamespacePrefix string
	QdrantVectorSize      int

	// RerankEnabled toggles the lexical re-ranking pass on retrieval results.
	RerankEnabled bool

	LogLevel  slog.Level
	LogFormat string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or a parent directory it is
// loaded first; environment variables already set take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	// Walk up a few directories so running from cmd/api also finds the .env
	// at the module root.
	if wd, err := os.Getwd(); err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{
		APIPort:               getEnv("API_PORT", "9000"),
		DBPath:                getEnv("DB_PATH", "./data/lecsum.db"),
		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GeminiChatModel:       getEnv("GEMINI_CHAT_MODEL", "gemini-1.5-flash-latest"),
		GeminiLiteModel:       getEnv("GEMINI_LITE_MODEL", "gemini-1.5-flash-8b"),
		GeminiThinkModel:      getEnv("GEMINI_THINK_MODEL", "gemini-1.5-pro-latest"),
		EmbeddingBaseURL:      getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingAPIKey:       getEnv("EMBEDDING_API_KEY", "dummy-key"),
		EmbeddingModelName:    getEnv("EMBEDDING_MODEL_NAME", "granite-embedding-278m-multilingual"),
		QdrantURL:             getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantNamespacePrefix: getEnv("QDRANT_NAMESPACE_PREFIX", "lecsum"),
		LogFormat:             getEnv("LOG_FORMAT", "text"),
	}

	// The vector size must match the output size of the embeddings model; if
	// it changes, the per-user Qdrant collections must be recreated.
	vectorSizeStr := getEnv("QDRANT_VECTOR_SIZE", "")
	if vectorSizeStr == "" {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE is required")
	}
	vectorSize, err := strconv.Atoi(vectorSizeStr)
	if err != nil {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be a valid integer: %w", err)
	}
	if vectorSize <= 0 {
		return nil, fmt.Errorf("QDRANT_VECTOR_SIZE must be greater than 0")
	}
	cfg.QdrantVectorSize = vectorSize

	rerank := strings.ToLower(getEnv("RERANK_ENABLED", "true"))
	cfg.RerankEnabled = rerank == "true" || rerank == "1"

	switch strings.ToLower(getEnv("LOG_LEVEL", "info")) {
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "warn":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		cfg.LogLevel = slog.LevelInfo
	}

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be \"text\" or \"json\", got %q", cfg.LogFormat)
	}

	// Create the data directory for the SQLite file if needed.
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
