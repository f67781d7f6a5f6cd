package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/contextutil"
	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/llm"
)

// QueryCategory is the classifier's verdict on a user query.
type QueryCategory string

const (
	// CategoryGeneric marks queries with no recognizable topic; they read
	// best against whole files.
	CategoryGeneric QueryCategory = "GENERIC"
	// CategorySpecific marks queries about a concrete topic; they read best
	// against semantically retrieved snippets.
	CategorySpecific QueryCategory = "SPECIFIC"
)

// classifyQuery asks the lite model for a category. Any failure or unknown
// label falls open to GENERIC: the whole-file reading path degrades more
// gracefully than a retrieval pass against the wrong snippets.
func classifyQuery(ctx context.Context, model llm.ModelClient, query string) QueryCategory {
	logger := contextutil.LoggerFromContext(ctx)

	result, err := model.GenerateContent(ctx, fmt.Sprintf(classifierPromptTemplate, query), llm.GenerateConfig{
		SystemInstruction: classifierSystemPrompt,
		Temperature:       0.2,
		Lite:              true,
		ResponseEnum:      []string{string(CategoryGeneric), string(CategorySpecific)},
	})
	if err != nil {
		logger.WarnContext(ctx, "query classification failed, treating as generic", "error", err)
		return CategoryGeneric
	}

	switch QueryCategory(strings.TrimSpace(result)) {
	case CategorySpecific:
		return CategorySpecific
	case CategoryGeneric:
		return CategoryGeneric
	default:
		logger.WarnContext(ctx, "unknown query category, treating as generic", "category", result)
		return CategoryGeneric
	}
}
