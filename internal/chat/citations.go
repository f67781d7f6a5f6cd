package chat

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/contextutil"
	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/storage"
)

// PathResolver maps cited study material to its display path, with the
// requesting user's ownership enforced.
type PathResolver interface {
	FilePath(ctx context.Context, id, userID string) (string, error)
	DeckPath(ctx context.Context, id, userID string) (string, error)
	QuizPath(ctx context.Context, id, userID string) (string, error)
}

var citationPattern = regexp.MustCompile(`(?s)\[REF\](.*?)\[/REF\]`)

// parseCitations scans the response text for [REF]...[/REF] blocks and
// parses each payload. A block that is not valid JSON or names an unknown
// type is dropped; the rest survive. The response text itself is never
// modified, the citation markup stays in the persisted message.
func parseCitations(ctx context.Context, text string) []storage.Citation {
	logger := contextutil.LoggerFromContext(ctx)

	matches := citationPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	citations := make([]storage.Citation, 0, len(matches))
	for _, match := range matches {
		payload := strings.TrimSpace(match[1])

		var citation storage.Citation
		if err := json.Unmarshal([]byte(payload), &citation); err != nil {
			logger.WarnContext(ctx, "dropping unparseable citation", "error", err)
			continue
		}

		switch citation.Type {
		case storage.CitationFile, storage.CitationFlashcardDeck, storage.CitationQuiz:
		default:
			logger.WarnContext(ctx, "dropping citation with unsupported type", "type", string(citation.Type), "id", citation.ID)
			continue
		}

		citations = append(citations, citation)
	}
	return citations
}

// resolveCitationPaths fills in each citation's display path. A citation
// whose target cannot be resolved for this user is dropped; one bad citation
// never discards the others.
func resolveCitationPaths(ctx context.Context, paths PathResolver, citations []storage.Citation, userID string) []storage.Citation {
	logger := contextutil.LoggerFromContext(ctx)

	resolved := make([]storage.Citation, 0, len(citations))
	for _, citation := range citations {
		var path string
		var err error
		switch citation.Type {
		case storage.CitationFile:
			path, err = paths.FilePath(ctx, citation.ID, userID)
		case storage.CitationFlashcardDeck:
			path, err = paths.DeckPath(ctx, citation.ID, userID)
		case storage.CitationQuiz:
			path, err = paths.QuizPath(ctx, citation.ID, userID)
		}
		if err != nil {
			logger.WarnContext(ctx, "dropping citation with unresolvable target", "type", string(citation.Type), "id", citation.ID, "error", err)
			continue
		}
		citation.Path = path
		resolved = append(resolved, citation)
	}
	if len(resolved) == 0 {
		return nil
	}
	return resolved
}
