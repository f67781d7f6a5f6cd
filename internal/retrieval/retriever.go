package retrieval

import (
	"context"
	"fmt"

	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/contextutil"
	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/vectorstore"
)

// Snippet is one retrieved chunk of file content.
type Snippet struct {
	FileID string
	Name   string
	Text   string
}

// Embedder turns a query into a vector.
type Embedder interface {
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

// Retriever searches a user's vector namespace for content relevant to a
// query.
type Retriever struct {
	embedder Embedder
	index    vectorstore.Index
	rerank   bool
}

// maxTopK caps how many hits one search requests.
const maxTopK = 10

func New(embedder Embedder, index vectorstore.Index, rerank bool) *Retriever {
	return &Retriever{embedder: embedder, index: index, rerank: rerank}
}

// Search embeds the query and returns the most relevant snippets from the
// user's namespace. Only the user's own content is ever searched; the
// namespace is keyed by user id and hits with a mismatched owner field are
// dropped on top of that.
func (r *Retriever) Search(ctx context.Context, query, userID string) ([]Snippet, error) {
	logger := contextutil.LoggerFromContext(ctx)

	topK := maxTopK
	count, err := r.index.Count(ctx, userID)
	if err != nil {
		// Unknown count: request the cap and let the index return fewer.
		logger.WarnContext(ctx, "namespace count unavailable, using cap", "error", err)
	} else if count < topK {
		topK = count
	}
	if topK == 0 {
		return nil, nil
	}

	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := r.index.Search(ctx, userID, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	snippets := make([]Snippet, 0, len(hits))
	for _, hit := range hits {
		owner, _ := hit.Fields["userId"].(string)
		if owner != userID {
			logger.WarnContext(ctx, "dropping hit with mismatched owner", "hit", hit.ID)
			continue
		}
		fileID, _ := hit.Fields["fileId"].(string)
		name, _ := hit.Fields["name"].(string)
		text, _ := hit.Fields["chunk_text"].(string)
		snippets = append(snippets, Snippet{FileID: fileID, Name: name, Text: text})
	}

	if r.rerank && wordCount(query) < rerankWordLimit {
		snippets = rerankSnippets(query, snippets, topN(topK))
	}
	return snippets, nil
}

// topN is how many snippets survive the lexical pass: 20% fewer than topK
// with a floor of 5. Small result sets pass through untouched.
func topN(topK int) int {
	if topK < 5 {
		return topK
	}
	n := topK - topK/5
	if n < 5 {
		n = 5
	}
	return n
}
