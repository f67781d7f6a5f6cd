package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/contextutil"
	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/storage"
	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/vectorstore"
)

// Embedder batch-embeds chunk texts.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Pipeline chunks a file's extracted text, embeds the chunks and upserts
// them into the owner's vector namespace. The payload fields written here
// (fileId, name, chunk_text, userId) are the ones retrieval reads back.
type Pipeline struct {
	chunker  *Chunker
	embedder Embedder
	index    vectorstore.Index
}

func NewPipeline(chunker *Chunker, embedder Embedder, index vectorstore.Index) *Pipeline {
	return &Pipeline{chunker: chunker, embedder: embedder, index: index}
}

// IngestFile indexes one file into the user's namespace. A file with no
// usable text is a no-op, not an error.
func (p *Pipeline) IngestFile(ctx context.Context, userID string, file *storage.File) error {
	logger := contextutil.LoggerFromContext(ctx)

	chunks := p.chunker.Chunk([]byte(file.Content))
	if len(chunks) == 0 {
		logger.InfoContext(ctx, "file has no indexable content", "file", file.ID)
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunkText(chunk)
	}

	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed file chunks: %w", err)
	}

	if err := p.index.EnsureNamespace(ctx, userID); err != nil {
		return fmt.Errorf("failed to ensure namespace: %w", err)
	}

	records := make([]vectorstore.Record, len(chunks))
	for i := range chunks {
		records[i] = vectorstore.Record{
			ID:     uuid.New().String(),
			Vector: vectors[i],
			Fields: map[string]any{
				"fileId":     file.ID,
				"name":       file.Name,
				"chunk_text": texts[i],
				"userId":     userID,
			},
		}
	}

	if err := p.index.Upsert(ctx, userID, records); err != nil {
		return fmt.Errorf("failed to upsert file chunks: %w", err)
	}

	logger.InfoContext(ctx, "file indexed", "file", file.ID, "chunks", len(records))
	return nil
}

// chunkText is the text that gets embedded and stored: the chunk body,
// prefixed with its heading when one exists so the heading's terms are
// searchable.
func chunkText(chunk Chunk) string {
	if chunk.Heading == "" {
		return chunk.Text
	}
	return chunk.Heading + "\n" + chunk.Text
}
