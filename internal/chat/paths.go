package chat

import (
	"context"

	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/storage"
)

// StorePaths implements PathResolver over the storage repositories.
type StorePaths struct {
	files   storage.FileStore
	decks   storage.DeckStore
	quizzes storage.QuizStore
}

func NewStorePaths(files storage.FileStore, decks storage.DeckStore, quizzes storage.QuizStore) *StorePaths {
	return &StorePaths{files: files, decks: decks, quizzes: quizzes}
}

func (p *StorePaths) FilePath(ctx context.Context, id, userID string) (string, error) {
	return p.files.Path(ctx, id, userID)
}

func (p *StorePaths) DeckPath(ctx context.Context, id, userID string) (string, error) {
	return p.decks.Path(ctx, id, userID)
}

func (p *StorePaths) QuizPath(ctx context.Context, id, userID string) (string, error) {
	return p.quizzes.Path(ctx, id, userID)
}
