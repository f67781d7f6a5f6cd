package content

import (
	"context"

	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/contextutil"
	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/storage"
)

// Refs is the set of study-material references attached to one message:
// explicit selections from the request plus the session's context file ids.
type Refs struct {
	FileIDs   []string
	FolderIDs []string
	DeckIDs   []string
	QuizIDs   []string
	CourseID  string
}

// Resolved is the loaded study material for one message. Files is
// deduplicated by id in first-seen order.
type Resolved struct {
	Files   []storage.File
	Decks   []storage.DeckWithCards
	Quizzes []storage.QuizWithQuestions
}

// Resolver loads referenced study material from storage. A reference that
// fails to load is logged and skipped; the message still goes through with
// whatever resolved.
type Resolver struct {
	files   storage.FileStore
	folders storage.FolderStore
	courses storage.CourseStore
	decks   storage.DeckStore
	quizzes storage.QuizStore
}

func NewResolver(files storage.FileStore, folders storage.FolderStore, courses storage.CourseStore, decks storage.DeckStore, quizzes storage.QuizStore) *Resolver {
	return &Resolver{
		files:   files,
		folders: folders,
		courses: courses,
		decks:   decks,
		quizzes: quizzes,
	}
}

func (r *Resolver) Resolve(ctx context.Context, userID string, refs Refs) (*Resolved, error) {
	logger := contextutil.LoggerFromContext(ctx)
	resolved := &Resolved{}
	seen := map[string]bool{}

	addFile := func(f storage.File) {
		if seen[f.ID] {
			return
		}
		seen[f.ID] = true
		resolved.Files = append(resolved.Files, f)
	}

	for _, id := range refs.FileIDs {
		file, err := r.files.Get(ctx, id, userID)
		if err != nil {
			logger.WarnContext(ctx, "skipping unresolvable file", "file", id, "error", err)
			continue
		}
		addFile(*file)
	}

	for _, id := range refs.FolderIDs {
		files, err := r.folders.ListFilesRecursive(ctx, id, userID)
		if err != nil {
			logger.WarnContext(ctx, "skipping unresolvable folder", "folder", id, "error", err)
			continue
		}
		for _, f := range files {
			addFile(f)
		}
	}

	// A course reference pulls in every file of the course.
	if refs.CourseID != "" {
		files, err := r.courses.ListAllFiles(ctx, refs.CourseID, userID)
		if err != nil {
			logger.WarnContext(ctx, "skipping unresolvable course", "course", refs.CourseID, "error", err)
		} else {
			for _, f := range files {
				addFile(f)
			}
		}
	}

	// Deck and quiz references also pull in their source files. Ownership was
	// already checked on the deck or quiz itself, so the files load through
	// the unchecked lookup.
	addSourceFiles := func(kind string, fileIDs []string) {
		for _, fileID := range fileIDs {
			file, err := r.files.GetForContext(ctx, fileID)
			if err != nil {
				logger.WarnContext(ctx, "skipping unresolvable "+kind+" source file", "file", fileID, "error", err)
				continue
			}
			addFile(*file)
		}
	}

	for _, id := range refs.DeckIDs {
		deck, err := r.decks.GetWithCards(ctx, id, userID)
		if err != nil {
			logger.WarnContext(ctx, "skipping unresolvable deck", "deck", id, "error", err)
			continue
		}
		resolved.Decks = append(resolved.Decks, *deck)
		addSourceFiles("deck", deck.FileIDs)
	}

	for _, id := range refs.QuizIDs {
		quiz, err := r.quizzes.GetWithQuestions(ctx, id, userID)
		if err != nil {
			logger.WarnContext(ctx, "skipping unresolvable quiz", "quiz", id, "error", err)
			continue
		}
		resolved.Quizzes = append(resolved.Quizzes, *quiz)
		addSourceFiles("quiz", quiz.FileIDs)
	}

	return resolved, nil
}
