package chat

import (
	"fmt"
	"strings"

	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/retrieval"
	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/storage"
)

// maxGenericFiles caps how many whole files a generic query carries; full
// file contents are large and generic questions rarely need more.
const maxGenericFiles = 4

// Section placeholders. The model is prompted against these exact strings,
// so they are load-bearing: an empty section must say so in these words.
const (
	noFilesPlaceholder    = "No files context provided for this message"
	noSnippetsPlaceholder = "No extracted content from files provided for this message"
	noDecksPlaceholder    = "No flashcard decks context provided for this message"
	noQuizzesPlaceholder  = "No quizzes context provided for this message"
)

// ContextInput is the material available for one message before the
// category policy is applied.
type ContextInput struct {
	Files    []storage.File
	Snippets []retrieval.Snippet
	Decks    []storage.DeckWithCards
	Quizzes  []storage.QuizWithQuestions
}

// applyContextPolicy reduces the input according to the query category:
//
//	GENERIC with files:    keep at most maxGenericFiles whole files, no snippets
//	GENERIC without files: no whole files, no snippets
//	SPECIFIC:              no whole files, keep snippets
//
// Decks and quizzes always pass through untouched.
func applyContextPolicy(category QueryCategory, in ContextInput) ContextInput {
	out := in
	if category == CategorySpecific {
		out.Files = nil
		return out
	}
	out.Snippets = nil
	if len(out.Files) == 0 {
		return out
	}
	if len(out.Files) > maxGenericFiles {
		out.Files = out.Files[:maxGenericFiles]
	}
	return out
}

// composeContext renders the four context sections in their stable order.
// The headers and item serializations are part of the model contract and
// must not drift.
func composeContext(in ContextInput) string {
	return fmt.Sprintf("\n\nFile Context: %s\n\nExtracted File Content Context: %s\n\nFlashcard Decks Context: %s\n\nQuizzes Context: %s",
		serializeFiles(in.Files),
		serializeSnippets(in.Snippets),
		serializeDecks(in.Decks),
		serializeQuizzes(in.Quizzes))
}

func serializeFiles(files []storage.File) string {
	if len(files) == 0 {
		return noFilesPlaceholder
	}
	parts := make([]string, len(files))
	for i, file := range files {
		parts[i] = fmt.Sprintf("File title: %s\nFile original name: %s\nContent: %s\nFile Id: %s",
			file.Name, file.OriginalName, file.Content, file.ID)
	}
	return strings.Join(parts, "\n\n")
}

func serializeSnippets(snippets []retrieval.Snippet) string {
	if len(snippets) == 0 {
		return noSnippetsPlaceholder
	}
	parts := make([]string, len(snippets))
	for i, snippet := range snippets {
		parts[i] = fmt.Sprintf("File name: %s\nContent: %s\nFile Id: %s",
			snippet.Name, snippet.Text, snippet.FileID)
	}
	return strings.Join(parts, "\n\n")
}

func serializeDecks(decks []storage.DeckWithCards) string {
	if len(decks) == 0 {
		return noDecksPlaceholder
	}
	parts := make([]string, len(decks))
	for i, deck := range decks {
		fileIDs := "No files were used in creating this flashcard deck."
		if len(deck.FileIDs) > 0 {
			fileIDs = strings.Join(deck.FileIDs, ", ")
		}
		cards := make([]string, len(deck.Cards))
		for j, card := range deck.Cards {
			cards[j] = fmt.Sprintf("Id: %s\nFront: %s\nBack: %s", card.ID, card.Front, card.Back)
		}
		parts[i] = fmt.Sprintf("Flashcard deck name: %s\nFlashcard deck id: %s\nFile ids: %s\nFlashcards: \n%s",
			deck.Name, deck.ID, fileIDs, strings.Join(cards, "\n\n"))
	}
	return strings.Join(parts, "\n\n")
}

func serializeQuizzes(quizzes []storage.QuizWithQuestions) string {
	if len(quizzes) == 0 {
		return noQuizzesPlaceholder
	}
	parts := make([]string, len(quizzes))
	for i, quiz := range quizzes {
		fileIDs := "No files were used in creating this quiz."
		if len(quiz.FileIDs) > 0 {
			fileIDs = strings.Join(quiz.FileIDs, ", ")
		}
		questions := make([]string, len(quiz.Questions))
		for j, q := range quiz.Questions {
			questions[j] = fmt.Sprintf("Id: %s\nQuestion: %s\nAnswer: %s", q.ID, q.Question, q.CorrectAnswer)
		}
		parts[i] = fmt.Sprintf("Quiz name: %s\nQuiz id: %s\nFile ids: %s\nQuestions: \n%s",
			quiz.Title, quiz.ID, fileIDs, strings.Join(questions, "\n\n"))
	}
	return strings.Join(parts, "\n\n")
}
