package storage

import "time"

// Course groups all study material a user uploaded for one subject.
type Course struct {
	ID        string
	UserID    string
	Name      string
	CreatedAt time.Time
}

// Folder is a node in a course's folder tree. ParentID is nil for roots.
type Folder struct {
	ID        string
	CourseID  string
	ParentID  *string
	Name      string
	CreatedAt time.Time
}

// File holds the extracted text content of an uploaded document.
type File struct {
	ID           string
	CourseID     string
	FolderID     *string
	Name         string
	OriginalName string
	Type         string
	Content      string
	CreatedAt    time.Time
}

// Deck is a flashcard deck, optionally generated from a set of files.
type Deck struct {
	ID        string
	CourseID  string
	Name      string
	FileIDs   []string
	CreatedAt time.Time
}

// Flashcard is a single card in a deck.
type Flashcard struct {
	ID        string
	DeckID    string
	Front     string
	Back      string
	CreatedAt time.Time
}

// DeckWithCards bundles a deck with its flashcards in creation order.
type DeckWithCards struct {
	Deck
	Cards []Flashcard
}

// Quiz is a generated quiz, optionally linked to a set of files.
type Quiz struct {
	ID        string
	CourseID  string
	Title     string
	FileIDs   []string
	CreatedAt time.Time
}

// QuizQuestion is a single question in a quiz.
type QuizQuestion struct {
	ID            string
	QuizID        string
	Question      string
	CorrectAnswer string
	CreatedAt     time.Time
}

// QuizWithQuestions bundles a quiz with its questions in creation order.
type QuizWithQuestions struct {
	Quiz
	Questions []QuizQuestion
}

// ChatSession is one conversation thread owned by a single user.
type ChatSession struct {
	ID     string
	UserID string
	Name   string
	// NameAIGenerated records whether the session name was already generated
	// from the first message; the generation happens at most once.
	NameAIGenerated bool
	ContextFileIDs  []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// MessageRole identifies the author side of a chat message.
type MessageRole string

const (
	RoleUser MessageRole = "user"
	RoleAI   MessageRole = "ai"
)

// CitationType discriminates the kinds of study material a citation can point at.
type CitationType string

const (
	CitationFile          CitationType = "file"
	CitationFlashcardDeck CitationType = "flashcardDeck"
	CitationQuiz          CitationType = "quiz"
)

// Citation is a reference parsed out of a model response, pointing back at a
// specific study-material item. Which optional fields are set depends on Type:
// file citations carry Text (the cited excerpt), flashcardDeck citations carry
// FlashcardID and quiz citations carry QuestionID. Path is the resolved
// human-readable location of the target, filled in during extraction.
type Citation struct {
	Type        CitationType `json:"type"`
	ID          string       `json:"id"`
	Text        string       `json:"text,omitempty"`
	FlashcardID string       `json:"flashcardId,omitempty"`
	QuestionID  string       `json:"questionId,omitempty"`
	Path        string       `json:"path,omitempty"`
}

// ChatMessage is a single persisted message within a session. Citations is
// nil for user messages and for AI messages without references.
type ChatMessage struct {
	ID        string
	SessionID string
	Role      MessageRole
	Content   string
	Citations []Citation
	CreatedAt time.Time
}
