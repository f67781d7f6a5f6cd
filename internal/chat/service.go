package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/content"
	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/contextutil"
	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/llm"
	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/retrieval"
	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/storage"
)

// Resolver loads the study material referenced by a message.
type Resolver interface {
	Resolve(ctx context.Context, userID string, refs content.Refs) (*content.Resolved, error)
}

// Searcher retrieves semantically relevant snippets for a query.
type Searcher interface {
	Search(ctx context.Context, query, userID string) ([]retrieval.Snippet, error)
}

// UsageRecorder counts sent messages per user.
type UsageRecorder interface {
	RecordMessage(userID string)
}

// SendMessageRequest is one user message plus its study-material selections.
type SendMessageRequest struct {
	Content   string   `json:"content"`
	FileIDs   []string `json:"fileIds"`
	FolderIDs []string `json:"folderIds"`
	DeckIDs   []string `json:"flashCardDeckIds"`
	QuizIDs   []string `json:"quizIds"`
	CourseID  string   `json:"courseId"`
	ThinkMode bool     `json:"thinkMode"`
}

// Service owns chat sessions and the send-message pipeline.
type Service struct {
	sessions storage.SessionStore
	messages storage.MessageStore
	files    storage.FileStore
	resolver Resolver
	searcher Searcher
	model    llm.ModelClient
	paths    PathResolver
	usage    UsageRecorder
}

func NewService(sessions storage.SessionStore, messages storage.MessageStore, files storage.FileStore, resolver Resolver, searcher Searcher, model llm.ModelClient, paths PathResolver, usage UsageRecorder) *Service {
	return &Service{
		sessions: sessions,
		messages: messages,
		files:    files,
		resolver: resolver,
		searcher: searcher,
		model:    model,
		paths:    paths,
		usage:    usage,
	}
}

// CreateSession creates a session for the user. Context file ids must all
// resolve to files the user owns.
func (s *Service) CreateSession(ctx context.Context, userID, name string, contextFileIDs []string) (*storage.ChatSession, error) {
	if name == "" {
		name = "New Chat"
	}
	for _, id := range contextFileIDs {
		if _, err := s.files.Get(ctx, id, userID); err != nil {
			return nil, WrapError(ErrInvalidInput, (&ValidationError{
				Field:   "contextFileIds",
				Message: fmt.Sprintf("file %s not found", id),
			}).Error())
		}
	}

	session := &storage.ChatSession{
		UserID:         userID,
		Name:           name,
		ContextFileIDs: contextFileIDs,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, WrapError(err, "failed to create session")
	}
	return session, nil
}

func (s *Service) ListSessions(ctx context.Context, userID string) ([]storage.ChatSession, error) {
	sessions, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, WrapError(err, "failed to list sessions")
	}
	return sessions, nil
}

func (s *Service) GetSession(ctx context.Context, id, userID string) (*storage.ChatSession, error) {
	session, err := s.sessions.Get(ctx, id, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, WrapError(err, "failed to get session")
	}
	return session, nil
}

// RenameSession sets a user-chosen name. It also marks the name as final so
// the automatic naming never overwrites it.
func (s *Service) RenameSession(ctx context.Context, id, userID, name string) (*storage.ChatSession, error) {
	if strings.TrimSpace(name) == "" {
		return nil, WrapError(ErrInvalidInput, "session name cannot be empty")
	}
	session, err := s.GetSession(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	session.Name = name
	session.NameAIGenerated = true
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, WrapError(err, "failed to rename session")
	}
	return session, nil
}

// UpdateContextFiles replaces the session's pinned context file ids.
func (s *Service) UpdateContextFiles(ctx context.Context, id, userID string, fileIDs []string) (*storage.ChatSession, error) {
	session, err := s.GetSession(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	for _, fileID := range fileIDs {
		if _, err := s.files.Get(ctx, fileID, userID); err != nil {
			return nil, WrapError(ErrInvalidInput, (&ValidationError{
				Field:   "contextFileIds",
				Message: fmt.Sprintf("file %s not found", fileID),
			}).Error())
		}
	}
	session.ContextFileIDs = fileIDs
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, WrapError(err, "failed to update context files")
	}
	return session, nil
}

func (s *Service) DeleteSession(ctx context.Context, id, userID string) error {
	err := s.sessions.Delete(ctx, id, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return WrapError(err, "failed to delete session")
	}
	return nil
}

func (s *Service) GetMessages(ctx context.Context, sessionID, userID string) ([]storage.ChatMessage, error) {
	if _, err := s.GetSession(ctx, sessionID, userID); err != nil {
		return nil, err
	}
	messages, err := s.messages.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, WrapError(err, "failed to list messages")
	}
	return messages, nil
}

// disconnectError marks a stream abort caused by the consumer, not the model.
type disconnectError struct {
	err error
}

func (e *disconnectError) Error() string { return e.err.Error() }
func (e *disconnectError) Unwrap() error { return e.err }

const generationFallbackMessage = "Sorry, I encountered an error while processing your request."

// SendMessage runs the full pipeline for one user message and streams the
// response through emit, one fragment per model chunk, in order. Validation
// failures surface as a single in-band JSON error fragment and nothing is
// persisted. Once the user message is persisted, some AI message is always
// persisted afterwards, even if generation fails or the consumer goes away
// mid-stream.
func (s *Service) SendMessage(ctx context.Context, sessionID, userID string, req SendMessageRequest, emit func(chunk string) error) error {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(req.Content) == "" {
		return emitError(emit, "Message content cannot be empty")
	}

	session, err := s.sessions.Get(ctx, sessionID, userID)
	if err != nil {
		return emitError(emit, "Error processing your message: session not found")
	}

	// First message in a session names the session. The flag flips even if a
	// later rename happens, so this runs at most once.
	if !session.NameAIGenerated {
		session.Name = s.generateSessionName(ctx, req.Content)
		session.NameAIGenerated = true
		if err := s.sessions.Save(ctx, session); err != nil {
			logger.WarnContext(ctx, "failed to save generated session name", "error", err)
		}
	}

	resolved, err := s.resolver.Resolve(ctx, userID, content.Refs{
		FileIDs:   append(append([]string{}, session.ContextFileIDs...), req.FileIDs...),
		FolderIDs: req.FolderIDs,
		DeckIDs:   req.DeckIDs,
		QuizIDs:   req.QuizIDs,
		CourseID:  req.CourseID,
	})
	if err != nil {
		return emitError(emit, "Error processing your message: "+err.Error())
	}

	category := classifyQuery(ctx, s.model, req.Content)

	in := ContextInput{
		Files:   resolved.Files,
		Decks:   resolved.Decks,
		Quizzes: resolved.Quizzes,
	}
	if category == CategorySpecific {
		snippets, err := s.searcher.Search(ctx, req.Content, userID)
		if err != nil {
			// Retrieval is best-effort: the message still goes through with
			// an empty snippet section.
			logger.WarnContext(ctx, "semantic search failed, continuing without snippets", "error", err)
		}
		in.Snippets = snippets
	}
	in = applyContextPolicy(category, in)
	contextStr := composeContext(in)

	userMessage := &storage.ChatMessage{
		SessionID: sessionID,
		Role:      storage.RoleUser,
		Content:   req.Content,
	}
	if err := s.messages.Create(ctx, userMessage); err != nil {
		return emitError(emit, "Error processing your message: "+err.Error())
	}

	// Consistency re-read. A miss is logged, never fatal.
	if saved, err := s.messages.Get(ctx, userMessage.ID); err != nil || saved.SessionID != sessionID {
		logger.ErrorContext(ctx, "user message not linked to session", "message", userMessage.ID, "session", sessionID, "error", err)
	}

	if s.usage != nil {
		s.usage.RecordMessage(userID)
	}

	history, err := s.messages.ListBySession(ctx, sessionID)
	if err != nil {
		logger.WarnContext(ctx, "failed to load history, sending current message only", "error", err)
		history = []storage.ChatMessage{*userMessage}
	}

	turns := make([]llm.Turn, 0, len(history))
	for _, msg := range history {
		role := llm.RoleUser
		if msg.Role == storage.RoleAI {
			role = llm.RoleModel
		}
		turns = append(turns, llm.Turn{
			Role: role,
			Text: "Context: " + contextStr + "\n\n" + "User query: " + msg.Content,
		})
	}

	var streamed strings.Builder
	streamErr := s.model.GenerateContentStream(ctx, turns, llm.GenerateConfig{
		SystemInstruction: chatSystemPrompt,
		Temperature:       0.2,
		MaxOutputTokens:   8192,
		ThinkMode:         req.ThinkMode,
	}, func(chunk string) error {
		streamed.WriteString(chunk)
		if err := emit(chunk); err != nil {
			return &disconnectError{err: err}
		}
		return nil
	})

	var disconnect *disconnectError
	switch {
	case streamErr == nil:
	case errors.As(streamErr, &disconnect):
		// Consumer went away. Keep whatever was streamed and persist it.
		logger.InfoContext(ctx, "client disconnected mid-stream, persisting partial response", "session", sessionID)
	default:
		// Generation failed. The error text becomes part of the response so
		// the conversation record shows what the user saw.
		errText := fmt.Sprintf("Sorry, I encountered an error: %s", streamErr.Error())
		streamed.WriteString(errText)
		if err := emit(errText); err != nil {
			logger.WarnContext(ctx, "failed to emit generation error", "error", err)
		}
	}

	finalContent := streamed.String()
	if finalContent == "" {
		finalContent = generationFallbackMessage
	}

	citations := resolveCitationPaths(ctx, s.paths, parseCitations(ctx, finalContent), userID)

	aiMessage := &storage.ChatMessage{
		SessionID: sessionID,
		Role:      storage.RoleAI,
		Content:   finalContent,
		Citations: citations,
	}
	if err := s.messages.Create(ctx, aiMessage); err != nil {
		logger.ErrorContext(ctx, "failed to persist AI message", "session", sessionID, "error", err)
		return WrapError(err, "failed to persist AI message")
	}

	return nil
}

// generateSessionName asks the lite model for a title capped at 30
// characters, falling back to a dated default.
func (s *Service) generateSessionName(ctx context.Context, firstMessage string) string {
	logger := contextutil.LoggerFromContext(ctx)

	name, err := s.model.GenerateContent(ctx, fmt.Sprintf(namerPromptTemplate, firstMessage), llm.GenerateConfig{
		SystemInstruction: namerSystemPrompt,
		Temperature:       0.2,
		Lite:              true,
	})
	if err != nil {
		logger.WarnContext(ctx, "session name generation failed, using fallback", "error", err)
		return fallbackSessionName()
	}

	name = strings.Trim(strings.TrimSpace(name), `"'`)
	if name == "" {
		return fallbackSessionName()
	}
	if runes := []rune(name); len(runes) > 30 {
		name = string(runes[:30])
	}
	return name
}

func fallbackSessionName() string {
	return "Chat " + time.Now().Format("1/2/2006")
}

// emitError sends a single in-band JSON error fragment. The stream itself
// still ends normally; the error is payload, not transport failure.
func emitError(emit func(chunk string) error, message string) error {
	payload, err := json.Marshal(map[string]string{"error": message})
	if err != nil {
		return err
	}
	return emit(string(payload))
}
