package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/content"
	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/llm"
	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/llm/mocks"
	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/retrieval"
	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/storage"
)

type stubSearcher struct {
	snippets []retrieval.Snippet
	err      error
	called   bool
}

func (s *stubSearcher) Search(ctx context.Context, query, userID string) ([]retrieval.Snippet, error) {
	s.called = true
	return s.snippets, s.err
}

type stubUsage struct {
	counts map[string]int
}

func (s *stubUsage) RecordMessage(userID string) {
	if s.counts == nil {
		s.counts = map[string]int{}
	}
	s.counts[userID]++
}

type svcFixture struct {
	svc      *Service
	model    *mocks.MockModelClient
	searcher *stubSearcher
	usage    *stubUsage
	sessions *storage.SessionRepo
	messages *storage.MessageRepo
	files    *storage.FileRepo
	courses  *storage.CourseRepo
	decks    *storage.DeckRepo
	quizzes  *storage.QuizRepo
}

func newServiceFixture(t *testing.T) *svcFixture {
	t.Helper()
	db, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	ctrl := gomock.NewController(t)
	f := &svcFixture{
		model:    mocks.NewMockModelClient(ctrl),
		searcher: &stubSearcher{},
		usage:    &stubUsage{},
		sessions: storage.NewSessionRepo(db),
		messages: storage.NewMessageRepo(db),
		files:    storage.NewFileRepo(db),
		courses:  storage.NewCourseRepo(db),
		decks:    storage.NewDeckRepo(db),
		quizzes:  storage.NewQuizRepo(db),
	}
	folders := storage.NewFolderRepo(db)
	resolver := content.NewResolver(f.files, folders, f.courses, f.decks, f.quizzes)
	paths := NewStorePaths(f.files, f.decks, f.quizzes)
	f.svc = NewService(f.sessions, f.messages, f.files, resolver, f.searcher, f.model, paths, f.usage)
	return f
}

// seed creates a course with one file and a named session for user-1.
func (f *svcFixture) seed(t *testing.T) (*storage.ChatSession, *storage.File) {
	t.Helper()
	ctx := context.Background()

	course := &storage.Course{UserID: "user-1", Name: "Biology"}
	if err := f.courses.Create(ctx, course); err != nil {
		t.Fatal(err)
	}
	file := &storage.File{CourseID: course.ID, Name: "cells.pdf", OriginalName: "cells_v1.pdf", Content: "cell structure notes"}
	if err := f.files.Create(ctx, file); err != nil {
		t.Fatal(err)
	}

	session := &storage.ChatSession{UserID: "user-1", Name: "Chat"}
	if err := f.sessions.Create(ctx, session); err != nil {
		t.Fatal(err)
	}
	session.NameAIGenerated = true
	if err := f.sessions.Save(ctx, session); err != nil {
		t.Fatal(err)
	}
	return session, file
}

func (f *svcFixture) expectClassify(category string) {
	f.model.EXPECT().
		GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, prompt string, cfg llm.GenerateConfig) (string, error) {
			if len(cfg.ResponseEnum) == 0 {
				return "", errors.New("unexpected non-classifier call")
			}
			return category, nil
		})
}

// expectStream answers the stream call with the given chunks and captures the
// text of the final turn for context assertions.
func (f *svcFixture) expectStream(chunks []string, capturedTurn *string) {
	f.model.EXPECT().
		GenerateContentStream(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, turns []llm.Turn, cfg llm.GenerateConfig, emit func(string) error) error {
			if capturedTurn != nil && len(turns) > 0 {
				*capturedTurn = turns[len(turns)-1].Text
			}
			for _, chunk := range chunks {
				if err := emit(chunk); err != nil {
					return err
				}
			}
			return nil
		})
}

func collectEmit(fragments *[]string) func(string) error {
	return func(chunk string) error {
		*fragments = append(*fragments, chunk)
		return nil
	}
}

func TestSendMessageEmptyContent(t *testing.T) {
	f := newServiceFixture(t)
	session, _ := f.seed(t)
	ctx := context.Background()

	var fragments []string
	err := f.svc.SendMessage(ctx, session.ID, "user-1", SendMessageRequest{Content: "   "}, collectEmit(&fragments))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fragments) != 1 || !strings.Contains(fragments[0], "Message content cannot be empty") {
		t.Errorf("expected one in-band error fragment, got %v", fragments)
	}
	if !strings.HasPrefix(fragments[0], `{"error":`) {
		t.Errorf("error fragment is not JSON: %q", fragments[0])
	}

	messages, err := f.svc.GetMessages(ctx, session.ID, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(messages) != 0 {
		t.Errorf("expected nothing persisted, got %d messages", len(messages))
	}
}

func TestSendMessageUnknownSession(t *testing.T) {
	f := newServiceFixture(t)
	f.seed(t)
	ctx := context.Background()

	var fragments []string
	err := f.svc.SendMessage(ctx, "missing-session", "user-1", SendMessageRequest{Content: "hello"}, collectEmit(&fragments))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fragments) != 1 || !strings.Contains(fragments[0], "session not found") {
		t.Errorf("expected in-band session error, got %v", fragments)
	}
}

func TestSendMessageStreamsAndPersists(t *testing.T) {
	f := newServiceFixture(t)
	session, file := f.seed(t)
	ctx := context.Background()

	citationBlock := `[REF]{"type": "file", "id": "` + file.ID + `", "text": "cell structure notes"}[/REF]`
	chunks := []string{"Cells are the unit of life. ", citationBlock}

	f.expectClassify("GENERIC")
	f.expectStream(chunks, nil)

	var fragments []string
	err := f.svc.SendMessage(ctx, session.ID, "user-1", SendMessageRequest{
		Content: "What is in my notes?",
		FileIDs: []string{file.ID},
	}, collectEmit(&fragments))
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	// Fragments arrive in model order, unmodified.
	if len(fragments) != len(chunks) {
		t.Fatalf("expected %d fragments, got %d", len(chunks), len(fragments))
	}
	for i := range chunks {
		if fragments[i] != chunks[i] {
			t.Errorf("fragment %d mismatch: %q", i, fragments[i])
		}
	}

	messages, err := f.svc.GetMessages(ctx, session.ID, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected user + AI message, got %d", len(messages))
	}
	if messages[0].Role != storage.RoleUser || messages[0].Content != "What is in my notes?" {
		t.Errorf("unexpected user message: %+v", messages[0])
	}
	ai := messages[1]
	if ai.Role != storage.RoleAI {
		t.Errorf("expected AI role, got %s", ai.Role)
	}
	if ai.Content != strings.Join(chunks, "") {
		t.Errorf("AI content is not the accumulated stream: %q", ai.Content)
	}
	if len(ai.Citations) != 1 {
		t.Fatalf("expected 1 citation, got %d", len(ai.Citations))
	}
	if ai.Citations[0].Path != "Biology/cells.pdf" {
		t.Errorf("citation path not resolved: %+v", ai.Citations[0])
	}
	if ai.Citations[0].Text != "cell structure notes" {
		t.Errorf("citation excerpt lost: %+v", ai.Citations[0])
	}

	if f.usage.counts["user-1"] != 1 {
		t.Errorf("expected 1 recorded message, got %d", f.usage.counts["user-1"])
	}
}

func TestSendMessageAutoNamesOnce(t *testing.T) {
	f := newServiceFixture(t)
	_, file := f.seed(t)
	ctx := context.Background()

	session := &storage.ChatSession{UserID: "user-1", Name: "New Chat"}
	if err := f.sessions.Create(ctx, session); err != nil {
		t.Fatal(err)
	}

	namingCalls := 0
	f.model.EXPECT().
		GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, prompt string, cfg llm.GenerateConfig) (string, error) {
			if len(cfg.ResponseEnum) > 0 {
				return "GENERIC", nil
			}
			namingCalls++
			return `"A very long generated session title indeed"`, nil
		}).AnyTimes()
	f.model.EXPECT().
		GenerateContentStream(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, turns []llm.Turn, cfg llm.GenerateConfig, emit func(string) error) error {
			return emit("ok")
		}).Times(2)

	var fragments []string
	if err := f.svc.SendMessage(ctx, session.ID, "user-1", SendMessageRequest{Content: "first", FileIDs: []string{file.ID}}, collectEmit(&fragments)); err != nil {
		t.Fatal(err)
	}

	named, err := f.svc.GetSession(ctx, session.ID, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if !named.NameAIGenerated {
		t.Error("expected NameAIGenerated after first message")
	}
	if len([]rune(named.Name)) > 30 {
		t.Errorf("name not truncated to 30 chars: %q", named.Name)
	}
	if strings.Contains(named.Name, `"`) {
		t.Errorf("name kept surrounding quotes: %q", named.Name)
	}

	if err := f.svc.SendMessage(ctx, session.ID, "user-1", SendMessageRequest{Content: "second", FileIDs: []string{file.ID}}, collectEmit(&fragments)); err != nil {
		t.Fatal(err)
	}
	if namingCalls != 1 {
		t.Errorf("expected exactly 1 naming call, got %d", namingCalls)
	}
}

func TestSendMessageGenerationFailure(t *testing.T) {
	f := newServiceFixture(t)
	session, _ := f.seed(t)
	ctx := context.Background()

	f.expectClassify("GENERIC")
	f.model.EXPECT().
		GenerateContentStream(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, turns []llm.Turn, cfg llm.GenerateConfig, emit func(string) error) error {
			if err := emit("partial "); err != nil {
				return err
			}
			return errors.New("model exploded")
		})

	var fragments []string
	if err := f.svc.SendMessage(ctx, session.ID, "user-1", SendMessageRequest{Content: "question"}, collectEmit(&fragments)); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if len(fragments) != 2 {
		t.Fatalf("expected partial chunk plus error text, got %v", fragments)
	}
	if !strings.HasPrefix(fragments[1], "Sorry, I encountered an error: ") {
		t.Errorf("unexpected error fragment: %q", fragments[1])
	}

	messages, err := f.svc.GetMessages(ctx, session.ID, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected user + AI message, got %d", len(messages))
	}
	want := "partial " + fragments[1]
	if messages[1].Content != want {
		t.Errorf("persisted AI content %q, want %q", messages[1].Content, want)
	}
}

func TestSendMessageClientDisconnect(t *testing.T) {
	f := newServiceFixture(t)
	session, _ := f.seed(t)
	ctx := context.Background()

	f.expectClassify("GENERIC")
	f.model.EXPECT().
		GenerateContentStream(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, turns []llm.Turn, cfg llm.GenerateConfig, emit func(string) error) error {
			for _, chunk := range []string{"one ", "two ", "three"} {
				if err := emit(chunk); err != nil {
					return err
				}
			}
			return nil
		})

	emitted := 0
	emit := func(chunk string) error {
		emitted++
		if emitted > 1 {
			return errors.New("client gone")
		}
		return nil
	}

	if err := f.svc.SendMessage(ctx, session.ID, "user-1", SendMessageRequest{Content: "question"}, emit); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	messages, err := f.svc.GetMessages(ctx, session.ID, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected user + AI message, got %d", len(messages))
	}
	// The partial text up to the failed emit is persisted.
	if messages[1].Content != "one two " {
		t.Errorf("persisted partial %q, want %q", messages[1].Content, "one two ")
	}
}

func TestSendMessageClassifierFailsOpen(t *testing.T) {
	f := newServiceFixture(t)
	session, file := f.seed(t)
	ctx := context.Background()

	f.model.EXPECT().
		GenerateContent(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", errors.New("classifier down"))

	var turnText string
	f.expectStream([]string{"answer"}, &turnText)

	var fragments []string
	err := f.svc.SendMessage(ctx, session.ID, "user-1", SendMessageRequest{
		Content: "anything",
		FileIDs: []string{file.ID},
	}, collectEmit(&fragments))
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	// Fail-open means GENERIC: no retrieval, whole files in context.
	if f.searcher.called {
		t.Error("searcher must not run for a generic query")
	}
	if !strings.Contains(turnText, "File title: cells.pdf") {
		t.Errorf("file context missing from turn:\n%s", turnText)
	}
	if !strings.Contains(turnText, noSnippetsPlaceholder) {
		t.Errorf("snippet placeholder missing from turn:\n%s", turnText)
	}
}

func TestSendMessageSpecificUsesSnippets(t *testing.T) {
	f := newServiceFixture(t)
	session, file := f.seed(t)
	ctx := context.Background()

	f.searcher.snippets = []retrieval.Snippet{{FileID: file.ID, Name: "cells.pdf", Text: "mitochondria produce ATP"}}

	f.expectClassify("SPECIFIC")
	var turnText string
	f.expectStream([]string{"answer"}, &turnText)

	var fragments []string
	err := f.svc.SendMessage(ctx, session.ID, "user-1", SendMessageRequest{
		Content: "How do mitochondria produce ATP?",
		FileIDs: []string{file.ID},
	}, collectEmit(&fragments))
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if !f.searcher.called {
		t.Error("searcher must run for a specific query")
	}
	// Whole files are dropped, snippets carried.
	if !strings.Contains(turnText, noFilesPlaceholder) {
		t.Errorf("expected file placeholder for specific query:\n%s", turnText)
	}
	if !strings.Contains(turnText, "Content: mitochondria produce ATP") {
		t.Errorf("snippet missing from turn:\n%s", turnText)
	}
}

func TestSendMessageSearchFailureContinues(t *testing.T) {
	f := newServiceFixture(t)
	session, _ := f.seed(t)
	ctx := context.Background()

	f.searcher.err = errors.New("vector store down")

	f.expectClassify("SPECIFIC")
	var turnText string
	f.expectStream([]string{"answer"}, &turnText)

	var fragments []string
	if err := f.svc.SendMessage(ctx, session.ID, "user-1", SendMessageRequest{Content: "specific question"}, collectEmit(&fragments)); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if !strings.Contains(turnText, noSnippetsPlaceholder) {
		t.Errorf("expected empty snippet section after search failure:\n%s", turnText)
	}
	if fragments[len(fragments)-1] != "answer" {
		t.Errorf("stream did not complete: %v", fragments)
	}
}

func TestCreateSessionValidatesContextFiles(t *testing.T) {
	f := newServiceFixture(t)
	_, file := f.seed(t)
	ctx := context.Background()

	if _, err := f.svc.CreateSession(ctx, "user-1", "Chat", []string{"missing"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}

	session, err := f.svc.CreateSession(ctx, "user-1", "", []string{file.ID})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if session.Name != "New Chat" {
		t.Errorf("expected default name, got %q", session.Name)
	}

	// Another user cannot pin someone else's file.
	if _, err := f.svc.CreateSession(ctx, "user-2", "Chat", []string{file.ID}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for foreign file, got %v", err)
	}
}

func TestRenameSessionBlocksAutoNaming(t *testing.T) {
	f := newServiceFixture(t)
	f.seed(t)
	ctx := context.Background()

	session, err := f.svc.CreateSession(ctx, "user-1", "Chat", nil)
	if err != nil {
		t.Fatal(err)
	}

	renamed, err := f.svc.RenameSession(ctx, session.ID, "user-1", "My notes")
	if err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	if !renamed.NameAIGenerated {
		t.Error("manual rename must mark the name final")
	}

	// The next message must not call the namer.
	f.expectClassify("GENERIC")
	f.expectStream([]string{"ok"}, nil)
	var fragments []string
	if err := f.svc.SendMessage(ctx, session.ID, "user-1", SendMessageRequest{Content: "hello"}, collectEmit(&fragments)); err != nil {
		t.Fatal(err)
	}

	got, err := f.svc.GetSession(ctx, session.ID, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "My notes" {
		t.Errorf("auto-naming overwrote manual name: %q", got.Name)
	}
}

func TestGetMessagesEnforcesOwnership(t *testing.T) {
	f := newServiceFixture(t)
	session, _ := f.seed(t)
	ctx := context.Background()

	if _, err := f.svc.GetMessages(ctx, session.ID, "user-2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign user, got %v", err)
	}
}
