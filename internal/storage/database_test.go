package storage

import (
	"context"
	"errors"
	"testing"
)

func newTestDB(t *testing.T) *testStores {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return &testStores{
		sessions: NewSessionRepo(db),
		messages: NewMessageRepo(db),
		courses:  NewCourseRepo(db),
		folders:  NewFolderRepo(db),
		files:    NewFileRepo(db),
		decks:    NewDeckRepo(db),
		quizzes:  NewQuizRepo(db),
	}
}

type testStores struct {
	sessions *SessionRepo
	messages *MessageRepo
	courses  *CourseRepo
	folders  *FolderRepo
	files    *FileRepo
	decks    *DeckRepo
	quizzes  *QuizRepo
}

func TestMigrateIdempotent(t *testing.T) {
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := Migrate(db); err != nil {
		t.Fatalf("first migrate failed: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}
}

func TestSessionRepoCRUD(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()

	session := &ChatSession{UserID: "user-1", Name: "Biology questions", ContextFileIDs: []string{"f1", "f2"}}
	if err := s.sessions.Create(ctx, session); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if session.ID == "" {
		t.Fatal("expected a generated session id")
	}

	got, err := s.sessions.Get(ctx, session.ID, "user-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Name != "Biology questions" {
		t.Errorf("expected name %q, got %q", "Biology questions", got.Name)
	}
	if len(got.ContextFileIDs) != 2 || got.ContextFileIDs[0] != "f1" {
		t.Errorf("unexpected context file ids: %v", got.ContextFileIDs)
	}
	if got.NameAIGenerated {
		t.Error("expected NameAIGenerated to be false")
	}

	// Ownership: another user must not see the session.
	if _, err := s.sessions.Get(ctx, session.ID, "user-2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign user, got %v", err)
	}

	got.Name = "Renamed"
	got.NameAIGenerated = true
	if err := s.sessions.Save(ctx, got); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	got, err = s.sessions.Get(ctx, session.ID, "user-1")
	if err != nil {
		t.Fatalf("get after save failed: %v", err)
	}
	if got.Name != "Renamed" || !got.NameAIGenerated {
		t.Errorf("save did not persist changes: %+v", got)
	}

	list, err := s.sessions.ListByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 session, got %d", len(list))
	}

	if err := s.sessions.Delete(ctx, session.ID, "user-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := s.sessions.Get(ctx, session.ID, "user-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSessionDeleteCascadesMessages(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()

	session := &ChatSession{UserID: "user-1", Name: "Chat"}
	if err := s.sessions.Create(ctx, session); err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	msg := &ChatMessage{SessionID: session.ID, Role: RoleUser, Content: "hello"}
	if err := s.messages.Create(ctx, msg); err != nil {
		t.Fatalf("create message failed: %v", err)
	}

	if err := s.sessions.Delete(ctx, session.ID, "user-1"); err != nil {
		t.Fatalf("delete session failed: %v", err)
	}
	if _, err := s.messages.Get(ctx, msg.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected message to cascade on delete, got %v", err)
	}
}

func TestMessageRepoCitationsRoundTrip(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()

	session := &ChatSession{UserID: "user-1", Name: "Chat"}
	if err := s.sessions.Create(ctx, session); err != nil {
		t.Fatalf("create session failed: %v", err)
	}

	msg := &ChatMessage{
		SessionID: session.ID,
		Role:      RoleAI,
		Content:   "The mitochondria is the powerhouse of the cell.",
		Citations: []Citation{
			{Type: CitationFile, ID: "f1", Text: "powerhouse of the cell", Path: "Biology/Cells.pdf"},
			{Type: CitationQuiz, ID: "q1", QuestionID: "qq1", Path: "Biology/Cell quiz"},
		},
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := s.messages.Get(ctx, msg.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(got.Citations) != 2 {
		t.Fatalf("expected 2 citations, got %d", len(got.Citations))
	}
	if got.Citations[0].Type != CitationFile || got.Citations[0].Text != "powerhouse of the cell" {
		t.Errorf("unexpected first citation: %+v", got.Citations[0])
	}
	if got.Citations[1].QuestionID != "qq1" {
		t.Errorf("unexpected second citation: %+v", got.Citations[1])
	}
}

func TestMessageListBySessionOrder(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()

	session := &ChatSession{UserID: "user-1", Name: "Chat"}
	if err := s.sessions.Create(ctx, session); err != nil {
		t.Fatalf("create session failed: %v", err)
	}

	contents := []string{"first", "second", "third"}
	for _, c := range contents {
		role := RoleUser
		if c == "second" {
			role = RoleAI
		}
		if err := s.messages.Create(ctx, &ChatMessage{SessionID: session.ID, Role: role, Content: c}); err != nil {
			t.Fatalf("create message %q failed: %v", c, err)
		}
	}

	list, err := s.messages.ListBySession(ctx, session.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(list))
	}
	for i, c := range contents {
		if list[i].Content != c {
			t.Errorf("position %d: expected %q, got %q", i, c, list[i].Content)
		}
	}
	if list[0].Citations != nil {
		t.Errorf("expected nil citations on a user message, got %v", list[0].Citations)
	}
}

func seedCourseTree(t *testing.T, s *testStores) (course *Course, rootFolder, subFolder *Folder, rootFile, nestedFile, looseFile *File) {
	t.Helper()
	ctx := context.Background()

	course = &Course{UserID: "user-1", Name: "Biology"}
	if err := s.courses.Create(ctx, course); err != nil {
		t.Fatalf("create course failed: %v", err)
	}
	rootFolder = &Folder{CourseID: course.ID, Name: "Week 1"}
	if err := s.folders.Create(ctx, rootFolder); err != nil {
		t.Fatalf("create folder failed: %v", err)
	}
	subFolder = &Folder{CourseID: course.ID, ParentID: &rootFolder.ID, Name: "Lectures"}
	if err := s.folders.Create(ctx, subFolder); err != nil {
		t.Fatalf("create subfolder failed: %v", err)
	}
	rootFile = &File{CourseID: course.ID, FolderID: &rootFolder.ID, Name: "syllabus.pdf", OriginalName: "syllabus_v2.pdf", Content: "course outline"}
	if err := s.files.Create(ctx, rootFile); err != nil {
		t.Fatalf("create file failed: %v", err)
	}
	nestedFile = &File{CourseID: course.ID, FolderID: &subFolder.ID, Name: "cells.pdf", OriginalName: "cells.pdf", Content: "cell structure"}
	if err := s.files.Create(ctx, nestedFile); err != nil {
		t.Fatalf("create nested file failed: %v", err)
	}
	looseFile = &File{CourseID: course.ID, Name: "notes.md", OriginalName: "notes.md", Content: "loose notes"}
	if err := s.files.Create(ctx, looseFile); err != nil {
		t.Fatalf("create loose file failed: %v", err)
	}
	return
}

func TestFileRepoOwnershipAndPath(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()
	course, _, _, _, nestedFile, _ := seedCourseTree(t, s)
	_ = course

	if _, err := s.files.Get(ctx, nestedFile.ID, "user-2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign user, got %v", err)
	}

	got, err := s.files.Get(ctx, nestedFile.ID, "user-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Content != "cell structure" {
		t.Errorf("unexpected content: %q", got.Content)
	}

	// GetForContext skips the ownership check.
	if _, err := s.files.GetForContext(ctx, nestedFile.ID); err != nil {
		t.Errorf("GetForContext failed: %v", err)
	}

	path, err := s.files.Path(ctx, nestedFile.ID, "user-1")
	if err != nil {
		t.Fatalf("path failed: %v", err)
	}
	want := "Biology/Week 1/Lectures/cells.pdf"
	if path != want {
		t.Errorf("expected path %q, got %q", want, path)
	}
}

func TestFolderListFilesRecursive(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()
	_, rootFolder, _, rootFile, nestedFile, _ := seedCourseTree(t, s)

	files, err := s.folders.ListFilesRecursive(ctx, rootFolder.ID, "user-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}
	found := map[string]bool{}
	for _, f := range files {
		found[f.ID] = true
	}
	if !found[rootFile.ID] || !found[nestedFile.ID] {
		t.Errorf("missing expected files, got %v", found)
	}

	if _, err := s.folders.ListFilesRecursive(ctx, rootFolder.ID, "user-2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign user, got %v", err)
	}
}

func TestCourseListAllFiles(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()
	course, _, _, _, _, _ := seedCourseTree(t, s)

	files, err := s.courses.ListAllFiles(ctx, course.ID, "user-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 files, got %d", len(files))
	}

	if _, err := s.courses.ListAllFiles(ctx, course.ID, "user-2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign user, got %v", err)
	}
}

func TestDeckRepo(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()
	course, _, _, rootFile, _, _ := seedCourseTree(t, s)

	deck := &Deck{CourseID: course.ID, Name: "Cell biology", FileIDs: []string{rootFile.ID}}
	if err := s.decks.Create(ctx, deck); err != nil {
		t.Fatalf("create deck failed: %v", err)
	}
	for _, fb := range [][2]string{{"What is a cell?", "The basic unit of life"}, {"What is ATP?", "Energy currency"}} {
		if err := s.decks.CreateCard(ctx, &Flashcard{DeckID: deck.ID, Front: fb[0], Back: fb[1]}); err != nil {
			t.Fatalf("create card failed: %v", err)
		}
	}

	got, err := s.decks.GetWithCards(ctx, deck.ID, "user-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(got.Cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(got.Cards))
	}
	if got.Cards[0].Front != "What is a cell?" {
		t.Errorf("unexpected first card: %+v", got.Cards[0])
	}
	if len(got.FileIDs) != 1 || got.FileIDs[0] != rootFile.ID {
		t.Errorf("unexpected file ids: %v", got.FileIDs)
	}

	if _, err := s.decks.GetWithCards(ctx, deck.ID, "user-2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign user, got %v", err)
	}

	path, err := s.decks.Path(ctx, deck.ID, "user-1")
	if err != nil {
		t.Fatalf("path failed: %v", err)
	}
	if path != "Biology/Cell biology" {
		t.Errorf("unexpected path %q", path)
	}
}

func TestQuizRepo(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()
	course, _, _, _, _, _ := seedCourseTree(t, s)

	quiz := &Quiz{CourseID: course.ID, Title: "Cell quiz"}
	if err := s.quizzes.Create(ctx, quiz); err != nil {
		t.Fatalf("create quiz failed: %v", err)
	}
	if err := s.quizzes.CreateQuestion(ctx, &QuizQuestion{QuizID: quiz.ID, Question: "Name the cell's powerhouse", CorrectAnswer: "Mitochondria"}); err != nil {
		t.Fatalf("create question failed: %v", err)
	}

	got, err := s.quizzes.GetWithQuestions(ctx, quiz.ID, "user-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(got.Questions) != 1 || got.Questions[0].CorrectAnswer != "Mitochondria" {
		t.Errorf("unexpected questions: %+v", got.Questions)
	}

	path, err := s.quizzes.Path(ctx, quiz.ID, "user-1")
	if err != nil {
		t.Fatalf("path failed: %v", err)
	}
	if path != "Biology/Cell quiz" {
		t.Errorf("unexpected path %q", path)
	}

	if _, err := s.quizzes.Path(ctx, quiz.ID, "user-2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign user, got %v", err)
	}
}
