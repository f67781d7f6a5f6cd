package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// QuizStore defines the persistence contract for quizzes.
type QuizStore interface {
	Create(ctx context.Context, quiz *Quiz) error
	CreateQuestion(ctx context.Context, question *QuizQuestion) error
	// GetWithQuestions returns the quiz and its questions only if the quiz's
	// course is owned by userID.
	GetWithQuestions(ctx context.Context, id, userID string) (*QuizWithQuestions, error)
	// Path returns the display location "Course/Title".
	Path(ctx context.Context, id, userID string) (string, error)
}

// QuizRepo is a SQLite-backed QuizStore.
type QuizRepo struct {
	db *sql.DB
}

func NewQuizRepo(db *sql.DB) *QuizRepo {
	return &QuizRepo{db: db}
}

func (r *QuizRepo) Create(ctx context.Context, quiz *Quiz) error {
	if quiz.ID == "" {
		quiz.ID = uuid.New().String()
	}
	quiz.CreatedAt = time.Now().UTC()

	ids, err := encodeIDs(quiz.FileIDs)
	if err != nil {
		return fmt.Errorf("failed to encode quiz file ids: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO quizzes (id, course_id, title, file_ids, created_at) VALUES (?, ?, ?, ?, ?)`,
		quiz.ID, quiz.CourseID, quiz.Title, ids, encodeTime(quiz.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to create quiz: %w", err)
	}
	return nil
}

func (r *QuizRepo) CreateQuestion(ctx context.Context, question *QuizQuestion) error {
	if question.ID == "" {
		question.ID = uuid.New().String()
	}
	question.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO quiz_questions (id, quiz_id, question, correct_answer, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		question.ID, question.QuizID, question.Question, question.CorrectAnswer,
		encodeTime(question.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to create quiz question: %w", err)
	}
	return nil
}

func (r *QuizRepo) GetWithQuestions(ctx context.Context, id, userID string) (*QuizWithQuestions, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT q.id, q.course_id, q.title, q.file_ids, q.created_at
		 FROM quizzes q JOIN courses c ON q.course_id = c.id
		 WHERE q.id = ? AND c.user_id = ?`, id, userID)

	var quiz QuizWithQuestions
	var ids, createdAt string
	err := row.Scan(&quiz.ID, &quiz.CourseID, &quiz.Title, &ids, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan quiz: %w", err)
	}
	quiz.FileIDs, err = decodeIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to decode quiz file ids: %w", err)
	}
	quiz.CreatedAt = decodeTime(createdAt)

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, quiz_id, question, correct_answer, created_at
		 FROM quiz_questions WHERE quiz_id = ? ORDER BY created_at ASC, rowid ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list quiz questions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var q QuizQuestion
		var qCreatedAt string
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Question, &q.CorrectAnswer, &qCreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan quiz question: %w", err)
		}
		q.CreatedAt = decodeTime(qCreatedAt)
		quiz.Questions = append(quiz.Questions, q)
	}
	return &quiz, rows.Err()
}

func (r *QuizRepo) Path(ctx context.Context, id, userID string) (string, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT c.name, q.title
		 FROM quizzes q JOIN courses c ON q.course_id = c.id
		 WHERE q.id = ? AND c.user_id = ?`, id, userID)

	var courseName, title string
	err := row.Scan(&courseName, &title)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve quiz path: %w", err)
	}
	return courseName + "/" + title, nil
}
