package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CourseStore defines the persistence contract for courses.
type CourseStore interface {
	Create(ctx context.Context, course *Course) error
	Get(ctx context.Context, id, userID string) (*Course, error)
	// ListAllFiles returns every file in the course, regardless of folder.
	ListAllFiles(ctx context.Context, courseID, userID string) ([]File, error)
}

// CourseRepo is a SQLite-backed CourseStore.
type CourseRepo struct {
	db *sql.DB
}

func NewCourseRepo(db *sql.DB) *CourseRepo {
	return &CourseRepo{db: db}
}

func (r *CourseRepo) Create(ctx context.Context, course *Course) error {
	if course.ID == "" {
		course.ID = uuid.New().String()
	}
	course.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO courses (id, user_id, name, created_at) VALUES (?, ?, ?, ?)`,
		course.ID, course.UserID, course.Name, encodeTime(course.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}
	return nil
}

func (r *CourseRepo) Get(ctx context.Context, id, userID string) (*Course, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, created_at FROM courses WHERE id = ? AND user_id = ?`,
		id, userID)

	var c Course
	var createdAt string
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan course: %w", err)
	}
	c.CreatedAt = decodeTime(createdAt)
	return &c, nil
}

func (r *CourseRepo) ListAllFiles(ctx context.Context, courseID, userID string) ([]File, error) {
	if _, err := r.Get(ctx, courseID, userID); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE course_id = ? ORDER BY created_at ASC`, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list course files: %w", err)
	}
	defer rows.Close()

	var files []File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, *f)
	}
	return files, rows.Err()
}
