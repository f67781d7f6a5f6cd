package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileStore defines the persistence contract for files.
type FileStore interface {
	Create(ctx context.Context, file *File) error
	// Get returns the file only if it belongs to a course owned by userID.
	Get(ctx context.Context, id, userID string) (*File, error)
	// GetForContext returns the file without an ownership check. It serves
	// lookups where the file was already reached through an owned container,
	// such as a deck or quiz file list.
	GetForContext(ctx context.Context, id string) (*File, error)
	// Path returns the display location "Course/Folder/.../Name".
	Path(ctx context.Context, id, userID string) (string, error)
}

// FileRepo is a SQLite-backed FileStore.
type FileRepo struct {
	db *sql.DB
}

func NewFileRepo(db *sql.DB) *FileRepo {
	return &FileRepo{db: db}
}

const fileColumns = `id, course_id, folder_id, name, original_name, type, content, created_at`

func (r *FileRepo) Create(ctx context.Context, file *File) error {
	if file.ID == "" {
		file.ID = uuid.New().String()
	}
	if file.Type == "" {
		file.Type = "file"
	}
	file.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO files (`+fileColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		file.ID, file.CourseID, file.FolderID, file.Name, file.OriginalName,
		file.Type, file.Content, encodeTime(file.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	return nil
}

func (r *FileRepo) Get(ctx context.Context, id, userID string) (*File, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT f.id, f.course_id, f.folder_id, f.name, f.original_name, f.type, f.content, f.created_at
		 FROM files f JOIN courses c ON f.course_id = c.id
		 WHERE f.id = ? AND c.user_id = ?`, id, userID)
	return scanFile(row)
}

func (r *FileRepo) GetForContext(ctx context.Context, id string) (*File, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE id = ?`, id)
	return scanFile(row)
}

func (r *FileRepo) Path(ctx context.Context, id, userID string) (string, error) {
	file, err := r.Get(ctx, id, userID)
	if err != nil {
		return "", err
	}

	var courseName string
	err = r.db.QueryRowContext(ctx,
		`SELECT name FROM courses WHERE id = ?`, file.CourseID).Scan(&courseName)
	if err != nil {
		return "", fmt.Errorf("failed to load course for path: %w", err)
	}

	segments := []string{file.Name}
	folderID := file.FolderID
	// Bounded walk up the folder chain; the bound guards against a cycle in
	// corrupted data.
	for i := 0; folderID != nil && i < 50; i++ {
		var name string
		var parent sql.NullString
		err = r.db.QueryRowContext(ctx,
			`SELECT name, parent_id FROM folders WHERE id = ?`, *folderID).Scan(&name, &parent)
		if err == sql.ErrNoRows {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to walk folder chain: %w", err)
		}
		segments = append([]string{name}, segments...)
		if parent.Valid {
			p := parent.String
			folderID = &p
		} else {
			folderID = nil
		}
	}

	return courseName + "/" + strings.Join(segments, "/"), nil
}

func scanFile(row rowScanner) (*File, error) {
	var f File
	var folderID sql.NullString
	var createdAt string
	err := row.Scan(&f.ID, &f.CourseID, &folderID, &f.Name, &f.OriginalName,
		&f.Type, &f.Content, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan file: %w", err)
	}
	if folderID.Valid {
		id := folderID.String
		f.FolderID = &id
	}
	f.CreatedAt = decodeTime(createdAt)
	return &f, nil
}
