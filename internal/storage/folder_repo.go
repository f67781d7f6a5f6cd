package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FolderStore defines the persistence contract for folders.
type FolderStore interface {
	Create(ctx context.Context, folder *Folder) error
	// Get returns the folder only if its course is owned by userID.
	Get(ctx context.Context, id, userID string) (*Folder, error)
	// ListFilesRecursive returns every file under the folder, including files
	// in nested subfolders at any depth.
	ListFilesRecursive(ctx context.Context, folderID, userID string) ([]File, error)
}

// FolderRepo is a SQLite-backed FolderStore.
type FolderRepo struct {
	db *sql.DB
}

func NewFolderRepo(db *sql.DB) *FolderRepo {
	return &FolderRepo{db: db}
}

func (r *FolderRepo) Create(ctx context.Context, folder *Folder) error {
	if folder.ID == "" {
		folder.ID = uuid.New().String()
	}
	folder.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO folders (id, course_id, parent_id, name, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		folder.ID, folder.CourseID, folder.ParentID, folder.Name,
		encodeTime(folder.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to create folder: %w", err)
	}
	return nil
}

func (r *FolderRepo) Get(ctx context.Context, id, userID string) (*Folder, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT f.id, f.course_id, f.parent_id, f.name, f.created_at
		 FROM folders f JOIN courses c ON f.course_id = c.id
		 WHERE f.id = ? AND c.user_id = ?`, id, userID)

	var folder Folder
	var parentID sql.NullString
	var createdAt string
	err := row.Scan(&folder.ID, &folder.CourseID, &parentID, &folder.Name, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan folder: %w", err)
	}
	if parentID.Valid {
		id := parentID.String
		folder.ParentID = &id
	}
	folder.CreatedAt = decodeTime(createdAt)
	return &folder, nil
}

func (r *FolderRepo) ListFilesRecursive(ctx context.Context, folderID, userID string) ([]File, error) {
	if _, err := r.Get(ctx, folderID, userID); err != nil {
		return nil, err
	}

	var files []File
	queue := []string{folderID}
	seen := map[string]bool{folderID: true}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		rows, err := r.db.QueryContext(ctx,
			`SELECT `+fileColumns+` FROM files WHERE folder_id = ? ORDER BY created_at ASC`, current)
		if err != nil {
			return nil, fmt.Errorf("failed to list folder files: %w", err)
		}
		for rows.Next() {
			f, err := scanFile(rows)
			if err != nil {
				rows.Close()
				return nil, err
			}
			files = append(files, *f)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()

		children, err := r.db.QueryContext(ctx,
			`SELECT id FROM folders WHERE parent_id = ?`, current)
		if err != nil {
			return nil, fmt.Errorf("failed to list subfolders: %w", err)
		}
		for children.Next() {
			var id string
			if err := children.Scan(&id); err != nil {
				children.Close()
				return nil, err
			}
			if !seen[id] {
				seen[id] = true
				queue = append(queue, id)
			}
		}
		if err := children.Err(); err != nil {
			children.Close()
			return nil, err
		}
		children.Close()
	}

	return files, nil
}
