package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SessionStore defines the persistence contract for chat sessions.
type SessionStore interface {
	Create(ctx context.Context, session *ChatSession) error
	Get(ctx context.Context, id, userID string) (*ChatSession, error)
	ListByUser(ctx context.Context, userID string) ([]ChatSession, error)
	Save(ctx context.Context, session *ChatSession) error
	Delete(ctx context.Context, id, userID string) error
}

// SessionRepo is a SQLite-backed SessionStore.
type SessionRepo struct {
	db *sql.DB
}

func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

func (r *SessionRepo) Create(ctx context.Context, session *ChatSession) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	ids, err := encodeIDs(session.ContextFileIDs)
	if err != nil {
		return fmt.Errorf("failed to encode context file ids: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (id, user_id, name, name_ai_generated, context_file_ids, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.UserID, session.Name, session.NameAIGenerated, ids,
		encodeTime(session.CreatedAt), encodeTime(session.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to create chat session: %w", err)
	}
	return nil
}

func (r *SessionRepo) Get(ctx context.Context, id, userID string) (*ChatSession, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, name_ai_generated, context_file_ids, created_at, updated_at
		 FROM chat_sessions WHERE id = ? AND user_id = ?`, id, userID)
	return scanSession(row)
}

func (r *SessionRepo) ListByUser(ctx context.Context, userID string) ([]ChatSession, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, name_ai_generated, context_file_ids, created_at, updated_at
		 FROM chat_sessions WHERE user_id = ? ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat sessions: %w", err)
	}
	defer rows.Close()

	var sessions []ChatSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// Save updates the mutable fields of an existing session and bumps updated_at.
func (r *SessionRepo) Save(ctx context.Context, session *ChatSession) error {
	ids, err := encodeIDs(session.ContextFileIDs)
	if err != nil {
		return fmt.Errorf("failed to encode context file ids: %w", err)
	}
	session.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx,
		`UPDATE chat_sessions SET name = ?, name_ai_generated = ?, context_file_ids = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		session.Name, session.NameAIGenerated, ids, encodeTime(session.UpdatedAt),
		session.ID, session.UserID)
	if err != nil {
		return fmt.Errorf("failed to update chat session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a session; its messages cascade via the foreign key.
func (r *SessionRepo) Delete(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM chat_sessions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete chat session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*ChatSession, error) {
	var s ChatSession
	var ids, createdAt, updatedAt string
	err := row.Scan(&s.ID, &s.UserID, &s.Name, &s.NameAIGenerated, &ids, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan chat session: %w", err)
	}
	s.ContextFileIDs, err = decodeIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to decode context file ids: %w", err)
	}
	s.CreatedAt = decodeTime(createdAt)
	s.UpdatedAt = decodeTime(updatedAt)
	return &s, nil
}
