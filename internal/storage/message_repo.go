package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageStore defines the persistence contract for chat messages.
type MessageStore interface {
	Create(ctx context.Context, message *ChatMessage) error
	Get(ctx context.Context, id string) (*ChatMessage, error)
	ListBySession(ctx context.Context, sessionID string) ([]ChatMessage, error)
}

// MessageRepo is a SQLite-backed MessageStore.
type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

func (r *MessageRepo) Create(ctx context.Context, message *ChatMessage) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	message.CreatedAt = time.Now().UTC()

	var citations sql.NullString
	if len(message.Citations) > 0 {
		b, err := json.Marshal(message.Citations)
		if err != nil {
			return fmt.Errorf("failed to encode citations: %w", err)
		}
		citations = sql.NullString{String: string(b), Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO chat_messages (id, session_id, role, content, citations, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		message.ID, message.SessionID, string(message.Role), message.Content,
		citations, encodeTime(message.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to create chat message: %w", err)
	}
	return nil
}

func (r *MessageRepo) Get(ctx context.Context, id string) (*ChatMessage, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, session_id, role, content, citations, created_at
		 FROM chat_messages WHERE id = ?`, id)
	return scanMessage(row)
}

// ListBySession returns a session's messages in creation order.
func (r *MessageRepo) ListBySession(ctx context.Context, sessionID string) ([]ChatMessage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, citations, created_at
		 FROM chat_messages WHERE session_id = ? ORDER BY created_at ASC, rowid ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	defer rows.Close()

	var messages []ChatMessage
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *m)
	}
	return messages, rows.Err()
}

func scanMessage(row rowScanner) (*ChatMessage, error) {
	var m ChatMessage
	var role, createdAt string
	var citations sql.NullString
	err := row.Scan(&m.ID, &m.SessionID, &role, &m.Content, &citations, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan chat message: %w", err)
	}
	m.Role = MessageRole(role)
	if citations.Valid && citations.String != "" {
		if err := json.Unmarshal([]byte(citations.String), &m.Citations); err != nil {
			return nil, fmt.Errorf("failed to decode citations: %w", err)
		}
	}
	m.CreatedAt = decodeTime(createdAt)
	return &m, nil
}
