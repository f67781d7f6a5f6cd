package storage

import (
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// New opens a SQLite database connection at the given path.
// It enables foreign keys and sets connection pool settings.
func New(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys (disabled by default in SQLite); message cascade
	// deletes depend on this.
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate runs database migrations to create the required tables.
// It is idempotent and can be run multiple times safely.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS courses (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS folders (
			id TEXT PRIMARY KEY,
			course_id TEXT NOT NULL,
			parent_id TEXT,
			name TEXT NOT NULL,
			created_at TEXT NOT NULL,
			FOREIGN KEY (course_id) REFERENCES courses(id) ON DELETE CASCADE,
			FOREIGN KEY (parent_id) REFERENCES folders(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS files (
			id TEXT PRIMARY KEY,
			course_id TEXT NOT NULL,
			folder_id TEXT,
			name TEXT NOT NULL,
			original_name TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL DEFAULT 'file',
			content TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			FOREIGN KEY (course_id) REFERENCES courses(id) ON DELETE CASCADE,
			FOREIGN KEY (folder_id) REFERENCES folders(id) ON DELETE SET NULL
		);`,
		`CREATE TABLE IF NOT EXISTS decks (
			id TEXT PRIMARY KEY,
			course_id TEXT NOT NULL,
			name TEXT NOT NULL,
			file_ids TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL,
			FOREIGN KEY (course_id) REFERENCES courses(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS flashcards (
			id TEXT PRIMARY KEY,
			deck_id TEXT NOT NULL,
			front TEXT NOT NULL,
			back TEXT NOT NULL,
			created_at TEXT NOT NULL,
			FOREIGN KEY (deck_id) REFERENCES decks(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS quizzes (
			id TEXT PRIMARY KEY,
			course_id TEXT NOT NULL,
			title TEXT NOT NULL,
			file_ids TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL,
			FOREIGN KEY (course_id) REFERENCES courses(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS quiz_questions (
			id TEXT PRIMARY KEY,
			quiz_id TEXT NOT NULL,
			question TEXT NOT NULL,
			correct_answer TEXT NOT NULL,
			created_at TEXT NOT NULL,
			FOREIGN KEY (quiz_id) REFERENCES quizzes(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS chat_sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			name_ai_generated INTEGER NOT NULL DEFAULT 0,
			context_file_ids TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			citations TEXT,
			created_at TEXT NOT NULL,
			FOREIGN KEY (session_id) REFERENCES chat_sessions(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chat_messages_session ON chat_messages(session_id);`,
		`CREATE INDEX IF NOT EXISTS idx_files_course ON files(course_id);`,
		`CREATE INDEX IF NOT EXISTS idx_folders_parent ON folders(parent_id);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
