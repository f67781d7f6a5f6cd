package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DeckStore defines the persistence contract for flashcard decks.
type DeckStore interface {
	Create(ctx context.Context, deck *Deck) error
	CreateCard(ctx context.Context, card *Flashcard) error
	// GetWithCards returns the deck and its cards only if the deck's course is
	// owned by userID.
	GetWithCards(ctx context.Context, id, userID string) (*DeckWithCards, error)
	// Path returns the display location "Course/Deck".
	Path(ctx context.Context, id, userID string) (string, error)
}

// DeckRepo is a SQLite-backed DeckStore.
type DeckRepo struct {
	db *sql.DB
}

func NewDeckRepo(db *sql.DB) *DeckRepo {
	return &DeckRepo{db: db}
}

func (r *DeckRepo) Create(ctx context.Context, deck *Deck) error {
	if deck.ID == "" {
		deck.ID = uuid.New().String()
	}
	deck.CreatedAt = time.Now().UTC()

	ids, err := encodeIDs(deck.FileIDs)
	if err != nil {
		return fmt.Errorf("failed to encode deck file ids: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO decks (id, course_id, name, file_ids, created_at) VALUES (?, ?, ?, ?, ?)`,
		deck.ID, deck.CourseID, deck.Name, ids, encodeTime(deck.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to create deck: %w", err)
	}
	return nil
}

func (r *DeckRepo) CreateCard(ctx context.Context, card *Flashcard) error {
	if card.ID == "" {
		card.ID = uuid.New().String()
	}
	card.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO flashcards (id, deck_id, front, back, created_at) VALUES (?, ?, ?, ?, ?)`,
		card.ID, card.DeckID, card.Front, card.Back, encodeTime(card.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to create flashcard: %w", err)
	}
	return nil
}

func (r *DeckRepo) GetWithCards(ctx context.Context, id, userID string) (*DeckWithCards, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT d.id, d.course_id, d.name, d.file_ids, d.created_at
		 FROM decks d JOIN courses c ON d.course_id = c.id
		 WHERE d.id = ? AND c.user_id = ?`, id, userID)

	var deck DeckWithCards
	var ids, createdAt string
	err := row.Scan(&deck.ID, &deck.CourseID, &deck.Name, &ids, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan deck: %w", err)
	}
	deck.FileIDs, err = decodeIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to decode deck file ids: %w", err)
	}
	deck.CreatedAt = decodeTime(createdAt)

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, deck_id, front, back, created_at
		 FROM flashcards WHERE deck_id = ? ORDER BY created_at ASC, rowid ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list flashcards: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var card Flashcard
		var cardCreatedAt string
		if err := rows.Scan(&card.ID, &card.DeckID, &card.Front, &card.Back, &cardCreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan flashcard: %w", err)
		}
		card.CreatedAt = decodeTime(cardCreatedAt)
		deck.Cards = append(deck.Cards, card)
	}
	return &deck, rows.Err()
}

func (r *DeckRepo) Path(ctx context.Context, id, userID string) (string, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT c.name, d.name
		 FROM decks d JOIN courses c ON d.course_id = c.id
		 WHERE d.id = ? AND c.user_id = ?`, id, userID)

	var courseName, deckName string
	err := row.Scan(&courseName, &deckName)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve deck path: %w", err)
	}
	return courseName + "/" + deckName, nil
}
