package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lexoria/practice_service/internal/client"
	"github.com/lexoria/practice_service/internal/errors"
)

// PracticeWord is a catalog entry the pipeline practices against. The
// catalog owns these records; the pipeline reads them and may attach a
// reference-audio address.
type PracticeWord struct {
	ID                uuid.UUID `json:"id"`
	Text              string    `json:"text"`
	Definition        string    `json:"definition"`
	LanguageCode      string    `json:"language_code"`
	ReferenceAudioURL string    `json:"reference_audio_url"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// WordRepository defines the word catalog collaborator boundary.
type WordRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*PracticeWord, error)
	// UpdateReferenceAudio attaches a synthesized pronunciation address to
	// the word. Last writer wins.
	UpdateReferenceAudio(ctx context.Context, id uuid.UUID, url string) error
}

// PostgresWordRepository implements WordRepository with PostgreSQL.
type PostgresWordRepository struct {
	db *client.PostgresClient
}

// NewPostgresWordRepository creates a new PostgresWordRepository.
func NewPostgresWordRepository(db *client.PostgresClient) *PostgresWordRepository {
	return &PostgresWordRepository{db: db}
}

// GetByID retrieves a practice word by ID.
func (r *PostgresWordRepository) GetByID(ctx context.Context, id uuid.UUID) (*PracticeWord, error) {
	if r.db == nil || r.db.Pool == nil {
		return nil, fmt.Errorf("database not configured")
	}

	query := `
		SELECT id, text, definition, language_code, COALESCE(reference_audio_url, ''), created_at, updated_at
		FROM practice_words
		WHERE id = $1
	`

	var word PracticeWord
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&word.ID,
		&word.Text,
		&word.Definition,
		&word.LanguageCode,
		&word.ReferenceAudioURL,
		&word.CreatedAt,
		&word.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.NotFound("practice word")
		}
		return nil, fmt.Errorf("failed to get practice word: %w", err)
	}

	return &word, nil
}

// UpdateReferenceAudio stores the reference-audio address on the word.
func (r *PostgresWordRepository) UpdateReferenceAudio(ctx context.Context, id uuid.UUID, url string) error {
	if r.db == nil || r.db.Pool == nil {
		return fmt.Errorf("database not configured")
	}

	query := `
		UPDATE practice_words
		SET reference_audio_url = $2, updated_at = NOW()
		WHERE id = $1
	`

	if _, err := r.db.Pool.Exec(ctx, query, id, url); err != nil {
		return fmt.Errorf("failed to update reference audio: %w", err)
	}

	return nil
}

// InMemoryWordRepository is a map-backed catalog used in development and
// tests when no database is configured.
type InMemoryWordRepository struct {
	mu    sync.RWMutex
	words map[uuid.UUID]*PracticeWord
}

// NewInMemoryWordRepository creates an empty in-memory catalog.
func NewInMemoryWordRepository() *InMemoryWordRepository {
	return &InMemoryWordRepository{words: make(map[uuid.UUID]*PracticeWord)}
}

// Put adds or replaces a word in the catalog.
func (r *InMemoryWordRepository) Put(word *PracticeWord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.words[word.ID] = word
}

// GetByID retrieves a practice word by ID.
func (r *InMemoryWordRepository) GetByID(ctx context.Context, id uuid.UUID) (*PracticeWord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	word, ok := r.words[id]
	if !ok {
		return nil, errors.NotFound("practice word")
	}
	copy := *word
	return &copy, nil
}

// UpdateReferenceAudio stores the reference-audio address on the word.
func (r *InMemoryWordRepository) UpdateReferenceAudio(ctx context.Context, id uuid.UUID, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	word, ok := r.words[id]
	if !ok {
		return errors.NotFound("practice word")
	}
	word.ReferenceAudioURL = url
	word.UpdatedAt = time.Now()
	return nil
}
