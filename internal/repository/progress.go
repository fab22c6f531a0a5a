package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lexoria/practice_service/internal/client"
)

// RecordingRecord correlates an uploaded recording with its owner and word.
type RecordingRecord struct {
	OwnerID   uuid.UUID `json:"owner_id"`
	WordID    uuid.UUID `json:"word_id"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// ProgressRepository persists recording addresses against the user/word
// pair after a successful upload.
type ProgressRepository interface {
	SaveRecording(ctx context.Context, ownerID, wordID uuid.UUID, address string) error
}

// PostgresProgressRepository implements ProgressRepository with PostgreSQL.
type PostgresProgressRepository struct {
	db *client.PostgresClient
}

// NewPostgresProgressRepository creates a new PostgresProgressRepository.
func NewPostgresProgressRepository(db *client.PostgresClient) *PostgresProgressRepository {
	return &PostgresProgressRepository{db: db}
}

// SaveRecording upserts the recording address for (owner, word). A repeat
// attempt on the same word replaces the previous address.
func (r *PostgresProgressRepository) SaveRecording(ctx context.Context, ownerID, wordID uuid.UUID, address string) error {
	if r.db == nil || r.db.Pool == nil {
		return fmt.Errorf("database not configured")
	}

	query := `
		INSERT INTO practice_recordings (owner_id, word_id, address)
		VALUES ($1, $2, $3)
		ON CONFLICT (owner_id, word_id)
		DO UPDATE SET address = EXCLUDED.address, created_at = NOW()
	`

	if _, err := r.db.Pool.Exec(ctx, query, ownerID, wordID, address); err != nil {
		return fmt.Errorf("failed to save recording record: %w", err)
	}

	return nil
}

// InMemoryProgressRepository is a map-backed implementation for
// development and tests.
type InMemoryProgressRepository struct {
	mu      sync.RWMutex
	records map[string]RecordingRecord
}

// NewInMemoryProgressRepository creates an empty in-memory store.
func NewInMemoryProgressRepository() *InMemoryProgressRepository {
	return &InMemoryProgressRepository{records: make(map[string]RecordingRecord)}
}

// SaveRecording upserts the recording address for (owner, word).
func (r *InMemoryProgressRepository) SaveRecording(ctx context.Context, ownerID, wordID uuid.UUID, address string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := ownerID.String() + "/" + wordID.String()
	r.records[key] = RecordingRecord{
		OwnerID:   ownerID,
		WordID:    wordID,
		Address:   address,
		CreatedAt: time.Now(),
	}
	return nil
}

// Get returns the stored record for (owner, word), if any.
func (r *InMemoryProgressRepository) Get(ownerID, wordID uuid.UUID) (RecordingRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[ownerID.String()+"/"+wordID.String()]
	return rec, ok
}
