package service

import (
	"context"
	"time"

	"github.com/lexoria/practice_service/internal/audio"
	"github.com/lexoria/practice_service/internal/domain"
)

// CaptureDevice records microphone audio. It holds the physical input
// device exclusively between Start and StopAndSave/Cancel.
type CaptureDevice interface {
	Start() error
	IsActive() bool
	Elapsed() time.Duration
	StopAndSave(dest string) (*audio.Artifact, error)
	// Cancel stops an active capture and discards the buffered audio.
	Cancel() error
}

// Trimmer removes leading/trailing silence from a recorded waveform.
type Trimmer interface {
	Trim(src, dst string) (*audio.Artifact, error)
}

// Comparator scores a user recording against a reference pronunciation.
type Comparator interface {
	Compare(ctx context.Context, word, languageCode string, audio []byte, referenceURL string) (*domain.ComparisonResult, error)
}

// ReferenceSynthesizer generates a model pronunciation and returns its
// address.
type ReferenceSynthesizer interface {
	Synthesize(ctx context.Context, word, languageCode, wordID string) (string, error)
}

// ObjectStore persists audio bytes to durable storage.
type ObjectStore interface {
	Upload(ctx context.Context, objectName string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, objectName string) error
}

// ResultQueue is the upload worker's detached result channel. BLPop blocks
// until a value arrives or the timeout expires.
type ResultQueue interface {
	RPush(ctx context.Context, key string, value interface{}) error
	SetExpiry(ctx context.Context, key string, ttl time.Duration) error
	BLPop(ctx context.Context, timeout time.Duration, key string) ([]byte, error)
}

// EventPublisher emits practice progress events for downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, data interface{}) error
}

// Notifier receives every session state change for the presentation layer.
type Notifier interface {
	SessionChanged(snapshot domain.SessionSnapshot)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(domain.SessionSnapshot)

// SessionChanged implements Notifier.
func (f NotifierFunc) SessionChanged(s domain.SessionSnapshot) {
	f(s)
}
