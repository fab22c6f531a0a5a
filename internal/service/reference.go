package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lexoria/practice_service/internal/client"
	"github.com/lexoria/practice_service/internal/errors"
	"github.com/lexoria/practice_service/internal/repository"
)

// ReferenceService obtains a model pronunciation for a word, reusing the
// address cached on the word record when one exists.
type ReferenceService struct {
	synth ReferenceSynthesizer
	words repository.WordRepository
	log   zerolog.Logger
}

// NewReferenceService creates a new reference audio provider.
func NewReferenceService(synth ReferenceSynthesizer, words repository.WordRepository, log zerolog.Logger) *ReferenceService {
	return &ReferenceService{
		synth: synth,
		words: words,
		log:   log,
	}
}

// Ensure returns the reference-audio address for the word, synthesizing
// one remotely if the word doesn't carry one yet. On synthesis failure the
// cached field is left unset so the next attempt retries. Duplicate calls
// may race; the last writer wins.
func (s *ReferenceService) Ensure(ctx context.Context, word *repository.PracticeWord, languageCode string) (string, error) {
	if word.ReferenceAudioURL != "" {
		return word.ReferenceAudioURL, nil
	}

	if s.synth == nil {
		return "", errors.New(errors.ErrReferenceUnavailable, "no synthesis backend configured")
	}

	url, err := s.synth.Synthesize(ctx, word.Text, languageCode, word.ID.String())
	if err != nil {
		s.log.Warn().Err(err).
			Str("word_id", word.ID.String()).
			Str("language", languageCode).
			Msg("reference synthesis failed")
		return "", errors.Wrap(errors.ErrReferenceUnavailable, "failed to synthesize reference audio", err)
	}

	if err := s.words.UpdateReferenceAudio(ctx, word.ID, url); err != nil {
		// The address is still usable for this attempt; only the cache
		// write failed.
		s.log.Error().Err(err).
			Str("word_id", word.ID.String()).
			Msg("failed to cache reference audio address")
	}

	s.log.Info().
		Str("word_id", word.ID.String()).
		Str("url", url).
		Msg("reference audio synthesized")

	return url, nil
}

// TTSSynthesizer implements ReferenceSynthesizer on top of OpenAI TTS and
// an object store, for deployments without a dedicated synthesis endpoint.
type TTSSynthesizer struct {
	openai *client.OpenAIClient
	store  ObjectStore
}

// NewTTSSynthesizer creates a TTS-backed reference synthesizer.
func NewTTSSynthesizer(openai *client.OpenAIClient, store ObjectStore) *TTSSynthesizer {
	return &TTSSynthesizer{openai: openai, store: store}
}

// Synthesize generates spoken audio for the word and stores it, returning
// the stored object's address.
func (s *TTSSynthesizer) Synthesize(ctx context.Context, word, languageCode, wordID string) (string, error) {
	audio, err := s.openai.Speech(ctx, word)
	if err != nil {
		return "", err
	}

	objectName := fmt.Sprintf("reference/%s/%s.mp3", languageCode, wordID)
	url, err := s.store.Upload(ctx, objectName, audio, "audio/mpeg")
	if err != nil {
		return "", fmt.Errorf("failed to store reference audio: %w", err)
	}

	return url, nil
}
