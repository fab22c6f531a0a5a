package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lexoria/practice_service/internal/errors"
)

// SynthesisClient wraps the remote reference-audio generator's REST API.
type SynthesisClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewSynthesisClient creates a new reference synthesis client.
func NewSynthesisClient(baseURL, apiKey string, timeout time.Duration) *SynthesisClient {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &SynthesisClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type synthesizeRequest struct {
	Word         string `json:"word"`
	LanguageCode string `json:"languageCode"`
	WordID       string `json:"wordId,omitempty"`
}

type synthesizeResponse struct {
	ReferenceAudioURL string `json:"referenceAudioUrl"`
}

// Synthesize requests a model pronunciation for the given word and returns
// the address of the generated audio.
func (c *SynthesisClient) Synthesize(ctx context.Context, word, languageCode, wordID string) (string, error) {
	if c.baseURL == "" {
		return "", errors.New(errors.ErrReferenceUnavailable, "synthesis service not configured")
	}

	payload, err := json.Marshal(synthesizeRequest{
		Word:         word,
		LanguageCode: languageCode,
		WordID:       wordID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal synthesis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/synthesize", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.Wrap(errors.ErrReferenceUnavailable, "synthesis request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", errors.Wrap(errors.ErrReferenceUnavailable,
			"synthesis service returned an error",
			fmt.Errorf("status %d: %s", resp.StatusCode, string(body)))
	}

	var result synthesizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", errors.Wrap(errors.ErrReferenceUnavailable, "failed to decode synthesis response", err)
	}
	if result.ReferenceAudioURL == "" {
		return "", errors.New(errors.ErrReferenceUnavailable, "synthesis service returned no audio address")
	}

	return result.ReferenceAudioURL, nil
}
