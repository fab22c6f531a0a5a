package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lexoria/practice_service/internal/domain"
	"github.com/lexoria/practice_service/internal/errors"
)

// ScoringClient wraps the remote pronunciation scoring engine's REST API.
type ScoringClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewScoringClient creates a new scoring engine client.
func NewScoringClient(baseURL, apiKey string, timeout time.Duration) *ScoringClient {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &ScoringClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type compareRequest struct {
	Word              string `json:"word"`
	LanguageCode      string `json:"languageCode"`
	UserAudioBytes    []byte `json:"userAudioBytes"`
	ReferenceAudioURL string `json:"referenceAudioUrl,omitempty"`
}

type compareResponse struct {
	OverallScore       int      `json:"overallScore"`
	PronunciationScore int      `json:"pronunciationScore"`
	ClarityScore       int      `json:"clarityScore"`
	FluencyScore       int      `json:"fluencyScore"`
	FeedbackMessages   []string `json:"feedbackMessages"`
	Suggestions        []string `json:"suggestions"`
}

// Compare sends the user's audio and the reference pronunciation to the
// scoring engine. The returned overall score is whatever the engine
// reported; it is never recomputed locally.
func (c *ScoringClient) Compare(ctx context.Context, word, languageCode string, audio []byte, referenceURL string) (*domain.ComparisonResult, error) {
	if c.baseURL == "" {
		return nil, errors.New(errors.ErrComparisonUnavailable, "scoring engine not configured")
	}
	if len(audio) == 0 {
		return nil, errors.New(errors.ErrInvalidInput, "user audio is empty")
	}

	payload, err := json.Marshal(compareRequest{
		Word:              word,
		LanguageCode:      languageCode,
		UserAudioBytes:    audio,
		ReferenceAudioURL: referenceURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal compare request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/compare", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrComparisonUnavailable, "scoring request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, errors.Wrap(errors.ErrComparisonUnavailable,
			"scoring engine returned an error",
			fmt.Errorf("status %d: %s", resp.StatusCode, string(body)))
	}

	var result compareResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(errors.ErrComparisonUnavailable, "failed to decode scoring response", err)
	}

	return &domain.ComparisonResult{
		Overall:       result.OverallScore,
		Pronunciation: result.PronunciationScore,
		Clarity:       result.ClarityScore,
		Fluency:       result.FluencyScore,
		Feedback:      result.FeedbackMessages,
		Suggestions:   result.Suggestions,
	}, nil
}
