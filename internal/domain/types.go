package domain

import "time"

// SessionPhase is the user-facing status of a practice session.
type SessionPhase string

const (
	PhaseIdle            SessionPhase = "idle"
	PhaseLanguagePending SessionPhase = "language_pending"
	PhaseReady           SessionPhase = "ready"
	PhaseRecording       SessionPhase = "recording"
	PhaseStopping        SessionPhase = "stopping"
	PhaseAnalyzing       SessionPhase = "analyzing"
	PhaseFeedback        SessionPhase = "feedback"
)

// ComparisonResult is the scored outcome of one practice attempt.
// It is immutable once produced.
type ComparisonResult struct {
	Overall       int      `json:"overall_score"`
	Pronunciation int      `json:"pronunciation_score"`
	Clarity       int      `json:"clarity_score"`
	Fluency       int      `json:"fluency_score"`
	Feedback      []string `json:"feedback_messages"`
	Suggestions   []string `json:"suggestions"`
	// Fallback marks results synthesized locally because the remote
	// engine or reference audio was unavailable.
	Fallback bool `json:"fallback"`
}

// SessionSnapshot is a consistent read of the session state, published to
// the presentation layer on every change.
type SessionSnapshot struct {
	Phase             SessionPhase      `json:"phase"`
	AttemptID         string            `json:"attempt_id,omitempty"`
	WordID            string            `json:"word_id,omitempty"`
	Word              string            `json:"word,omitempty"`
	Language          PracticeLanguage  `json:"language,omitempty"`
	Recording         bool              `json:"recording"`
	HasRecording      bool              `json:"has_recording"`
	Playing           bool              `json:"playing"`
	Elapsed           time.Duration     `json:"elapsed"`
	Analyzing         bool              `json:"analyzing"`
	PickerVisible     bool              `json:"picker_visible"`
	Result            *ComparisonResult `json:"result,omitempty"`
	LastError         string            `json:"last_error,omitempty"`
	ReferenceAudioURL string            `json:"reference_audio_url,omitempty"`
}
