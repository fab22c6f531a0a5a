package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lexoria/practice_service/internal/audio"
	"github.com/lexoria/practice_service/internal/domain"
	"github.com/lexoria/practice_service/internal/errors"
	"github.com/lexoria/practice_service/internal/repository"
)

const (
	elapsedTickInterval = 200 * time.Millisecond
	analyzeTimeout      = 60 * time.Second
)

// Uploader hands finished recordings to the background upload worker.
type Uploader interface {
	Enqueue(job UploadJob)
}

// PracticeEvent is published when a practice attempt completes.
type PracticeEvent struct {
	OwnerID   string                  `json:"owner_id"`
	WordID    string                  `json:"word_id"`
	Word      string                  `json:"word"`
	Language  domain.PracticeLanguage `json:"language"`
	Overall   int                     `json:"overall_score"`
	Fallback  bool                    `json:"fallback"`
	Completed time.Time               `json:"completed_at"`
}

// Orchestrator owns one practice session at a time: it drives the capture
// device, trims recordings, runs comparison and upload concurrently, and
// publishes every state change to the presentation layer. All transitions
// are strictly sequential; overlapping requests are rejected or ignored,
// never interleaved.
type Orchestrator struct {
	device     CaptureDevice
	trimmer    Trimmer
	comparator Comparator
	reference  *ReferenceService
	uploader   Uploader
	fallback   *FallbackScorer
	words      repository.WordRepository
	events     EventPublisher
	notifier   Notifier
	tempDir    string
	maxRec     time.Duration
	log        zerolog.Logger

	mu sync.Mutex
	st sessionState
}

// sessionState is the single mutable aggregate behind the session. It is
// only touched while holding the orchestrator mutex.
type sessionState struct {
	phase         domain.SessionPhase
	ownerID       uuid.UUID
	word          *repository.PracticeWord
	language      domain.PracticeLanguage
	attemptID     uuid.UUID
	artifact      *audio.Artifact
	refURL        string
	result        *domain.ComparisonResult
	playing       bool
	elapsed       time.Duration
	pickerVisible bool
	lastErr       string
}

// NewOrchestrator creates a session orchestrator. comparator, uploader,
// events, and notifier may be nil; the corresponding behavior degrades
// gracefully (fallback feedback, no upload, no events). maxRec caps the
// length of a single capture; zero means unlimited.
func NewOrchestrator(
	device CaptureDevice,
	trimmer Trimmer,
	comparator Comparator,
	reference *ReferenceService,
	uploader Uploader,
	fallback *FallbackScorer,
	words repository.WordRepository,
	events EventPublisher,
	notifier Notifier,
	tempDir string,
	maxRec time.Duration,
	log zerolog.Logger,
) *Orchestrator {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Orchestrator{
		device:     device,
		trimmer:    trimmer,
		comparator: comparator,
		reference:  reference,
		uploader:   uploader,
		fallback:   fallback,
		words:      words,
		events:     events,
		notifier:   notifier,
		tempDir:    tempDir,
		maxRec:     maxRec,
		log:        log,
		st:         sessionState{phase: domain.PhaseIdle},
	}
}

// Snapshot returns a consistent read of the current session state.
func (o *Orchestrator) Snapshot() domain.SessionSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// StartSession begins a practice session on the given word. The session
// enters language selection; all per-attempt state is reset.
func (o *Orchestrator) StartSession(ctx context.Context, ownerID, wordID uuid.UUID) (domain.SessionSnapshot, error) {
	word, err := o.words.GetByID(ctx, wordID)
	if err != nil {
		return o.Snapshot(), err
	}

	o.mu.Lock()
	if o.st.phase != domain.PhaseIdle {
		snap := o.snapshotLocked()
		o.mu.Unlock()
		return snap, errors.New(errors.ErrConflict, "a practice session is already in progress")
	}

	o.st = sessionState{
		phase:         domain.PhaseLanguagePending,
		ownerID:       ownerID,
		word:          word,
		attemptID:     uuid.New(),
		refURL:        word.ReferenceAudioURL,
		pickerVisible: true,
	}
	snap := o.snapshotLocked()
	o.mu.Unlock()

	o.log.Info().
		Str("word_id", wordID.String()).
		Str("word", word.Text).
		Msg("practice session started")

	o.notify(snap)
	return snap, nil
}

// SelectLanguage picks the practice language and readies the session for
// recording. Reference audio is ensured asynchronously; the transition
// never waits for it.
func (o *Orchestrator) SelectLanguage(ctx context.Context, lang domain.PracticeLanguage) (domain.SessionSnapshot, error) {
	if !lang.Valid() {
		return o.Snapshot(), errors.Validation(fmt.Sprintf("unsupported language %q", lang))
	}

	o.mu.Lock()
	if o.st.phase != domain.PhaseLanguagePending {
		snap := o.snapshotLocked()
		o.mu.Unlock()
		return snap, errors.Validation("no session waiting for language selection")
	}

	o.st.language = lang
	o.st.pickerVisible = false
	o.st.phase = domain.PhaseReady
	word := *o.st.word
	snap := o.snapshotLocked()
	o.mu.Unlock()

	if o.reference != nil {
		go o.ensureReference(word, lang)
	}

	o.notify(snap)
	return snap, nil
}

func (o *Orchestrator) ensureReference(word repository.PracticeWord, lang domain.PracticeLanguage) {
	ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
	defer cancel()

	url, err := o.reference.Ensure(ctx, &word, lang.Code())
	if err != nil {
		// Left unset; the next attempt retries and analysis falls back.
		return
	}

	o.mu.Lock()
	if o.st.word == nil || o.st.word.ID != word.ID {
		o.mu.Unlock()
		return
	}
	o.st.refURL = url
	o.st.word.ReferenceAudioURL = url
	snap := o.snapshotLocked()
	o.mu.Unlock()

	o.notify(snap)
}

// ToggleRecording starts capture when the session is ready and stops it
// when recording. Stopping runs trim synchronously, then analysis and
// upload concurrently. A toggle while stopping or analyzing is ignored.
func (o *Orchestrator) ToggleRecording(ctx context.Context) (domain.SessionSnapshot, error) {
	o.mu.Lock()

	switch o.st.phase {
	case domain.PhaseReady:
		return o.startRecordingLocked()
	case domain.PhaseRecording:
		return o.stopRecordingLocked()
	case domain.PhaseStopping, domain.PhaseAnalyzing:
		// A transition is already in flight; ignore rather than interleave.
		snap := o.snapshotLocked()
		o.mu.Unlock()
		return snap, nil
	default:
		snap := o.snapshotLocked()
		o.mu.Unlock()
		return snap, errors.Validation("no active practice session ready to record")
	}
}

// startRecordingLocked is called with the mutex held and releases it.
func (o *Orchestrator) startRecordingLocked() (domain.SessionSnapshot, error) {
	if err := o.device.Start(); err != nil {
		o.st.lastErr = "could not start recording"
		snap := o.snapshotLocked()
		o.mu.Unlock()
		o.log.Warn().Err(err).Msg("capture device failed to start")
		o.notify(snap)
		return snap, err
	}

	o.st.phase = domain.PhaseRecording
	o.st.elapsed = 0
	o.st.lastErr = ""
	attempt := o.st.attemptID
	snap := o.snapshotLocked()
	o.mu.Unlock()

	go o.trackElapsed(attempt)

	o.notify(snap)
	return snap, nil
}

// stopRecordingLocked is called with the mutex held and releases it.
func (o *Orchestrator) stopRecordingLocked() (domain.SessionSnapshot, error) {
	o.st.phase = domain.PhaseStopping
	stoppingSnap := o.snapshotLocked()

	attempt := o.st.attemptID
	rawPath := filepath.Join(o.tempDir, attempt.String()+".wav")

	artifact, err := o.device.StopAndSave(rawPath)
	if err != nil || artifact == nil {
		// Degenerate attempt: nothing captured. Analysis still runs so the
		// user flow never dead-ends; it will produce fallback feedback.
		o.st.lastErr = "no recording available"
		o.log.Warn().Err(err).Msg("failed to save recording")
	} else {
		o.st.artifact = artifact
		o.st.elapsed = artifact.Duration

		trimmedPath := filepath.Join(o.tempDir, attempt.String()+"_trimmed.wav")
		trimmed, terr := o.trimmer.Trim(rawPath, trimmedPath)
		if terr != nil || trimmed == nil {
			// Keep the untrimmed artifact and its duration.
			o.log.Warn().Err(terr).Msg("trim failed, keeping original recording")
		} else {
			superseded := o.st.artifact
			o.st.artifact = trimmed
			o.st.elapsed = trimmed.Duration
			if err := superseded.Remove(); err != nil {
				o.log.Warn().Err(err).Msg("failed to remove superseded recording")
			}
		}
	}

	o.st.phase = domain.PhaseAnalyzing

	word := *o.st.word
	lang := o.st.language
	refURL := o.st.refURL
	ownerID := o.st.ownerID
	artifactCopy := o.st.artifact
	analyzingSnap := o.snapshotLocked()
	o.mu.Unlock()

	// Stopping and Analyzing must reach the change stream before analysis
	// can publish Feedback.
	o.notify(stoppingSnap)
	o.notify(analyzingSnap)

	// Upload is causally after trim but runs detached from analysis. The
	// bytes are read now so cleanup can delete the file at any time.
	if o.uploader != nil && artifactCopy != nil {
		if data, rerr := os.ReadFile(artifactCopy.Path); rerr != nil {
			o.log.Warn().Err(rerr).Msg("failed to read recording for upload")
		} else {
			o.uploader.Enqueue(UploadJob{
				AttemptID: attempt.String(),
				OwnerID:   ownerID,
				WordID:    word.ID,
				Data:      data,
			})
		}
	}

	go o.analyze(attempt, word, lang, refURL, artifactCopy)

	return analyzingSnap, nil
}

// analyze runs comparison (or fallback) and commits the result unless the
// attempt was abandoned in the meantime.
func (o *Orchestrator) analyze(attempt uuid.UUID, word repository.PracticeWord, lang domain.PracticeLanguage, refURL string, artifact *audio.Artifact) {
	ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
	defer cancel()

	var result *domain.ComparisonResult

	if o.comparator != nil && artifact != nil && refURL != "" {
		data, err := os.ReadFile(artifact.Path)
		if err != nil {
			o.log.Error().Err(err).Msg("failed to read recording for comparison")
		} else {
			r, cerr := o.comparator.Compare(ctx, word.Text, lang.Code(), data, refURL)
			if cerr != nil {
				o.log.Warn().Err(cerr).Msg("comparison failed, falling back to local feedback")
			} else {
				result = r
			}
		}
	}

	if result == nil {
		result = o.fallback.Synthesize(word.Text, lang)
	}

	o.mu.Lock()
	if o.st.attemptID != attempt || o.st.phase != domain.PhaseAnalyzing {
		o.mu.Unlock()
		o.log.Debug().Str("attempt_id", attempt.String()).Msg("discarding late analysis result")
		return
	}
	o.st.result = result
	o.st.phase = domain.PhaseFeedback
	snap := o.snapshotLocked()
	o.mu.Unlock()

	o.log.Info().
		Str("attempt_id", attempt.String()).
		Int("overall", result.Overall).
		Bool("fallback", result.Fallback).
		Msg("practice attempt scored")

	o.notify(snap)
}

// TogglePlayback flips the playback flag for the current recording. The
// presentation layer does the actual audio output.
func (o *Orchestrator) TogglePlayback() (domain.SessionSnapshot, error) {
	o.mu.Lock()
	if o.st.artifact == nil {
		snap := o.snapshotLocked()
		o.mu.Unlock()
		return snap, errors.NoRecording()
	}

	o.st.playing = !o.st.playing
	snap := o.snapshotLocked()
	o.mu.Unlock()

	o.notify(snap)
	return snap, nil
}

// TryAgain discards the current attempt but keeps the word and language
// selected, looping back to ready.
func (o *Orchestrator) TryAgain() (domain.SessionSnapshot, error) {
	o.mu.Lock()
	if o.st.phase != domain.PhaseFeedback {
		snap := o.snapshotLocked()
		o.mu.Unlock()
		return snap, errors.Validation("no finished attempt to retry")
	}

	o.removeArtifactLocked()
	o.st.result = nil
	o.st.playing = false
	o.st.elapsed = 0
	o.st.lastErr = ""
	o.st.attemptID = uuid.New()
	o.st.phase = domain.PhaseReady
	snap := o.snapshotLocked()
	o.mu.Unlock()

	o.notify(snap)
	return snap, nil
}

// CompletePractice ends the session entirely: capture is cancelled if
// still active, transient artifacts are deleted, and the session returns
// to idle. Late callbacks from abandoned background work are discarded.
func (o *Orchestrator) CompletePractice(ctx context.Context) (domain.SessionSnapshot, error) {
	o.mu.Lock()

	if o.device.IsActive() {
		if err := o.device.Cancel(); err != nil {
			o.log.Warn().Err(err).Msg("failed to cancel active capture")
		}
	}

	if o.events != nil && o.st.result != nil {
		event := PracticeEvent{
			OwnerID:   o.st.ownerID.String(),
			WordID:    o.st.word.ID.String(),
			Word:      o.st.word.Text,
			Language:  o.st.language,
			Overall:   o.st.result.Overall,
			Fallback:  o.st.result.Fallback,
			Completed: time.Now(),
		}
		go o.publishEvent(event)
	}

	o.removeArtifactLocked()
	o.st = sessionState{phase: domain.PhaseIdle}
	snap := o.snapshotLocked()
	o.mu.Unlock()

	o.log.Info().Msg("practice session completed")

	o.notify(snap)
	return snap, nil
}

func (o *Orchestrator) publishEvent(event PracticeEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := o.events.Publish(ctx, event); err != nil {
		o.log.Error().Err(err).Msg("failed to publish practice event")
	}
}

// trackElapsed updates the elapsed recording duration while capture is
// active for the given attempt, and stops the capture once it reaches
// the configured limit.
func (o *Orchestrator) trackElapsed(attempt uuid.UUID) {
	ticker := time.NewTicker(elapsedTickInterval)
	defer ticker.Stop()

	for range ticker.C {
		o.mu.Lock()
		if o.st.attemptID != attempt || o.st.phase != domain.PhaseRecording {
			o.mu.Unlock()
			return
		}
		o.st.elapsed = o.device.Elapsed()
		if o.maxRec > 0 && o.st.elapsed >= o.maxRec {
			o.log.Info().Dur("limit", o.maxRec).Msg("recording limit reached, stopping capture")
			o.stopRecordingLocked()
			return
		}
		snap := o.snapshotLocked()
		o.mu.Unlock()

		o.notify(snap)
	}
}

func (o *Orchestrator) removeArtifactLocked() {
	if o.st.artifact == nil {
		return
	}
	if err := o.st.artifact.Remove(); err != nil {
		o.log.Warn().Err(err).Str("path", o.st.artifact.Path).Msg("failed to remove recording artifact")
	}
	o.st.artifact = nil
}

func (o *Orchestrator) snapshotLocked() domain.SessionSnapshot {
	snap := domain.SessionSnapshot{
		Phase:             o.st.phase,
		Language:          o.st.language,
		Recording:         o.st.phase == domain.PhaseRecording,
		HasRecording:      o.st.artifact != nil,
		Playing:           o.st.playing,
		Elapsed:           o.st.elapsed,
		Analyzing:         o.st.phase == domain.PhaseAnalyzing,
		PickerVisible:     o.st.pickerVisible,
		Result:            o.st.result,
		LastError:         o.st.lastErr,
		ReferenceAudioURL: o.st.refURL,
	}
	if o.st.attemptID != uuid.Nil {
		snap.AttemptID = o.st.attemptID.String()
	}
	if o.st.word != nil {
		snap.WordID = o.st.word.ID.String()
		snap.Word = o.st.word.Text
	}
	return snap
}

func (o *Orchestrator) notify(snap domain.SessionSnapshot) {
	if o.notifier != nil {
		o.notifier.SessionChanged(snap)
	}
}
