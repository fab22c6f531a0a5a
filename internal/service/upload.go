package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/lexoria/practice_service/internal/errors"
	"github.com/lexoria/practice_service/internal/repository"
)

const (
	// Redis key prefix for upload results
	uploadResultKeyPrefix = "practice:upload:"
	// TTL for upload results in Redis
	uploadResultTTL = 60 * time.Second
	// How long a consumer waits for a result before giving up
	resultWaitTimeout = 10 * time.Second
)

// UploadJob asks the worker to persist one finished recording. It carries
// the recording bytes rather than a file path so session cleanup is free
// to delete the temp file while the job is still queued.
type UploadJob struct {
	AttemptID string
	OwnerID   uuid.UUID
	WordID    uuid.UUID
	Data      []byte
}

// UploadResult is what the worker pushes to its result channel. Failures
// surface here and in logs, never in the session control flow.
type UploadResult struct {
	AttemptID string `json:"attempt_id"`
	Address   string `json:"address,omitempty"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
}

// UploadService persists finished recordings in the background. Jobs are
// fire-and-forget from the orchestrator's perspective: the worker owns its
// own failure channel and never blocks or cancels a comparison.
type UploadService struct {
	store    ObjectStore
	progress repository.ProgressRepository
	results  ResultQueue
	log      zerolog.Logger

	jobs chan UploadJob
	done chan struct{}
}

// NewUploadService creates a new upload worker. results may be nil, in
// which case outcomes are only logged.
func NewUploadService(store ObjectStore, progress repository.ProgressRepository, results ResultQueue, log zerolog.Logger) *UploadService {
	return &UploadService{
		store:    store,
		progress: progress,
		results:  results,
		log:      log,
		jobs:     make(chan UploadJob, 16),
		done:     make(chan struct{}),
	}
}

// Start runs the worker until ctx is cancelled.
func (s *UploadService) Start(ctx context.Context) {
	go func() {
		defer close(s.done)
		for {
			select {
			case <-ctx.Done():
				return
			case job := <-s.jobs:
				s.process(job)
			}
		}
	}()
}

// Wait blocks until the worker has exited.
func (s *UploadService) Wait() {
	<-s.done
}

// Enqueue hands a recording to the worker without blocking. A full queue
// drops the job; losing an upload never affects the session outcome.
func (s *UploadService) Enqueue(job UploadJob) {
	select {
	case s.jobs <- job:
	default:
		s.log.Warn().
			Str("attempt_id", job.AttemptID).
			Msg("upload queue full, dropping job")
	}
}

func (s *UploadService) process(job UploadJob) {
	// Detached work gets its own context; session cancellation must not
	// abort an in-flight upload.
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	address, err := s.upload(ctx, job)
	result := UploadResult{AttemptID: job.AttemptID, Address: address, OK: err == nil}
	if err != nil {
		result.Error = err.Error()
		s.log.Error().Err(err).
			Str("attempt_id", job.AttemptID).
			Str("word_id", job.WordID.String()).
			Msg("recording upload failed")
	} else {
		s.log.Info().
			Str("attempt_id", job.AttemptID).
			Str("address", address).
			Msg("recording uploaded")
	}

	s.publish(ctx, result)
}

func (s *UploadService) upload(ctx context.Context, job UploadJob) (string, error) {
	if len(job.Data) == 0 {
		return "", fmt.Errorf("recording is empty")
	}

	objectName := fmt.Sprintf("recordings/%s/%s/%s.wav", job.OwnerID, job.WordID, job.AttemptID)
	address, err := s.store.Upload(ctx, objectName, job.Data, "audio/wav")
	if err != nil {
		return "", fmt.Errorf("failed to upload recording: %w", err)
	}

	if s.progress != nil {
		if err := s.progress.SaveRecording(ctx, job.OwnerID, job.WordID, address); err != nil {
			return address, fmt.Errorf("uploaded but failed to record progress: %w", err)
		}
	}

	return address, nil
}

// AwaitResult blocks until the upload outcome for attemptID is available
// or the wait times out. Consumer side of the detached result channel.
func (s *UploadService) AwaitResult(ctx context.Context, attemptID string) (*UploadResult, error) {
	if s.results == nil {
		return nil, errors.New(errors.ErrUploadFailed, "no result channel configured")
	}

	key := uploadResultKeyPrefix + attemptID
	data, err := s.results.BLPop(ctx, resultWaitTimeout, key)
	if err != nil {
		if err == redis.Nil {
			return nil, errors.New(errors.ErrTimeout, "upload result not ready, try again")
		}
		return nil, errors.Wrap(errors.ErrUploadFailed, "failed to read upload result", err)
	}

	var result UploadResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, errors.Wrap(errors.ErrInternal, "failed to parse upload result", err)
	}
	return &result, nil
}

func (s *UploadService) publish(ctx context.Context, result UploadResult) {
	if s.results == nil {
		return
	}

	key := uploadResultKeyPrefix + result.AttemptID
	if err := s.results.RPush(ctx, key, result); err != nil {
		s.log.Error().Err(err).Str("attempt_id", result.AttemptID).Msg("failed to push upload result")
		return
	}
	if err := s.results.SetExpiry(ctx, key, uploadResultTTL); err != nil {
		s.log.Error().Err(err).Str("attempt_id", result.AttemptID).Msg("failed to set upload result expiry")
	}
}
