package service

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lexoria/practice_service/internal/audio"
	"github.com/lexoria/practice_service/internal/domain"
	"github.com/lexoria/practice_service/internal/errors"
)

type fakeDevice struct {
	mu       sync.Mutex
	active   bool
	startErr error
	saveErr  error
	payload  []byte
	duration time.Duration
	starts   int
}

func (d *fakeDevice) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.startErr != nil {
		return d.startErr
	}
	if d.active {
		return errors.AlreadyRecording()
	}
	d.active = true
	d.starts++
	return nil
}

func (d *fakeDevice) IsActive() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

func (d *fakeDevice) Elapsed() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.active {
		return 0
	}
	return d.duration
}

func (d *fakeDevice) StopAndSave(dest string) (*audio.Artifact, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.active = false
	if d.saveErr != nil {
		return nil, d.saveErr
	}
	if err := os.WriteFile(dest, d.payload, 0o644); err != nil {
		return nil, errors.Wrap(errors.ErrWriteFailure, "failed to write recording", err)
	}
	return &audio.Artifact{Path: dest, Duration: d.duration, Size: int64(len(d.payload))}, nil
}

func (d *fakeDevice) Cancel() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.active = false
	return nil
}

type fakeTrimmer struct {
	err      error
	duration time.Duration
}

func (t *fakeTrimmer) Trim(src, dst string) (*audio.Artifact, error) {
	if t.err != nil {
		return nil, t.err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, errors.Wrap(errors.ErrTrimFailed, "failed to read recording", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return nil, errors.Wrap(errors.ErrTrimFailed, "failed to write trimmed recording", err)
	}
	return &audio.Artifact{Path: dst, Duration: t.duration, Size: int64(len(data))}, nil
}

type fakeComparator struct {
	mu      sync.Mutex
	result  *domain.ComparisonResult
	err     error
	calls   int
	release chan struct{} // when non-nil, Compare blocks until closed
}

func (c *fakeComparator) Compare(ctx context.Context, word, languageCode string, audioData []byte, referenceURL string) (*domain.ComparisonResult, error) {
	c.mu.Lock()
	c.calls++
	release := c.release
	c.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if c.err != nil {
		return nil, c.err
	}
	out := *c.result
	return &out, nil
}

func (c *fakeComparator) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type fakeSynthesizer struct {
	url string
	err error
}

func (s *fakeSynthesizer) Synthesize(ctx context.Context, word, languageCode, wordID string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.url, nil
}

type fakeUploader struct {
	mu   sync.Mutex
	jobs []UploadJob
}

func (u *fakeUploader) Enqueue(job UploadJob) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.jobs = append(u.jobs, job)
}

func (u *fakeUploader) jobCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.jobs)
}

type fakeStore struct {
	mu      sync.Mutex
	err     error
	release chan struct{} // when non-nil, Upload blocks until closed
	uploads []string
}

func (s *fakeStore) Upload(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	release := s.release
	s.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.uploads = append(s.uploads, objectName)
	return "https://cdn.example.com/" + objectName, nil
}

func (s *fakeStore) Delete(ctx context.Context, objectName string) error {
	return nil
}

type fakeResultQueue struct {
	mu     sync.Mutex
	lists  map[string][][]byte
	pushed []interface{}
	notify chan struct{}
}

func newFakeResultQueue() *fakeResultQueue {
	return &fakeResultQueue{
		lists:  make(map[string][][]byte),
		notify: make(chan struct{}, 16),
	}
}

func (q *fakeResultQueue) RPush(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	q.mu.Lock()
	q.lists[key] = append(q.lists[key], data)
	q.pushed = append(q.pushed, value)
	q.mu.Unlock()
	q.notify <- struct{}{}
	return nil
}

func (q *fakeResultQueue) SetExpiry(ctx context.Context, key string, ttl time.Duration) error {
	return nil
}

func (q *fakeResultQueue) BLPop(ctx context.Context, timeout time.Duration, key string) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	for {
		q.mu.Lock()
		if list := q.lists[key]; len(list) > 0 {
			head := list[0]
			q.lists[key] = list[1:]
			q.mu.Unlock()
			return head, nil
		}
		q.mu.Unlock()

		if time.Now().After(deadline) {
			return nil, redis.Nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func (q *fakeResultQueue) last() interface{} {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pushed) == 0 {
		return nil
	}
	return q.pushed[len(q.pushed)-1]
}

type snapshotRecorder struct {
	mu    sync.Mutex
	snaps []domain.SessionSnapshot
}

func (r *snapshotRecorder) SessionChanged(s domain.SessionSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
}

func (r *snapshotRecorder) phases() []domain.SessionPhase {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.SessionPhase, len(r.snaps))
	for i, s := range r.snaps {
		out[i] = s.Phase
	}
	return out
}
