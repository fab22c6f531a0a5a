package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lexoria/practice_service/internal/audio"
	"github.com/lexoria/practice_service/internal/domain"
	"github.com/lexoria/practice_service/internal/repository"
	"github.com/lexoria/practice_service/internal/service"
)

type stubDevice struct{}

func (stubDevice) Start() error           { return nil }
func (stubDevice) IsActive() bool         { return false }
func (stubDevice) Elapsed() time.Duration { return 0 }
func (stubDevice) Cancel() error          { return nil }

func (stubDevice) StopAndSave(dest string) (*audio.Artifact, error) {
	if err := os.WriteFile(dest, []byte("pcm"), 0o644); err != nil {
		return nil, err
	}
	return &audio.Artifact{Path: dest, Duration: time.Second, Size: 3}, nil
}

type passTrimmer struct{}

func (passTrimmer) Trim(src, dst string) (*audio.Artifact, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return nil, err
	}
	return &audio.Artifact{Path: dst, Duration: time.Second, Size: int64(len(data))}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTestHandler(t *testing.T) (*PracticeHandler, uuid.UUID) {
	t.Helper()

	words := repository.NewInMemoryWordRepository()
	word := &repository.PracticeWord{
		ID:           uuid.New(),
		Text:         "bonjour",
		LanguageCode: "fr",
	}
	words.Put(word)

	orch := service.NewOrchestrator(
		stubDevice{},
		passTrimmer{},
		nil,
		nil,
		nil,
		service.NewSeededFallbackScorer(1),
		words,
		nil,
		nil,
		t.TempDir(),
		0,
		zerolog.Nop(),
	)

	return NewPracticeHandler(zerolog.Nop(), orch, nil), word.ID
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return env
}

func TestStartSessionReturnsSnapshot(t *testing.T) {
	t.Parallel()

	h, wordID := newTestHandler(t)

	body := `{"word_id":"` + wordID.String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/practice/start", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Start(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d (%s)", rec.Code, rec.Body.String())
	}

	env := decode(t, rec)
	if !env.Success {
		t.Fatal("expected success envelope")
	}

	var snap domain.SessionSnapshot
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Phase != domain.PhaseLanguagePending {
		t.Fatalf("unexpected phase: %s", snap.Phase)
	}
	if snap.Word != "bonjour" || !snap.PickerVisible {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestStartSessionRejectsBadWordID(t *testing.T) {
	t.Parallel()

	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/practice/start", strings.NewReader(`{"word_id":"nope"}`))
	rec := httptest.NewRecorder()
	h.Start(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	env := decode(t, rec)
	if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
		t.Fatalf("unexpected error body: %+v", env.Error)
	}
}

func TestStartSessionUnknownWordIs404(t *testing.T) {
	t.Parallel()

	h, _ := newTestHandler(t)

	body := `{"word_id":"` + uuid.NewString() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/practice/start", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Start(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestSelectLanguageRejectsUnsupported(t *testing.T) {
	t.Parallel()

	h, wordID := newTestHandler(t)

	startBody := `{"word_id":"` + wordID.String() + `"}`
	h.Start(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader(startBody)))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/practice/language", strings.NewReader(`{"language":"klingon"}`))
	rec := httptest.NewRecorder()
	h.SelectLanguage(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestTogglePlaybackWithNothingRecorded(t *testing.T) {
	t.Parallel()

	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.TogglePlayback(rec, httptest.NewRequest(http.MethodPost, "/api/v1/practice/playback", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	env := decode(t, rec)
	if env.Error == nil || env.Error.Code != "NO_RECORDING" {
		t.Fatalf("unexpected error body: %+v", env.Error)
	}
}

func TestStateAlwaysSucceeds(t *testing.T) {
	t.Parallel()

	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.State(rec, httptest.NewRequest(http.MethodGet, "/api/v1/practice/state", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	env := decode(t, rec)
	var snap domain.SessionSnapshot
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Phase != domain.PhaseIdle {
		t.Fatalf("fresh session should be idle, got %s", snap.Phase)
	}
}

func TestRecordToggleTwiceReachesFeedback(t *testing.T) {
	t.Parallel()

	h, wordID := newTestHandler(t)

	startBody := `{"word_id":"` + wordID.String() + `"}`
	h.Start(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader(startBody)))
	h.SelectLanguage(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"language":"french"}`)))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ToggleRecording(rec, httptest.NewRequest(http.MethodPost, "/api/v1/practice/record", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("toggle %d failed: %d (%s)", i+1, rec.Code, rec.Body.String())
		}
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		rec := httptest.NewRecorder()
		h.State(rec, httptest.NewRequest(http.MethodGet, "/api/v1/practice/state", nil))

		var snap domain.SessionSnapshot
		if err := json.Unmarshal(decode(t, rec).Data, &snap); err != nil {
			t.Fatalf("decode snapshot: %v", err)
		}
		if snap.Phase == domain.PhaseFeedback {
			if snap.Result == nil || !snap.HasRecording {
				t.Fatalf("feedback state incomplete: %+v", snap)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("never reached feedback, stuck in %s", snap.Phase)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestUploadResultWithoutWorkerIsUnavailable(t *testing.T) {
	t.Parallel()

	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.UploadResult(rec, httptest.NewRequest(http.MethodGet, "/api/v1/practice/upload-result?attempt_id=x", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}
