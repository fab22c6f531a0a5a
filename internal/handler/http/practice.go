package http

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lexoria/practice_service/internal/domain"
	"github.com/lexoria/practice_service/internal/errors"
	"github.com/lexoria/practice_service/internal/service"
	"github.com/lexoria/practice_service/pkg/response"
)

// PracticeHandler exposes the practice session pipeline to the
// presentation layer. All mutating endpoints return the resulting session
// snapshot so clients can render without a follow-up read.
type PracticeHandler struct {
	log      zerolog.Logger
	sessions *service.Orchestrator
	uploads  *service.UploadService

	// defaultOwner stands in when a single-user presentation layer omits
	// owner_id.
	defaultOwner uuid.UUID
}

// NewPracticeHandler creates a new practice handler. uploads may be nil
// when no result channel is configured.
func NewPracticeHandler(log zerolog.Logger, sessions *service.Orchestrator, uploads *service.UploadService) *PracticeHandler {
	return &PracticeHandler{
		log:          log,
		sessions:     sessions,
		uploads:      uploads,
		defaultOwner: uuid.New(),
	}
}

type startSessionRequest struct {
	WordID  string `json:"word_id"`
	OwnerID string `json:"owner_id"`
}

// Start handles POST /api/v1/practice/start.
func (h *PracticeHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleError(w, errors.Validation("invalid request body"))
		return
	}

	wordID, err := uuid.Parse(req.WordID)
	if err != nil {
		h.handleError(w, errors.Validation("word_id must be a valid UUID"))
		return
	}

	ownerID := h.defaultOwner
	if req.OwnerID != "" {
		ownerID, err = uuid.Parse(req.OwnerID)
		if err != nil {
			h.handleError(w, errors.Validation("owner_id must be a valid UUID"))
			return
		}
	}

	snap, err := h.sessions.StartSession(r.Context(), ownerID, wordID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, snap)
}

type selectLanguageRequest struct {
	Language string `json:"language"`
}

// SelectLanguage handles POST /api/v1/practice/language.
func (h *PracticeHandler) SelectLanguage(w http.ResponseWriter, r *http.Request) {
	var req selectLanguageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleError(w, errors.Validation("invalid request body"))
		return
	}

	lang, err := domain.ParseLanguage(req.Language)
	if err != nil {
		h.handleError(w, errors.Validation(err.Error()))
		return
	}

	snap, err := h.sessions.SelectLanguage(r.Context(), lang)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, snap)
}

// ToggleRecording handles POST /api/v1/practice/record. The same endpoint
// starts and stops capture depending on the session phase.
func (h *PracticeHandler) ToggleRecording(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessions.ToggleRecording(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, snap)
}

// TogglePlayback handles POST /api/v1/practice/playback.
func (h *PracticeHandler) TogglePlayback(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessions.TogglePlayback()
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, snap)
}

// State handles GET /api/v1/practice/state.
func (h *PracticeHandler) State(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.sessions.Snapshot())
}

// TryAgain handles POST /api/v1/practice/try-again.
func (h *PracticeHandler) TryAgain(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessions.TryAgain()
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, snap)
}

// Complete handles POST /api/v1/practice/complete.
func (h *PracticeHandler) Complete(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessions.CompletePractice(r.Context())
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, snap)
}

// UploadResult handles GET /api/v1/practice/upload-result.
// Consumer side of the detached upload worker: blocks until the result for
// the attempt is available or times out with 504.
//
// Query param: attempt_id
func (h *PracticeHandler) UploadResult(w http.ResponseWriter, r *http.Request) {
	if h.uploads == nil {
		h.handleError(w, errors.New(errors.ErrUploadFailed, "upload result channel not configured"))
		return
	}

	attemptID := r.URL.Query().Get("attempt_id")
	if attemptID == "" {
		h.handleError(w, errors.Validation("attempt_id is required"))
		return
	}

	result, err := h.uploads.AwaitResult(r.Context(), attemptID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, result)
}

func (h *PracticeHandler) handleError(w http.ResponseWriter, err error) {
	if appErr, ok := err.(*errors.AppError); ok {
		response.Error(w, appErr.HTTPStatus(), &response.ErrorBody{
			Code:    string(appErr.Code),
			Message: appErr.Message,
			Details: appErr.Details,
		})
		return
	}

	h.log.Error().Err(err).Msg("unhandled error")
	response.InternalError(w, "internal server error")
}
