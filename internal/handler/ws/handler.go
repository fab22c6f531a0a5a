package ws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lexoria/practice_service/internal/domain"
	"github.com/lexoria/practice_service/internal/service"
)

// Message types the presentation layer may send over the socket. Every
// command returns the resulting session snapshot; state changes caused by
// background work arrive via the hub broadcast instead.
const (
	TypeStartSession    = "start_session"
	TypeSelectLanguage  = "select_language"
	TypeToggleRecording = "toggle_recording"
	TypeTogglePlayback  = "toggle_playback"
	TypeTryAgain        = "try_again"
	TypeComplete        = "complete_practice"
	TypeGetState        = "get_state"
)

// Handler dispatches WebSocket commands to the session orchestrator.
type Handler struct {
	log      zerolog.Logger
	sessions *service.Orchestrator
}

// NewHandler creates a new WebSocket command handler.
func NewHandler(log zerolog.Logger, sessions *service.Orchestrator) *Handler {
	return &Handler{
		log:      log,
		sessions: sessions,
	}
}

type startSessionPayload struct {
	WordID  string `json:"word_id"`
	OwnerID string `json:"owner_id"`
}

type selectLanguagePayload struct {
	Language string `json:"language"`
}

type reply struct {
	Type     string                  `json:"type"`
	Snapshot *domain.SessionSnapshot `json:"snapshot,omitempty"`
	Error    string                  `json:"error,omitempty"`
}

// Handle processes one inbound message and returns the serialized reply,
// or nil when the message needs no direct response.
func (h *Handler) Handle(clientID, msgType string, payload json.RawMessage) ([]byte, error) {
	ctx := context.Background()

	var (
		snap domain.SessionSnapshot
		err  error
	)

	switch msgType {
	case TypeStartSession:
		var p startSessionPayload
		if uerr := json.Unmarshal(payload, &p); uerr != nil {
			return h.errorReply(msgType, "invalid payload")
		}
		wordID, perr := uuid.Parse(p.WordID)
		if perr != nil {
			return h.errorReply(msgType, "word_id must be a valid UUID")
		}
		ownerID := uuid.Nil
		if p.OwnerID != "" {
			if ownerID, perr = uuid.Parse(p.OwnerID); perr != nil {
				return h.errorReply(msgType, "owner_id must be a valid UUID")
			}
		}
		snap, err = h.sessions.StartSession(ctx, ownerID, wordID)

	case TypeSelectLanguage:
		var p selectLanguagePayload
		if uerr := json.Unmarshal(payload, &p); uerr != nil {
			return h.errorReply(msgType, "invalid payload")
		}
		lang, perr := domain.ParseLanguage(p.Language)
		if perr != nil {
			return h.errorReply(msgType, perr.Error())
		}
		snap, err = h.sessions.SelectLanguage(ctx, lang)

	case TypeToggleRecording:
		snap, err = h.sessions.ToggleRecording(ctx)

	case TypeTogglePlayback:
		snap, err = h.sessions.TogglePlayback()

	case TypeTryAgain:
		snap, err = h.sessions.TryAgain()

	case TypeComplete:
		snap, err = h.sessions.CompletePractice(ctx)

	case TypeGetState:
		snap = h.sessions.Snapshot()

	default:
		return h.errorReply(msgType, fmt.Sprintf("unknown message type %q", msgType))
	}

	if err != nil {
		h.log.Warn().Err(err).Str("type", msgType).Str("client_id", clientID).Msg("WebSocket command failed")
		return h.errorReply(msgType, err.Error())
	}

	return json.Marshal(reply{Type: msgType, Snapshot: &snap})
}

func (h *Handler) errorReply(msgType, message string) ([]byte, error) {
	return json.Marshal(reply{Type: msgType, Error: message})
}
