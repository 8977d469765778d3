package stream

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	chatService "github.com/zhouzirui/my-chatbot/backend/internal/service/chat"
	"github.com/zhouzirui/my-chatbot/backend/internal/view"
	"github.com/zhouzirui/my-chatbot/backend/pkg/utils"
)

const defaultHeartbeat = 15 * time.Second

// Handler pushes transcript changes of a session via Server-Sent Events
type Handler struct {
	chatSvc   *chatService.Service
	heartbeat time.Duration
}

// New creates a new stream handler
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{
		chatSvc:   chatSvc,
		heartbeat: defaultHeartbeat,
	}
}

// TurnEvent is the payload of a "turn" event.
type TurnEvent struct {
	SessionID string        `json:"sessionId"`
	Turn      view.TurnView `json:"turn"`
}

// RegisterRoutes registers the event feed
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{sessionID}/events", h.handleEvents)
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if _, err := h.chatSvc.GetSession(r.Context(), sessionID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, chatService.ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		utils.RespondError(w, status, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	events, cancel := h.chatSvc.Subscribe(sessionID)
	defer cancel()

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	ctx := r.Context()
	log.Printf("[sse] opening event stream for session=%s", sessionID)

	if err := utils.SendSSEEvent(w, flusher, "ready", map[string]string{"sessionId": sessionID}); err != nil {
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[sse] closing event stream for session=%s", sessionID)
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			payload := TurnEvent{SessionID: ev.SessionID, Turn: view.BuildTurn(ev.Turn)}
			if err := utils.SendSSEEvent(w, flusher, "turn", payload); err != nil {
				log.Printf("[sse] write failed session=%s: %v", sessionID, err)
				return
			}
		case t := <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "heartbeat "+t.UTC().Format(time.RFC3339)); err != nil {
				return
			}
		}
	}
}
