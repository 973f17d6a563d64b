package stream

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/solenlabs/agent-relay/backend/internal/service/room"
	"github.com/solenlabs/agent-relay/backend/pkg/utils"
)

// heartbeatInterval keeps idle SSE connections alive through proxies.
const heartbeatInterval = 15 * time.Second

// Handler subscribes SSE clients to a session room.
type Handler struct {
	rooms *room.Registry
}

// New creates the SSE stream handler.
func New(rooms *room.Registry) *Handler {
	return &Handler{rooms: rooms}
}

// RegisterRoutes mounts the stream routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/{sessionID}", h.handleStream)
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "sessionID is required")
		return
	}

	sub := h.rooms.Join(sessionID)
	defer h.rooms.Leave(sub)

	utils.SetupSSEHeaders(w)
	utils.SendSSEEvent(w, flusher, "status", map[string]any{
		"message":   "stream established",
		"sessionId": sessionID,
	})

	ctx := r.Context()
	log.Printf("[sse] opened stream subscriber=%s session=%s", sub.ID, sessionID)

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[sse] closing stream subscriber=%s session=%s", sub.ID, sessionID)
			return
		case msg, open := <-sub.Messages():
			if !open {
				// Evicted by the registry; tell the client to reconnect.
				utils.SendSSEEvent(w, flusher, "status", map[string]any{"message": "subscription closed"})
				return
			}
			utils.SendSSEEvent(w, flusher, msg.Type, msg)
		case <-ticker.C:
			utils.SendSSEComment(w, flusher, "heartbeat")
		}
	}
}
