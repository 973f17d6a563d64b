package chat

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	relaymodel "github.com/solenlabs/agent-relay/backend/internal/model/relay"
	"github.com/solenlabs/agent-relay/backend/pkg/utils"
)

// DefaultSessionID is used when the client omits a session identifier.
const DefaultSessionID = "default-session"

// Runner drives one agent invocation end-to-end.
type Runner interface {
	Run(ctx context.Context, sessionID, inputText string) (*relaymodel.Result, error)
}

// Handler exposes the chat endpoint that triggers an agent invocation.
// Live updates reach subscribers through the session room; the HTTP
// response carries the aggregate result once the stream ends.
type Handler struct {
	runner Runner
}

// New creates the chat handler.
func New(runner Runner) *Handler {
	return &Handler{runner: runner}
}

// RegisterRoutes mounts the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Message   string `json:"message"`
		SessionID string `json:"sessionId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.Message == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}
	if payload.SessionID == "" {
		payload.SessionID = DefaultSessionID
	}

	result, err := h.runner.Run(r.Context(), payload.SessionID, payload.Message)
	if err != nil {
		log.Printf("[chat] invocation failed session=%s: %v", payload.SessionID, err)
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, result)
}
