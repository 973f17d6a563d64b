package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/solenlabs/agent-relay/backend/internal/config"
	"github.com/solenlabs/agent-relay/backend/internal/handler/chat"
	"github.com/solenlabs/agent-relay/backend/internal/handler/stream"
	"github.com/solenlabs/agent-relay/backend/internal/handler/ws"
	middlewarePkg "github.com/solenlabs/agent-relay/backend/internal/middleware"
	"github.com/solenlabs/agent-relay/backend/internal/service/room"
	"github.com/solenlabs/agent-relay/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(runner chat.Runner, rooms *room.Registry, corsCfg config.CORSConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(corsCfg.AllowedOrigins))

	chatHandler := chat.New(runner)
	streamHandler := stream.New(rooms)
	wsHandler := ws.New(rooms)

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
		streamHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)

		api.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
	})

	return r
}
