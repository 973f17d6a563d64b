package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"

	"github.com/solenlabs/agent-relay/backend/internal/config"
	"github.com/solenlabs/agent-relay/backend/internal/handler"
	"github.com/solenlabs/agent-relay/backend/internal/service/agent"
	"github.com/solenlabs/agent-relay/backend/internal/service/rationale"
	"github.com/solenlabs/agent-relay/backend/internal/service/relay"
	"github.com/solenlabs/agent-relay/backend/internal/service/room"
	"github.com/solenlabs/agent-relay/backend/internal/service/summary"
	"github.com/solenlabs/agent-relay/backend/pkg/retry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	var chatModel model.ChatModel
	if cfg.AI.Enabled() {
		chatModel, err = cfg.AI.NewChatModel(ctx)
		if err != nil {
			log.Printf("warning: failed to initialize chat model: %v", err)
			log.Println("continuing without summary refinement")
		} else {
			log.Println("chat model initialized successfully")
		}
	} else {
		log.Println("Ark credentials not configured, trace summaries fall back to deterministic labels")
	}

	executor := retry.NewExecutor(retry.DefaultConfig())

	summarySvc, err := summary.NewService(ctx, chatModel, executor, cfg.Relay.SummariesEnabled)
	if err != nil {
		log.Fatalf("failed to initialize summary service: %v", err)
	}

	classifier := rationale.NewClassifier(summarySvc)
	rooms := room.NewRegistry()

	source, err := buildSource(ctx, cfg.Agent, chatModel)
	if err != nil {
		log.Fatalf("failed to initialize agent source: %v", err)
	}

	orchestrator := relay.New(source, classifier, summarySvc, rooms, cfg.Relay.StreamIdleTimeout)

	router := handler.NewRouter(orchestrator, rooms, cfg.CORS)

	startServer(ctx, cfg.Server, router)
}

func buildSource(ctx context.Context, cfg config.AgentConfig, chatModel model.ChatModel) (agent.Source, error) {
	switch cfg.Mode {
	case config.AgentModeReplay:
		log.Printf("agent source: replay from %s", cfg.ReplayPath)
		src, err := agent.NewReplaySource(cfg.ReplayPath, cfg.ReplayDelay)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		if chatModel == nil {
			return nil, errors.New("agent mode ark requires Ark credentials; set ARK_API_KEY and Model, or switch AGENT_MODE=replay")
		}
		log.Println("agent source: ark chat model")
		src, err := agent.NewArkSource(ctx, chatModel)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("agent relay backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
