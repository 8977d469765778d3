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

	"github.com/joho/godotenv"

	"github.com/zhouzirui/my-chatbot/backend/internal/config"
	"github.com/zhouzirui/my-chatbot/backend/internal/handler"
	"github.com/zhouzirui/my-chatbot/backend/internal/model/profile"
	"github.com/zhouzirui/my-chatbot/backend/internal/service/ai"
	"github.com/zhouzirui/my-chatbot/backend/internal/service/chat"
	"github.com/zhouzirui/my-chatbot/backend/internal/service/diagram"
	"github.com/zhouzirui/my-chatbot/backend/internal/service/export"
	"github.com/zhouzirui/my-chatbot/backend/internal/view"
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

	// Initialize profile store and chat service
	profileStore := profile.NewMemoryStore(profile.Seed(cfg.AI.Ark.Enabled()))
	chatService := chat.NewService()

	// Initialize AI service
	if !cfg.AI.Enabled() {
		log.Println("未配置任何模型凭证，所有回复都将是错误占位文本")
	}
	models, err := cfg.AI.NewChatModels(ctx)
	if err != nil {
		log.Fatalf("failed to initialize chat models: %v", err)
	}
	aiService, err := ai.NewService(ctx, profileStore, models)
	if err != nil {
		log.Fatalf("failed to initialize AI service: %v", err)
	}
	log.Printf("AI service initialized with %d provider(s)", len(models))

	dispatcher := chat.NewDispatcher(chatService, profileStore, aiService, cfg.Chat.SendPolicy)
	log.Printf("send policy: %s", dispatcher.Policy())

	// Initialize diagram rendering and export
	renderer := diagram.NewKrokiRenderer(diagram.Config{
		BaseURL: cfg.Diagram.KrokiURL,
		Timeout: cfg.Diagram.Timeout,
	})
	exporter := export.New(renderer, cfg.Diagram.ExportScale)

	router := handler.NewRouter(handler.Deps{
		Profiles:   profileStore,
		Chat:       chatService,
		Dispatcher: dispatcher,
		AI:         aiService,
		Diagrams:   renderer,
		Exporter:   exporter,
		Pages:      view.NewRenderer(renderer),
	})

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("chat backend listening on %s", addr)
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
