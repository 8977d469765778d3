package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/my-chatbot/backend/internal/handler/chat"
	"github.com/zhouzirui/my-chatbot/backend/internal/handler/diagram"
	"github.com/zhouzirui/my-chatbot/backend/internal/handler/page"
	"github.com/zhouzirui/my-chatbot/backend/internal/handler/profile"
	"github.com/zhouzirui/my-chatbot/backend/internal/handler/stream"
	"github.com/zhouzirui/my-chatbot/backend/internal/handler/ws"
	middlewarePkg "github.com/zhouzirui/my-chatbot/backend/internal/middleware"
	profileModel "github.com/zhouzirui/my-chatbot/backend/internal/model/profile"
	aiService "github.com/zhouzirui/my-chatbot/backend/internal/service/ai"
	chatService "github.com/zhouzirui/my-chatbot/backend/internal/service/chat"
	diagramService "github.com/zhouzirui/my-chatbot/backend/internal/service/diagram"
	"github.com/zhouzirui/my-chatbot/backend/internal/service/export"
	"github.com/zhouzirui/my-chatbot/backend/internal/view"
)

// Deps are the services the HTTP layer is wired to.
type Deps struct {
	Profiles   profileModel.Store
	Chat       *chatService.Service
	Dispatcher *chatService.Dispatcher
	AI         *aiService.Service
	Diagrams   diagramService.Renderer
	Exporter   *export.Exporter
	Pages      *view.Renderer
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	// Create handlers
	var availability profile.Availability
	if deps.AI != nil {
		availability = deps.AI
	}
	profileHandler := profile.New(deps.Profiles, availability)
	chatHandler := chat.New(deps.Chat, deps.Dispatcher, deps.Profiles, deps.Pages)
	diagramHandler := diagram.New(deps.Chat, deps.Diagrams, deps.Exporter)
	streamHandler := stream.New(deps.Chat)
	wsHandler := ws.New(deps.Chat, deps.Dispatcher)
	pageHandler := page.New(deps.Chat, deps.Dispatcher, deps.Profiles, deps.Pages)

	pageHandler.RegisterRoutes(r)

	r.Route("/api", func(api chi.Router) {
		profileHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
		diagramHandler.RegisterRoutes(api)

		// Transcript change feeds
		streamHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)
	})

	return r
}
