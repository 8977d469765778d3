package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/my-chatbot/backend/internal/model/profile"
	chatService "github.com/zhouzirui/my-chatbot/backend/internal/service/chat"
	"github.com/zhouzirui/my-chatbot/backend/internal/view"
	"github.com/zhouzirui/my-chatbot/backend/pkg/utils"
)

// Handler 聊天服务的HTTP处理器
type Handler struct {
	chatSvc    *chatService.Service
	dispatcher *chatService.Dispatcher
	profiles   profile.Store
	pages      *view.Renderer
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service, dispatcher *chatService.Dispatcher, profiles profile.Store, pages *view.Renderer) *Handler {
	return &Handler{
		chatSvc:    chatSvc,
		dispatcher: dispatcher,
		profiles:   profiles,
		pages:      pages,
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Get("/sessions/{sessionID}/turns", h.handleListTurns)
	r.Post("/sessions/{sessionID}/messages", h.handleSendMessage)
}

// handleCreateSession 创建会话
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ProfileID string `json:"profileId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.ProfileID == "" {
		utils.RespondError(w, http.StatusBadRequest, "profileId is required")
		return
	}

	if _, ok := h.profiles.FindByID(payload.ProfileID); !ok {
		utils.RespondError(w, http.StatusBadRequest, "profile not found")
		return
	}

	session, err := h.chatSvc.CreateSession(r.Context(), payload.ProfileID)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, session)
}

// handleListTurns 返回渲染后的会话记录
func (h *Handler) handleListTurns(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	turns, err := h.chatSvc.LoadTranscript(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, h.pages.Resolve(r.Context(), sessionID, view.Build(turns)))
}

// handleSendMessage 发送消息并等待回复
func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	result, err := h.dispatcher.Send(r.Context(), sessionID, payload.Text)
	if err != nil {
		utils.RespondError(w, statusFor(err), err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]view.TurnView{
		"user":  view.BuildTurn(result.User),
		"reply": view.BuildTurn(result.Reply),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, chatService.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, chatService.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, chatService.ErrSendInFlight):
		return http.StatusConflict
	case errors.Is(err, chatService.ErrProfileNotFound):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
