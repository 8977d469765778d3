package page

import (
	"bytes"
	"errors"
	"log"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/my-chatbot/backend/internal/model/profile"
	chatService "github.com/zhouzirui/my-chatbot/backend/internal/service/chat"
	"github.com/zhouzirui/my-chatbot/backend/internal/view"
)

// Handler 服务端渲染页面的处理器
type Handler struct {
	chatSvc    *chatService.Service
	dispatcher *chatService.Dispatcher
	profiles   profile.Store
	pages      *view.Renderer
}

// New 创建页面处理器
func New(chatSvc *chatService.Service, dispatcher *chatService.Dispatcher, profiles profile.Store, pages *view.Renderer) *Handler {
	return &Handler{
		chatSvc:    chatSvc,
		dispatcher: dispatcher,
		profiles:   profiles,
		pages:      pages,
	}
}

// RegisterRoutes 注册页面路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleIndex)
	r.Post("/sessions", h.handleCreateSession)
	r.Get("/sessions/{sessionID}", h.handleSession)
	r.Post("/sessions/{sessionID}/send", h.handleSend)
}

// handleIndex 首页：选择profile开始会话
func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.pages.IndexPage(&buf, h.profiles.List()); err != nil {
		log.Printf("[page] render index failed: %v", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	writeHTML(w, buf.Bytes())
}

// handleCreateSession 表单创建会话后跳转
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	profileID := r.FormValue("profileId")
	if _, ok := h.profiles.FindByID(profileID); !ok {
		http.Error(w, "profile not found", http.StatusBadRequest)
		return
	}

	session, err := h.chatSvc.CreateSession(r.Context(), profileID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	http.Redirect(w, r, "/sessions/"+url.PathEscape(session.ID), http.StatusSeeOther)
}

// handleSession 渲染会话页面
func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	p, ok := h.profiles.FindByID(session.ProfileID)
	if !ok {
		http.Error(w, "profile not found", http.StatusInternalServerError)
		return
	}

	turns, err := h.chatSvc.LoadTranscript(r.Context(), sessionID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// 渲染到缓冲区，模板出错时不输出半个页面
	var buf bytes.Buffer
	if err := h.pages.SessionPage(r.Context(), &buf, session, p, turns, r.URL.Query().Get("notice")); err != nil {
		log.Printf("[page] render session=%s failed: %v", sessionID, err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	writeHTML(w, buf.Bytes())
}

// handleSend 表单发送消息后跳转回会话页面
func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	target := "/sessions/" + url.PathEscape(sessionID)

	_, err := h.dispatcher.Send(r.Context(), sessionID, r.FormValue("text"))
	switch {
	case err == nil, errors.Is(err, chatService.ErrEmptyInput):
	case errors.Is(err, chatService.ErrSessionNotFound):
		http.Error(w, "session not found", http.StatusNotFound)
		return
	case errors.Is(err, chatService.ErrSendInFlight):
		target += "?notice=" + url.QueryEscape("A reply is still pending.")
	default:
		log.Printf("[page] send failed session=%s: %v", sessionID, err)
		target += "?notice=" + url.QueryEscape("Message could not be sent.")
	}

	http.Redirect(w, r, target, http.StatusSeeOther)
}

func writeHTML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
