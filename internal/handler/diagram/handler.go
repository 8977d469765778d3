package diagram

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	chatService "github.com/zhouzirui/my-chatbot/backend/internal/service/chat"
	diagramService "github.com/zhouzirui/my-chatbot/backend/internal/service/diagram"
	"github.com/zhouzirui/my-chatbot/backend/internal/service/export"
	"github.com/zhouzirui/my-chatbot/backend/internal/view"
	"github.com/zhouzirui/my-chatbot/backend/pkg/utils"
)

// Handler 图表渲染与导出的HTTP处理器
type Handler struct {
	chatSvc  *chatService.Service
	renderer diagramService.Renderer
	exporter *export.Exporter
}

// New 创建图表处理器
func New(chatSvc *chatService.Service, renderer diagramService.Renderer, exporter *export.Exporter) *Handler {
	return &Handler{
		chatSvc:  chatSvc,
		renderer: renderer,
		exporter: exporter,
	}
}

// RegisterRoutes 注册图表相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/sessions/{sessionID}/turns/{turnID}", func(r chi.Router) {
		r.Get("/diagram.svg", h.handleImage(diagramService.FormatSVG))
		r.Get("/diagram.png", h.handleImage(diagramService.FormatPNG))
		r.Get("/diagram.pdf", h.handlePDF)
	})
}

// handleImage 返回图表的SVG或PNG渲染结果
func (h *Handler) handleImage(format diagramService.Format) http.HandlerFunc {
	contentType := "image/svg+xml"
	if format == diagramService.FormatPNG {
		contentType = "image/png"
	}

	return func(w http.ResponseWriter, r *http.Request) {
		d, ok := h.lookup(w, r)
		if !ok {
			return
		}

		data, err := h.renderer.Render(r.Context(), d.Key, d.Language, d.Source, format)
		if err != nil {
			h.renderFailed(w, d, err)
			return
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "private, max-age=3600")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

// handlePDF 导出图表为PDF附件
func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	d, ok := h.lookup(w, r)
	if !ok {
		return
	}

	doc, err := h.exporter.Export(r.Context(), d.Key, d.Language, d.Source)
	if err != nil {
		h.renderFailed(w, d, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Data)
}

// lookup 找到消息并提取其中的图表
func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*view.Diagram, bool) {
	sessionID := chi.URLParam(r, "sessionID")
	turnID := chi.URLParam(r, "turnID")

	turn, err := h.chatSvc.FindTurn(r.Context(), sessionID, turnID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, chatService.ErrSessionNotFound) || errors.Is(err, chatService.ErrTurnNotFound) {
			status = http.StatusNotFound
		}
		utils.RespondError(w, status, err.Error())
		return nil, false
	}

	d := view.BuildTurn(turn).Diagram
	if d == nil {
		utils.RespondError(w, http.StatusNotFound, "turn has no diagram")
		return nil, false
	}
	return d, true
}

func (h *Handler) renderFailed(w http.ResponseWriter, d *view.Diagram, err error) {
	switch {
	case errors.Is(err, diagramService.ErrInvalidSyntax):
		utils.RespondError(w, http.StatusUnprocessableEntity, view.NoticeInvalidSyntax)
	default:
		log.Printf("[diagram] render failed turn=%s: %v", d.Key, err)
		utils.RespondError(w, http.StatusBadGateway, view.NoticeUnavailable)
	}
}
