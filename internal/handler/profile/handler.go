package profile

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/my-chatbot/backend/internal/model/profile"
	"github.com/zhouzirui/my-chatbot/backend/pkg/utils"
)

// Availability tells whether a profile can currently produce completions.
type Availability interface {
	Available(profileID string) bool
}

// Handler profile服务的HTTP处理器
type Handler struct {
	profiles profile.Store
	models   Availability
}

// New 创建profile处理器
func New(profiles profile.Store, models Availability) *Handler {
	return &Handler{
		profiles: profiles,
		models:   models,
	}
}

// RegisterRoutes 注册profile相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/profiles", h.handleListProfiles)
}

type profileResponse struct {
	profile.Profile
	Available bool `json:"available"`
}

// handleListProfiles 列出所有profile
func (h *Handler) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	items := h.profiles.List()
	out := make([]profileResponse, 0, len(items))
	for _, item := range items {
		out = append(out, profileResponse{
			Profile:   item,
			Available: h.models != nil && h.models.Available(item.ID),
		})
	}
	utils.RespondJSON(w, http.StatusOK, out)
}
