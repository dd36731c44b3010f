package notify

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olehkv/backend-vzuttia/internal/common"
)

// Handler exposes tenant-facing notification endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Mount registers the notification routes on a company-scoped router.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/notifications", h.List)
	r.Post("/notifications/{id}/read", h.MarkRead)
}

// List handles GET /api/v1/notifications.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": items})
}

// MarkRead handles POST /api/v1/notifications/{id}/read.
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := h.service.MarkRead(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
