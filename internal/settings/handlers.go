package settings

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olehkv/backend-vzuttia/internal/common"
)

// Handler exposes tenant settings endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Mount registers the settings routes on a company-scoped router.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/settings", h.Get)
	r.Put("/settings", h.Update)
	r.Put("/settings/rates", h.UpdateRates)
	r.Put("/settings/rates/cross", h.UpdateCrossRate)
}

// Get handles GET /api/v1/settings.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Get(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

// Update handles PUT /api/v1/settings.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := common.DecodeJSON(r, &input); err != nil {
		common.WriteError(w, err)
		return
	}
	view, err := h.service.Update(r.Context(), input)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

// UpdateRates handles PUT /api/v1/settings/rates.
func (h *Handler) UpdateRates(w http.ResponseWriter, r *http.Request) {
	var input RatesInput
	if err := common.DecodeJSON(r, &input); err != nil {
		common.WriteError(w, err)
		return
	}
	view, err := h.service.UpdateRates(r.Context(), input)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

// UpdateCrossRate handles PUT /api/v1/settings/rates/cross.
func (h *Handler) UpdateCrossRate(w http.ResponseWriter, r *http.Request) {
	var input CrossRateInput
	if err := common.DecodeJSON(r, &input); err != nil {
		common.WriteError(w, err)
		return
	}
	view, err := h.service.UpdateCrossRate(r.Context(), input)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}
