package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olehkv/backend-vzuttia/internal/common"
)

// Handler exposes model and client endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Mount registers the catalog routes on a company-scoped router.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/models", h.ListModels)
	r.Post("/models", h.CreateModel)
	r.Put("/models/{id}", h.UpdateModel)
	r.Delete("/models/{id}", h.DeleteModel)

	r.Get("/clients", h.ListClients)
	r.Post("/clients", h.CreateClient)
	r.Put("/clients/{id}", h.UpdateClient)
	r.Delete("/clients/{id}", h.DeleteClient)
}

// ListModels handles GET /api/v1/models.
func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	models, err := h.service.ListModels(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": models})
}

// CreateModel handles POST /api/v1/models.
func (h *Handler) CreateModel(w http.ResponseWriter, r *http.Request) {
	var input ModelInput
	if err := common.DecodeJSON(r, &input); err != nil {
		common.WriteError(w, err)
		return
	}
	model, err := h.service.CreateModel(r.Context(), input)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": model})
}

// UpdateModel handles PUT /api/v1/models/{id}.
func (h *Handler) UpdateModel(w http.ResponseWriter, r *http.Request) {
	var input ModelInput
	if err := common.DecodeJSON(r, &input); err != nil {
		common.WriteError(w, err)
		return
	}
	model, err := h.service.UpdateModel(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": model})
}

// DeleteModel handles DELETE /api/v1/models/{id}.
func (h *Handler) DeleteModel(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteModel(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListClients handles GET /api/v1/clients.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.service.ListClients(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": clients})
}

// CreateClient handles POST /api/v1/clients.
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var input ClientInput
	if err := common.DecodeJSON(r, &input); err != nil {
		common.WriteError(w, err)
		return
	}
	client, err := h.service.CreateClient(r.Context(), input)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": client})
}

// UpdateClient handles PUT /api/v1/clients/{id}.
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	var input ClientInput
	if err := common.DecodeJSON(r, &input); err != nil {
		common.WriteError(w, err)
		return
	}
	client, err := h.service.UpdateClient(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": client})
}

// DeleteClient handles DELETE /api/v1/clients/{id}.
func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteClient(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
