package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olehkv/backend-vzuttia/internal/common"
	"github.com/olehkv/backend-vzuttia/internal/notify"
)

// Handler exposes the super-admin console endpoints.
type Handler struct {
	service  *Service
	notifier *notify.Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service, notifier *notify.Service) *Handler {
	return &Handler{service: service, notifier: notifier}
}

// Mount registers the admin routes. Callers wrap the router with TokenAuth.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/companies", h.ListCompanies)
	r.Post("/companies", h.CreateCompany)
	r.Post("/companies/{id}/suspend", h.SuspendCompany)
	r.Post("/companies/{id}/activate", h.ActivateCompany)

	r.Get("/companies/{id}/users", h.ListUsers)
	r.Post("/companies/{id}/users", h.CreateUser)
	r.Put("/companies/{id}/users/{userId}", h.UpdateUser)
	r.Delete("/companies/{id}/users/{userId}", h.DeleteUser)

	r.Post("/notify", h.Broadcast)
}

// ListCompanies handles GET /api/v1/admin/companies.
func (h *Handler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	common.JSON(w, http.StatusOK, map[string]any{"data": h.service.ListCompanies()})
}

// CreateCompany handles POST /api/v1/admin/companies.
func (h *Handler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var input CompanyInput
	if err := common.DecodeJSON(r, &input); err != nil {
		common.WriteError(w, err)
		return
	}
	company, err := h.service.CreateCompany(input)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": company})
}

// SuspendCompany handles POST /api/v1/admin/companies/{id}/suspend.
func (h *Handler) SuspendCompany(w http.ResponseWriter, r *http.Request) {
	if err := h.service.SetCompanyActive(chi.URLParam(r, "id"), false); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ActivateCompany handles POST /api/v1/admin/companies/{id}/activate.
func (h *Handler) ActivateCompany(w http.ResponseWriter, r *http.Request) {
	if err := h.service.SetCompanyActive(chi.URLParam(r, "id"), true); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListUsers handles GET /api/v1/admin/companies/{id}/users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": users})
}

// CreateUser handles POST /api/v1/admin/companies/{id}/users.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var input UserInput
	if err := common.DecodeJSON(r, &input); err != nil {
		common.WriteError(w, err)
		return
	}
	user, err := h.service.CreateUser(chi.URLParam(r, "id"), input)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": user})
}

// UpdateUser handles PUT /api/v1/admin/companies/{id}/users/{userId}.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var input UserUpdate
	if err := common.DecodeJSON(r, &input); err != nil {
		common.WriteError(w, err)
		return
	}
	user, err := h.service.UpdateUser(chi.URLParam(r, "id"), chi.URLParam(r, "userId"), input)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": user})
}

// DeleteUser handles DELETE /api/v1/admin/companies/{id}/users/{userId}.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteUser(chi.URLParam(r, "id"), chi.URLParam(r, "userId")); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type broadcastInput struct {
	Message   string   `json:"message" validate:"required"`
	Companies []string `json:"companies"`
}

// Broadcast handles POST /api/v1/admin/notify.
func (h *Handler) Broadcast(w http.ResponseWriter, r *http.Request) {
	var input broadcastInput
	if err := common.DecodeJSON(r, &input); err != nil {
		common.WriteError(w, err)
		return
	}
	delivered, err := h.notifier.Broadcast(input.Message, input.Companies)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]int{"delivered": delivered}})
}
