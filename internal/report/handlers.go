package report

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olehkv/backend-vzuttia/internal/common"
	"github.com/olehkv/backend-vzuttia/internal/obs"
)

// Handler exposes report endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Mount registers the report routes on a company-scoped router.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/reports/matrix", h.Matrix)
	r.Get("/reports/matrix/export", h.Export)
	r.Get("/reports/summary", h.Summary)
}

// Matrix handles GET /api/v1/reports/matrix.
func (h *Handler) Matrix(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	matrix, err := h.service.BuildMatrix(r.Context(), filter)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": matrix})
}

// Summary handles GET /api/v1/reports/summary.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	summary, err := h.service.BuildSummary(r.Context(), filter)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": summary})
}

// Export handles GET /api/v1/reports/matrix/export and streams an XLSX file.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	matrix, err := h.service.BuildMatrix(r.Context(), filter)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="report.xlsx"`)
	if err := ExportXLSX(matrix, w); err != nil {
		// headers are already gone; nothing left to do but log upstream
		return
	}
	if obs.ReportExportsTotal != nil {
		obs.ReportExportsTotal.Inc()
	}
}

func parseFilter(r *http.Request) (Filter, error) {
	q := r.URL.Query()
	filter := Filter{ClientID: q.Get("clientId")}
	var err error
	if filter.From, err = parseDate(q.Get("from"), false); err != nil {
		return Filter{}, err
	}
	if filter.To, err = parseDate(q.Get("to"), true); err != nil {
		return Filter{}, err
	}
	return filter, nil
}

// parseDate accepts RFC 3339 timestamps or bare dates. A bare "to" date is
// pushed to the end of its day so the range is inclusive.
func parseDate(value string, endOfDay bool) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts, nil
	}
	day, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, common.NewAppError("VALIDATION", "invalid date filter", http.StatusBadRequest, err)
	}
	if endOfDay {
		day = day.Add(24*time.Hour - time.Nanosecond)
	}
	return day, nil
}
