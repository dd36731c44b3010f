package catalog

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/olehkv/backend-vzuttia/internal/pricing"
	"github.com/olehkv/backend-vzuttia/internal/store"
	"github.com/olehkv/backend-vzuttia/internal/tenant"
)

func newTestRouter(t *testing.T) (chi.Router, *store.Store) {
	t.Helper()
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, st.CreateCompany(
		store.Company{ID: "acme", Name: "Acme", IsActive: true, Created: time.Now().UTC()},
		store.CompanyDB{Settings: store.Settings{MainCurrency: pricing.USD}},
	))

	h := NewHandler(NewService(st, nil))
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(tenant.With(req.Context(), "acme")))
		})
	})
	h.Mount(r)
	return r, st
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestModelCRUD(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/models", ModelInput{
		SKU:   "AirStep-200",
		Color: "black",
		Price: decimal.RequireFromString("49.99"),
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Data store.Model `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.Data.ID)

	rec = doJSON(t, r, http.MethodGet, "/models", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Data []store.Model `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Data, 1)
	require.Equal(t, "AirStep-200", listed.Data[0].SKU)

	rec = doJSON(t, r, http.MethodPut, "/models/"+created.Data.ID, ModelInput{
		SKU:   "AirStep-200",
		Color: "white",
		Price: decimal.RequireFromString("52.00"),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodDelete, "/models/"+created.Data.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, r, http.MethodDelete, "/models/"+created.Data.ID, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateModelValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/models", ModelInput{Color: "red"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/models", map[string]any{"sku": "X", "price": "-5"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestClientCRUD(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/clients", ClientInput{
		Name:  "Olena",
		Phone: "+38 (050) 111-22-33",
		City:  "Lviv",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Data store.Client `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = doJSON(t, r, http.MethodPut, "/clients/"+created.Data.ID, ClientInput{Name: "Olena K", Phone: "+380501112233"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/clients", nil)
	var listed struct {
		Data []store.Client `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Data, 1)
	require.Equal(t, "Olena K", listed.Data[0].Name)

	rec = doJSON(t, r, http.MethodDelete, "/clients/"+created.Data.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestModelsSortedBySKU(t *testing.T) {
	r, st := newTestRouter(t)
	require.NoError(t, st.Update("acme", func(db *store.CompanyDB) error {
		db.Models = append(db.Models,
			store.Model{ID: "m2", SKU: "Zeta", Price: decimal.NewFromInt(10)},
			store.Model{ID: "m1", SKU: "Alpha", Price: decimal.NewFromInt(20)},
		)
		return nil
	}))

	rec := doJSON(t, r, http.MethodGet, "/models", nil)
	var listed struct {
		Data []store.Model `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Equal(t, []string{"Alpha", "Zeta"}, []string{listed.Data[0].SKU, listed.Data[1].SKU})
}
