// Package catalog manages the per-company shoe model list and the client
// directory orders are written against.
package catalog

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/olehkv/backend-vzuttia/internal/common"
	"github.com/olehkv/backend-vzuttia/internal/store"
	"github.com/olehkv/backend-vzuttia/internal/tenant"
)

// ModelInput carries the writable fields of a shoe model.
type ModelInput struct {
	SKU    string          `json:"sku" validate:"required"`
	Color  string          `json:"color"`
	Price  decimal.Decimal `json:"price"`
	GridID int             `json:"gridId"`
}

// ClientInput carries the writable fields of a client record.
type ClientInput struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone"`
	City  string `json:"city"`
}

// Service implements catalog operations over the flat-file store.
type Service struct {
	Store *store.Store
	Cache *Cache
}

// NewService constructs a Service.
func NewService(st *store.Store, cache *Cache) *Service {
	return &Service{Store: st, Cache: cache}
}

func companyFrom(ctx context.Context) (string, error) {
	companyID, ok := tenant.From(ctx)
	if !ok {
		return "", common.NewAppError("COMPANY_REQUIRED", "company identifier missing", http.StatusBadRequest, nil)
	}
	return companyID, nil
}

// ListModels returns all models sorted by SKU then color.
func (s *Service) ListModels(ctx context.Context) ([]store.Model, error) {
	companyID, err := companyFrom(ctx)
	if err != nil {
		return nil, err
	}
	if cached, ok := s.Cache.Models(ctx, companyID); ok {
		return cached, nil
	}
	var models []store.Model
	err = s.Store.View(companyID, func(db *store.CompanyDB) error {
		models = append([]store.Model(nil), db.Models...)
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}
	sort.Slice(models, func(i, j int) bool {
		if models[i].SKU != models[j].SKU {
			return models[i].SKU < models[j].SKU
		}
		return models[i].Color < models[j].Color
	})
	s.Cache.SetModels(ctx, companyID, models)
	return models, nil
}

// CreateModel adds a model to the catalog.
func (s *Service) CreateModel(ctx context.Context, input ModelInput) (store.Model, error) {
	companyID, err := companyFrom(ctx)
	if err != nil {
		return store.Model{}, err
	}
	if err := validateModelInput(input); err != nil {
		return store.Model{}, err
	}
	model := store.Model{
		ID:     uuid.NewString(),
		SKU:    strings.TrimSpace(input.SKU),
		Color:  strings.TrimSpace(input.Color),
		Price:  input.Price,
		GridID: input.GridID,
	}
	err = s.Store.Update(companyID, func(db *store.CompanyDB) error {
		db.Models = append(db.Models, model)
		return nil
	})
	if err != nil {
		return store.Model{}, storeError(err)
	}
	s.Cache.InvalidateModels(ctx, companyID)
	return model, nil
}

// UpdateModel replaces the writable fields of a model.
func (s *Service) UpdateModel(ctx context.Context, id string, input ModelInput) (store.Model, error) {
	companyID, err := companyFrom(ctx)
	if err != nil {
		return store.Model{}, err
	}
	if err := validateModelInput(input); err != nil {
		return store.Model{}, err
	}
	var updated store.Model
	err = s.Store.Update(companyID, func(db *store.CompanyDB) error {
		m := db.FindModel(id)
		if m == nil {
			return common.NewAppError("MODEL_NOT_FOUND", "model not found", http.StatusNotFound, store.ErrNotFound)
		}
		m.SKU = strings.TrimSpace(input.SKU)
		m.Color = strings.TrimSpace(input.Color)
		m.Price = input.Price
		m.GridID = input.GridID
		updated = *m
		return nil
	})
	if err != nil {
		return store.Model{}, storeError(err)
	}
	s.Cache.InvalidateModels(ctx, companyID)
	return updated, nil
}

// DeleteModel removes a model. Saved orders keep their line snapshots.
func (s *Service) DeleteModel(ctx context.Context, id string) error {
	companyID, err := companyFrom(ctx)
	if err != nil {
		return err
	}
	err = s.Store.Update(companyID, func(db *store.CompanyDB) error {
		for i := range db.Models {
			if db.Models[i].ID == id {
				db.Models = append(db.Models[:i], db.Models[i+1:]...)
				return nil
			}
		}
		return common.NewAppError("MODEL_NOT_FOUND", "model not found", http.StatusNotFound, store.ErrNotFound)
	})
	if err != nil {
		return storeError(err)
	}
	s.Cache.InvalidateModels(ctx, companyID)
	return nil
}

// ListClients returns all clients sorted by name.
func (s *Service) ListClients(ctx context.Context) ([]store.Client, error) {
	companyID, err := companyFrom(ctx)
	if err != nil {
		return nil, err
	}
	var clients []store.Client
	err = s.Store.View(companyID, func(db *store.CompanyDB) error {
		clients = append([]store.Client(nil), db.Clients...)
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].Name < clients[j].Name })
	return clients, nil
}

// CreateClient adds a client record.
func (s *Service) CreateClient(ctx context.Context, input ClientInput) (store.Client, error) {
	companyID, err := companyFrom(ctx)
	if err != nil {
		return store.Client{}, err
	}
	client := store.Client{
		ID:    uuid.NewString(),
		Name:  strings.TrimSpace(input.Name),
		Phone: strings.TrimSpace(input.Phone),
		City:  strings.TrimSpace(input.City),
	}
	if client.Name == "" {
		return store.Client{}, common.NewAppError("VALIDATION", "client name is required", http.StatusUnprocessableEntity, nil)
	}
	err = s.Store.Update(companyID, func(db *store.CompanyDB) error {
		db.Clients = append(db.Clients, client)
		return nil
	})
	if err != nil {
		return store.Client{}, storeError(err)
	}
	return client, nil
}

// UpdateClient replaces the writable fields of a client.
func (s *Service) UpdateClient(ctx context.Context, id string, input ClientInput) (store.Client, error) {
	companyID, err := companyFrom(ctx)
	if err != nil {
		return store.Client{}, err
	}
	var updated store.Client
	err = s.Store.Update(companyID, func(db *store.CompanyDB) error {
		c := db.FindClient(id)
		if c == nil {
			return common.NewAppError("CLIENT_NOT_FOUND", "client not found", http.StatusNotFound, store.ErrNotFound)
		}
		c.Name = strings.TrimSpace(input.Name)
		c.Phone = strings.TrimSpace(input.Phone)
		c.City = strings.TrimSpace(input.City)
		updated = *c
		return nil
	})
	if err != nil {
		return store.Client{}, storeError(err)
	}
	return updated, nil
}

// DeleteClient removes a client. Orders referencing it keep their snapshot
// and fall back to phone-based grouping in reports.
func (s *Service) DeleteClient(ctx context.Context, id string) error {
	companyID, err := companyFrom(ctx)
	if err != nil {
		return err
	}
	err = s.Store.Update(companyID, func(db *store.CompanyDB) error {
		for i := range db.Clients {
			if db.Clients[i].ID == id {
				db.Clients = append(db.Clients[:i], db.Clients[i+1:]...)
				return nil
			}
		}
		return common.NewAppError("CLIENT_NOT_FOUND", "client not found", http.StatusNotFound, store.ErrNotFound)
	})
	return storeError(err)
}

func validateModelInput(input ModelInput) error {
	if strings.TrimSpace(input.SKU) == "" {
		return common.NewAppError("VALIDATION", "sku is required", http.StatusUnprocessableEntity, nil)
	}
	if input.Price.IsNegative() {
		return common.NewAppError("VALIDATION", "price must not be negative", http.StatusUnprocessableEntity, nil)
	}
	return nil
}

func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case common.IsAppError(err):
		return err
	case errors.Is(err, store.ErrCompanyNotFound):
		return common.NewAppError("COMPANY_NOT_FOUND", "unknown company", http.StatusNotFound, err)
	case errors.Is(err, store.ErrNotFound):
		return common.NewAppError("NOT_FOUND", "not found", http.StatusNotFound, err)
	default:
		return err
	}
}
