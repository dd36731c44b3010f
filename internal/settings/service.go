// Package settings manages tenant configuration: the main currency, the
// exchange-rate table, size grids, box templates, and print defaults.
package settings

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/olehkv/backend-vzuttia/internal/common"
	"github.com/olehkv/backend-vzuttia/internal/events"
	"github.com/olehkv/backend-vzuttia/internal/obs"
	"github.com/olehkv/backend-vzuttia/internal/pricing"
	"github.com/olehkv/backend-vzuttia/internal/store"
	"github.com/olehkv/backend-vzuttia/internal/tenant"
)

// View is the settings payload returned to clients. It extends the stored
// settings with the derived EUR/USD cross rate for display.
type View struct {
	store.Settings
	CrossRateEURUSD *decimal.Decimal `json:"crossRateEurUsd,omitempty"`
}

// Input carries the writable settings fields. Nil fields stay untouched.
type Input struct {
	MainCurrency       *pricing.Currency                        `json:"mainCurrency"`
	SizeGrids          *[]store.SizeGrid                        `json:"sizeGrids"`
	DefaultSizeGridID  *int                                     `json:"defaultSizeGridId"`
	BoxTemplates       *map[string]map[string]store.BoxTemplate `json:"boxTemplates"`
	DefaultPrintCopies *int                                     `json:"defaultPrintCopies"`
	BrandName          *string                                  `json:"brandName"`
	BrandLogo          *string                                  `json:"brandLogo"`
}

// RatesInput carries direct UAH-per-unit rate edits.
type RatesInput struct {
	USD *decimal.Decimal `json:"usd"`
	EUR *decimal.Decimal `json:"eur"`
}

// CrossRateInput edits the rate table through a displayed cross rate. The
// quote currency's pivot rate stays fixed and the base rate is recomputed.
type CrossRateInput struct {
	Base  pricing.Currency `json:"base" validate:"required"`
	Quote pricing.Currency `json:"quote" validate:"required"`
	Cross decimal.Decimal  `json:"cross"`
}

// Service implements settings operations over the flat-file store.
type Service struct {
	Store *store.Store
	Bus   *events.Bus
}

// NewService constructs a Service.
func NewService(st *store.Store) *Service {
	return &Service{Store: st}
}

func companyFrom(ctx context.Context) (string, error) {
	companyID, ok := tenant.From(ctx)
	if !ok {
		return "", common.NewAppError("COMPANY_REQUIRED", "company identifier missing", http.StatusBadRequest, nil)
	}
	return companyID, nil
}

// Get returns the tenant settings with the derived cross rate.
func (s *Service) Get(ctx context.Context) (View, error) {
	companyID, err := companyFrom(ctx)
	if err != nil {
		return View{}, err
	}
	var view View
	err = s.Store.View(companyID, func(db *store.CompanyDB) error {
		view = buildView(db.Settings)
		return nil
	})
	if err != nil {
		return View{}, storeError(err)
	}
	return view, nil
}

// Update applies partial settings edits.
func (s *Service) Update(ctx context.Context, input Input) (View, error) {
	companyID, err := companyFrom(ctx)
	if err != nil {
		return View{}, err
	}
	if input.MainCurrency != nil && !pricing.Supported(*input.MainCurrency) {
		return View{}, common.NewAppError("VALIDATION", "unsupported currency", http.StatusUnprocessableEntity, nil)
	}
	if input.DefaultPrintCopies != nil && *input.DefaultPrintCopies < 1 {
		return View{}, common.NewAppError("VALIDATION", "print copies must be at least 1", http.StatusUnprocessableEntity, nil)
	}
	var view View
	err = s.Store.Update(companyID, func(db *store.CompanyDB) error {
		if input.MainCurrency != nil {
			db.Settings.MainCurrency = *input.MainCurrency
		}
		if input.SizeGrids != nil {
			db.Settings.SizeGrids = *input.SizeGrids
		}
		if input.DefaultSizeGridID != nil {
			db.Settings.DefaultSizeGridID = *input.DefaultSizeGridID
		}
		if input.BoxTemplates != nil {
			db.Settings.BoxTemplates = *input.BoxTemplates
		}
		if input.DefaultPrintCopies != nil {
			db.Settings.DefaultPrintCopies = *input.DefaultPrintCopies
		}
		if input.BrandName != nil {
			db.Settings.BrandName = strings.TrimSpace(*input.BrandName)
		}
		if input.BrandLogo != nil {
			db.Settings.BrandLogo = *input.BrandLogo
		}
		view = buildView(db.Settings)
		return nil
	})
	if err != nil {
		return View{}, storeError(err)
	}
	return view, nil
}

// UpdateRates edits the UAH-per-unit rate table directly. Rates must be
// positive; omitted fields stay untouched.
func (s *Service) UpdateRates(ctx context.Context, input RatesInput) (View, error) {
	companyID, err := companyFrom(ctx)
	if err != nil {
		return View{}, err
	}
	for _, rate := range []*decimal.Decimal{input.USD, input.EUR} {
		if rate != nil && !rate.IsPositive() {
			return View{}, common.NewAppError("VALIDATION", "exchange rates must be positive", http.StatusUnprocessableEntity, nil)
		}
	}
	var view View
	err = s.Store.Update(companyID, func(db *store.CompanyDB) error {
		if input.USD != nil {
			db.Settings.ExchangeRates.USD = *input.USD
		}
		if input.EUR != nil {
			db.Settings.ExchangeRates.EUR = *input.EUR
		}
		view = buildView(db.Settings)
		return nil
	})
	if err != nil {
		return View{}, storeError(err)
	}
	if obs.RateEditsTotal != nil {
		obs.RateEditsTotal.WithLabelValues("direct").Inc()
	}
	s.emitRates(ctx, view)
	return view, nil
}

// UpdateCrossRate edits the table through a displayed cross rate, holding the
// quote currency's pivot rate fixed and back-solving the base rate.
func (s *Service) UpdateCrossRate(ctx context.Context, input CrossRateInput) (View, error) {
	companyID, err := companyFrom(ctx)
	if err != nil {
		return View{}, err
	}
	var view View
	err = s.Store.Update(companyID, func(db *store.CompanyDB) error {
		updated, err := pricing.ApplyCrossRate(input.Base, input.Quote, input.Cross, db.Settings.ExchangeRates)
		if err != nil {
			return common.NewAppError("VALIDATION", err.Error(), http.StatusUnprocessableEntity, err)
		}
		db.Settings.ExchangeRates = updated
		view = buildView(db.Settings)
		return nil
	})
	if err != nil {
		return View{}, storeError(err)
	}
	if obs.RateEditsTotal != nil {
		obs.RateEditsTotal.WithLabelValues("cross").Inc()
	}
	s.emitRates(ctx, view)
	return view, nil
}

func (s *Service) emitRates(ctx context.Context, view View) {
	if s.Bus == nil {
		return
	}
	_, _ = s.Bus.Emit(ctx, events.TopicRatesUpdated, string(view.MainCurrency), view.ExchangeRates)
}

func buildView(s store.Settings) View {
	view := View{Settings: s}
	if cross, err := pricing.CrossRate(pricing.EUR, pricing.USD, s.ExchangeRates); err == nil {
		rounded := pricing.Round2(cross)
		view.CrossRateEURUSD = &rounded
	}
	return view
}

func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case common.IsAppError(err):
		return err
	case errors.Is(err, store.ErrCompanyNotFound):
		return common.NewAppError("COMPANY_NOT_FOUND", "unknown company", http.StatusNotFound, err)
	default:
		return err
	}
}
