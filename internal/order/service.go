// Package order implements order capture: line assembly from the catalog,
// pricing, settlement, client snapshots, and sequential numbering.
package order

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/olehkv/backend-vzuttia/internal/common"
	"github.com/olehkv/backend-vzuttia/internal/events"
	"github.com/olehkv/backend-vzuttia/internal/obs"
	"github.com/olehkv/backend-vzuttia/internal/pricing"
	"github.com/olehkv/backend-vzuttia/internal/store"
	"github.com/olehkv/backend-vzuttia/internal/tenant"
)

// LineInput is one order line as sent by clients. A nil price means "use the
// catalog price of the referenced model".
type LineInput struct {
	ModelID  string           `json:"modelId"`
	SKU      string           `json:"sku"`
	Color    string           `json:"color"`
	Price    *decimal.Decimal `json:"price"`
	Discount decimal.Decimal  `json:"discountPerUnit"`
	Qty      int              `json:"qty" validate:"min=1"`
	Sizes    map[string]int   `json:"sizes"`
}

// PaymentInput is the prepayment block of an order request.
type PaymentInput struct {
	Amount   decimal.Decimal  `json:"amount"`
	Currency pricing.Currency `json:"currency"`
}

// Input is the write payload for creating or replacing an order.
type Input struct {
	ClientID     string          `json:"clientId"`
	ClientName   string          `json:"clientName"`
	ClientPhone  string          `json:"clientPhone"`
	ClientCity   string          `json:"clientCity"`
	Note         string          `json:"note"`
	Items        []LineInput     `json:"items" validate:"required,min=1,dive"`
	LumpDiscount decimal.Decimal `json:"lumpDiscount"`
	Payment      PaymentInput    `json:"payment"`
}

// PreviewInput extends Input with the previous payment currency so a currency
// switch in the entry form can rescale a full payment server-side.
type PreviewInput struct {
	Input
	PreviousCurrency pricing.Currency `json:"previousCurrency"`
}

// Preview is the computed pricing of an unsaved order.
type Preview struct {
	Totals        pricing.Totals             `json:"totals"`
	Settlement    pricing.Settlement         `json:"settlement"`
	Payment       pricing.Payment            `json:"payment"`
	IsFullPayment bool                       `json:"isFullPayment"`
	MainCurrency  pricing.Currency           `json:"mainCurrency"`
	FullPrices    map[string]decimal.Decimal `json:"fullPrices"`
	Items         []pricing.LineItem         `json:"items"`
}

// Service implements order operations over the flat-file store.
type Service struct {
	Store       *store.Store
	Bus         *events.Bus
	StrictRates bool
	Now         func() time.Time
}

// NewService constructs a Service.
func NewService(st *store.Store, bus *events.Bus, strictRates bool) *Service {
	return &Service{Store: st, Bus: bus, StrictRates: strictRates}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func companyFrom(ctx context.Context) (string, error) {
	companyID, ok := tenant.From(ctx)
	if !ok {
		return "", common.NewAppError("COMPANY_REQUIRED", "company identifier missing", http.StatusBadRequest, nil)
	}
	return companyID, nil
}

// List returns orders sorted by display number, newest first. An optional
// client id narrows the result.
func (s *Service) List(ctx context.Context, clientID string) ([]store.Order, error) {
	companyID, err := companyFrom(ctx)
	if err != nil {
		return nil, err
	}
	var orders []store.Order
	err = s.Store.View(companyID, func(db *store.CompanyDB) error {
		for _, o := range db.Orders {
			if clientID != "" && o.ClientID != clientID {
				continue
			}
			orders = append(orders, o)
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].Number > orders[j].Number })
	return orders, nil
}

// Get returns one order by id.
func (s *Service) Get(ctx context.Context, id string) (store.Order, error) {
	companyID, err := companyFrom(ctx)
	if err != nil {
		return store.Order{}, err
	}
	var found store.Order
	err = s.Store.View(companyID, func(db *store.CompanyDB) error {
		o := db.FindOrder(id)
		if o == nil {
			return errOrderNotFound()
		}
		found = *o
		return nil
	})
	if err != nil {
		return store.Order{}, storeError(err)
	}
	return found, nil
}

// Preview prices an unsaved order without touching the store.
func (s *Service) Preview(ctx context.Context, input PreviewInput) (Preview, error) {
	companyID, err := companyFrom(ctx)
	if err != nil {
		return Preview{}, err
	}
	var preview Preview
	err = s.Store.View(companyID, func(db *store.CompanyDB) error {
		pc := s.pricingContext(db.Settings)
		cart, err := buildCart(db, input.Items)
		if err != nil {
			return err
		}
		totals := pricing.ComputeTotals(*cart, input.LumpDiscount)
		payment := normalizePayment(input.Payment, pc.MainCurrency)

		// a currency switch keeps a full payment full in the new currency
		if input.PreviousCurrency != "" && input.PreviousCurrency != payment.Currency {
			payment.Amount = pc.RescaleFullPayment(totals.Net, payment.Amount, input.PreviousCurrency, payment.Currency)
		}

		settlement, err := pc.Settle(totals.Net, payment)
		if err != nil {
			return settleError(err)
		}
		preview = Preview{
			Totals:        totals,
			Settlement:    settlement,
			Payment:       payment,
			IsFullPayment: pc.IsFullPayment(totals.Net, payment.Amount, payment.Currency),
			MainCurrency:  pc.MainCurrency,
			FullPrices:    fullPrices(pc, totals.Net),
			Items:         cart.Items,
		}
		return nil
	})
	if err != nil {
		return Preview{}, storeError(err)
	}
	return preview, nil
}

// Create prices and persists a new order, upserting the client record and
// assigning the next sequential display number.
func (s *Service) Create(ctx context.Context, input Input) (store.Order, error) {
	companyID, err := companyFrom(ctx)
	if err != nil {
		return store.Order{}, err
	}
	var saved store.Order
	err = s.Store.Update(companyID, func(db *store.CompanyDB) error {
		o, err := s.assemble(db, input)
		if err != nil {
			return err
		}
		o.ID = uuid.NewString()
		o.Number = db.NextOrderNumber()
		o.CreatedAt = s.now()
		db.Orders = append(db.Orders, *o)
		saved = *o
		return nil
	})
	if err != nil {
		return store.Order{}, storeError(err)
	}
	s.emit(ctx, events.TopicOrderCreated, saved)
	return saved, nil
}

// Update reprices and replaces an existing order, keeping its display number
// and creation date.
func (s *Service) Update(ctx context.Context, id string, input Input) (store.Order, error) {
	companyID, err := companyFrom(ctx)
	if err != nil {
		return store.Order{}, err
	}
	var saved store.Order
	err = s.Store.Update(companyID, func(db *store.CompanyDB) error {
		existing := db.FindOrder(id)
		if existing == nil {
			return errOrderNotFound()
		}
		o, err := s.assemble(db, input)
		if err != nil {
			return err
		}
		o.ID = existing.ID
		o.Number = existing.Number
		o.CreatedAt = existing.CreatedAt
		o.UpdatedAt = s.now()
		*existing = *o
		saved = *o
		return nil
	})
	if err != nil {
		return store.Order{}, storeError(err)
	}
	s.emit(ctx, events.TopicOrderUpdated, saved)
	return saved, nil
}

// Delete removes an order permanently.
func (s *Service) Delete(ctx context.Context, id string) error {
	companyID, err := companyFrom(ctx)
	if err != nil {
		return err
	}
	var deleted store.Order
	err = s.Store.Update(companyID, func(db *store.CompanyDB) error {
		for i := range db.Orders {
			if db.Orders[i].ID == id {
				deleted = db.Orders[i]
				db.Orders = append(db.Orders[:i], db.Orders[i+1:]...)
				return nil
			}
		}
		return errOrderNotFound()
	})
	if err != nil {
		return storeError(err)
	}
	s.emit(ctx, events.TopicOrderDeleted, deleted)
	return nil
}

// assemble builds a priced order from the input against the current document
// state. It mutates db only through the client upsert.
func (s *Service) assemble(db *store.CompanyDB, input Input) (*store.Order, error) {
	pc := s.pricingContext(db.Settings)
	cart, err := buildCart(db, input.Items)
	if err != nil {
		return nil, err
	}
	totals := pricing.ComputeTotals(*cart, input.LumpDiscount)
	payment := normalizePayment(input.Payment, pc.MainCurrency)
	settlement, err := pc.Settle(totals.Net, payment)
	if err != nil {
		return nil, settleError(err)
	}
	if totals.Clamped && obs.OrderTotalClamped != nil {
		obs.OrderTotalClamped.Inc()
	}
	if payment.Amount.IsPositive() && settlement.PrepaymentInMain.IsZero() && payment.Currency != pc.MainCurrency {
		if _, ok := pc.Rates.ToPivot(payment.Currency); !ok && obs.PrepaymentRateFallback != nil {
			obs.PrepaymentRateFallback.Inc()
		}
	}

	client, err := resolveClient(db, input)
	if err != nil {
		return nil, err
	}

	o := &store.Order{
		Note:         strings.TrimSpace(input.Note),
		Items:        cart.Items,
		LumpDiscount: totals.LumpDiscount,
		Gross:        totals.Gross,
		Discount:     totals.Discount,
		Total:        totals.Net,
		MainCurrency: pc.MainCurrency,
		Payment: store.Payment{
			OriginalAmount:   payment.Amount,
			OriginalCurrency: payment.Currency,
			PrepaymentInMain: settlement.PrepaymentInMain,
		},
	}
	if client != nil {
		o.ClientID = client.ID
		o.ClientName = client.Name
		o.ClientPhone = client.Phone
		o.ClientCity = client.City
	}
	return o, nil
}

func (s *Service) pricingContext(settings store.Settings) pricing.Context {
	pc := settings.PricingContext()
	pc.StrictRates = s.StrictRates
	return pc
}

func (s *Service) emit(ctx context.Context, topic string, o store.Order) {
	if obs.OrdersSavedTotal != nil {
		action := strings.TrimPrefix(topic, "order.")
		obs.OrdersSavedTotal.WithLabelValues(action, "ok").Inc()
	}
	if s.Bus == nil {
		return
	}
	_, _ = s.Bus.Emit(ctx, topic, o.ID, map[string]any{
		"orderId":  o.ID,
		"number":   o.Number,
		"total":    o.Total,
		"currency": o.MainCurrency,
	})
}

// buildCart turns line inputs into priced lines, filling SKU, color, and unit
// price from the catalog when the line references a model.
func buildCart(db *store.CompanyDB, lines []LineInput) (*pricing.Cart, error) {
	if len(lines) == 0 {
		return nil, common.NewAppError("VALIDATION", "order needs at least one item", http.StatusUnprocessableEntity, nil)
	}
	cart := &pricing.Cart{}
	for _, line := range lines {
		item := pricing.LineItem{
			ModelID:         line.ModelID,
			SKU:             strings.TrimSpace(line.SKU),
			Color:           strings.TrimSpace(line.Color),
			DiscountPerUnit: line.Discount,
			Quantity:        line.Qty,
			Sizes:           line.Sizes,
		}
		if line.Price != nil {
			item.UnitPrice = *line.Price
		}
		if line.ModelID != "" {
			model := db.FindModel(line.ModelID)
			if model == nil {
				return nil, common.NewAppError("MODEL_NOT_FOUND", "order references an unknown model", http.StatusUnprocessableEntity, store.ErrNotFound)
			}
			if item.SKU == "" {
				item.SKU = model.SKU
			}
			if item.Color == "" {
				item.Color = model.Color
			}
			if line.Price == nil {
				item.UnitPrice = model.Price
			}
		} else if line.Price == nil {
			return nil, common.NewAppError("VALIDATION", "free-form items need an explicit price", http.StatusUnprocessableEntity, nil)
		}
		if err := cart.Add(item); err != nil {
			return nil, common.NewAppError("VALIDATION", err.Error(), http.StatusUnprocessableEntity, err)
		}
	}
	return cart, nil
}

// resolveClient finds or creates the client record for the order. Returns nil
// when the order carries no client information at all.
func resolveClient(db *store.CompanyDB, input Input) (*store.Client, error) {
	if input.ClientID != "" {
		c := db.FindClient(input.ClientID)
		if c == nil {
			return nil, common.NewAppError("CLIENT_NOT_FOUND", "order references an unknown client", http.StatusUnprocessableEntity, store.ErrNotFound)
		}
		return c, nil
	}
	name := strings.TrimSpace(input.ClientName)
	phone := strings.TrimSpace(input.ClientPhone)
	city := strings.TrimSpace(input.ClientCity)
	if name == "" && phone == "" {
		return nil, nil
	}
	if digits := phoneDigits(phone); digits != "" {
		for i := range db.Clients {
			if phoneDigits(db.Clients[i].Phone) == digits {
				if name != "" {
					db.Clients[i].Name = name
				}
				if city != "" {
					db.Clients[i].City = city
				}
				return &db.Clients[i], nil
			}
		}
	}
	client := store.Client{ID: uuid.NewString(), Name: name, Phone: phone, City: city}
	db.Clients = append(db.Clients, client)
	return &db.Clients[len(db.Clients)-1], nil
}

func phoneDigits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func normalizePayment(input PaymentInput, main pricing.Currency) pricing.Payment {
	currency := input.Currency
	if currency == "" {
		currency = main
	}
	amount := input.Amount
	if amount.IsNegative() {
		amount = decimal.Decimal{}
	}
	return pricing.Payment{Amount: amount, Currency: currency}
}

// fullPrices restates the net total in every currency with a usable rate,
// rounded for entry fields.
func fullPrices(pc pricing.Context, net decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, c := range []pricing.Currency{pricing.UAH, pricing.USD, pricing.EUR} {
		if full, err := pc.FullPriceIn(net, c); err == nil {
			out[string(c)] = pricing.Round2(full)
		}
	}
	return out
}

func errOrderNotFound() error {
	return common.NewAppError("ORDER_NOT_FOUND", "order not found", http.StatusNotFound, store.ErrNotFound)
}

func settleError(err error) error {
	if pricing.IsRateUnavailable(err) {
		return common.NewAppError("RATE_UNAVAILABLE", err.Error(), http.StatusUnprocessableEntity, err)
	}
	return err
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
