// Package report aggregates saved orders into per-client, per-model-size
// pivot tables and summary figures.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/olehkv/backend-vzuttia/internal/common"
	"github.com/olehkv/backend-vzuttia/internal/pricing"
	"github.com/olehkv/backend-vzuttia/internal/store"
	"github.com/olehkv/backend-vzuttia/internal/tenant"
)

const unknownName = "unknown"

// Filter narrows the order set a report is built from.
type Filter struct {
	From     time.Time
	To       time.Time
	ClientID string
}

// Column describes one pivot column group: a distinct sku::color pair with
// the sizes observed for it across the filtered orders.
type Column struct {
	Key      string   `json:"key"`
	SKU      string   `json:"sku"`
	Color    string   `json:"color"`
	Sizes    []string `json:"sizes"`
	Quantity int      `json:"quantity"`
}

// Row is one report row: a client group with running totals and the
// per-model size histograms feeding the pivot cells.
type Row struct {
	Key        string                    `json:"key"`
	Name       string                    `json:"name"`
	Phone      string                    `json:"phone,omitempty"`
	Orders     int                       `json:"orders"`
	Quantity   int                       `json:"quantity"`
	Discount   decimal.Decimal           `json:"discount"`
	Prepayment decimal.Decimal           `json:"prepayment"`
	Total      decimal.Decimal           `json:"total"`
	Remaining  decimal.Decimal           `json:"remaining"`
	Models     map[string]map[string]int `json:"models"`
}

// Summary carries the grand totals across the filtered order set.
type Summary struct {
	Orders     int             `json:"orders"`
	Quantity   int             `json:"quantity"`
	Gross      decimal.Decimal `json:"gross"`
	Discount   decimal.Decimal `json:"discount"`
	Net        decimal.Decimal `json:"net"`
	Prepayment decimal.Decimal `json:"prepayment"`
	Remaining  decimal.Decimal `json:"remaining"`
}

// Matrix is the full pivot report.
type Matrix struct {
	MainCurrency pricing.Currency `json:"mainCurrency"`
	Columns      []Column         `json:"columns"`
	Rows         []Row            `json:"rows"`
	Summary      Summary          `json:"summary"`
}

// Service builds reports from the flat-file store. When R is set, summary
// results are cached for TTL to keep dashboard polling off the document
// files.
type Service struct {
	Store *store.Store
	R     *redis.Client
	TTL   time.Duration
}

// NewService constructs a Service without caching.
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

// BuildMatrix assembles the pivot report for the filtered order set.
func (s *Service) BuildMatrix(ctx context.Context, filter Filter) (Matrix, error) {
	companyID, err := companyFrom(ctx)
	if err != nil {
		return Matrix{}, err
	}
	var matrix Matrix
	err = s.Store.View(companyID, func(db *store.CompanyDB) error {
		matrix = buildMatrix(db, filter)
		return nil
	})
	if err != nil {
		return Matrix{}, storeError(err)
	}
	return matrix, nil
}

// BuildSummary returns only the grand totals for the filtered order set.
func (s *Service) BuildSummary(ctx context.Context, filter Filter) (Summary, error) {
	companyID, err := companyFrom(ctx)
	if err != nil {
		return Summary{}, err
	}
	key := summaryKey(companyID, filter)
	if summary, ok := s.summaryFromCache(ctx, key); ok {
		return summary, nil
	}
	matrix, err := s.BuildMatrix(ctx, filter)
	if err != nil {
		return Summary{}, err
	}
	s.storeSummary(ctx, key, matrix.Summary)
	return matrix.Summary, nil
}

func summaryKey(companyID string, filter Filter) string {
	parts := []string{"report:summary"}
	if !filter.From.IsZero() {
		parts = append(parts, filter.From.Format(time.RFC3339))
	}
	if !filter.To.IsZero() {
		parts = append(parts, filter.To.Format(time.RFC3339))
	}
	if filter.ClientID != "" {
		parts = append(parts, filter.ClientID)
	}
	return tenant.PrefixKey(companyID, strings.Join(parts, ":"))
}

func (s *Service) summaryFromCache(ctx context.Context, key string) (Summary, bool) {
	if s.R == nil || s.TTL <= 0 {
		return Summary{}, false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		return Summary{}, false
	}
	var summary Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return Summary{}, false
	}
	return summary, true
}

func (s *Service) storeSummary(ctx context.Context, key string, summary Summary) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return
	}
	_ = s.R.Set(ctx, key, data, s.TTL).Err()
}

func buildMatrix(db *store.CompanyDB, filter Filter) Matrix {
	main := db.Settings.MainCurrency
	if main == "" {
		main = pricing.USD
	}

	rowIndex := map[string]*Row{}
	var rowOrder []string
	colQty := map[string]int{}
	colSizes := map[string]map[string]bool{}
	colMeta := map[string][2]string{}
	summary := Summary{}

	for _, o := range db.Orders {
		if !matches(o, filter) {
			continue
		}
		key := groupKey(o)
		row, ok := rowIndex[key]
		if !ok {
			row = &Row{Key: key, Name: unknownName, Models: map[string]map[string]int{}}
			rowIndex[key] = row
			rowOrder = append(rowOrder, key)
		}
		if row.Name == unknownName && strings.TrimSpace(o.ClientName) != "" {
			row.Name = o.ClientName
		}
		if row.Phone == "" {
			row.Phone = o.ClientPhone
		}

		prepay := prepaymentInMain(o)
		discount := o.Discount.Abs()

		row.Orders++
		row.Quantity += o.Quantity()
		row.Discount = row.Discount.Add(discount)
		row.Prepayment = row.Prepayment.Add(prepay)
		row.Total = row.Total.Add(o.Total)

		summary.Orders++
		summary.Quantity += o.Quantity()
		summary.Gross = summary.Gross.Add(o.Gross)
		summary.Discount = summary.Discount.Add(discount)
		summary.Net = summary.Net.Add(o.Total)
		summary.Prepayment = summary.Prepayment.Add(prepay)

		for _, item := range o.Items {
			colKey := item.SKU + "::" + item.Color
			colQty[colKey] += item.Quantity
			colMeta[colKey] = [2]string{item.SKU, item.Color}
			if colSizes[colKey] == nil {
				colSizes[colKey] = map[string]bool{}
			}
			cell := row.Models[colKey]
			if cell == nil {
				cell = map[string]int{}
				row.Models[colKey] = cell
			}
			if len(item.Sizes) == 0 {
				colSizes[colKey][""] = true
				cell[""] += item.Quantity
				continue
			}
			for size, qty := range item.Sizes {
				colSizes[colKey][size] = true
				cell[size] += qty
			}
		}
	}

	rows := make([]Row, 0, len(rowOrder))
	for _, key := range rowOrder {
		row := rowIndex[key]
		row.Remaining = row.Total.Sub(row.Prepayment)
		if row.Remaining.IsNegative() {
			row.Remaining = decimal.Decimal{}
		}
		rows = append(rows, *row)
	}
	summary.Remaining = summary.Net.Sub(summary.Prepayment)
	if summary.Remaining.IsNegative() {
		summary.Remaining = decimal.Decimal{}
	}

	columns := make([]Column, 0, len(colQty))
	for key, meta := range colMeta {
		columns = append(columns, Column{
			Key:      key,
			SKU:      meta[0],
			Color:    meta[1],
			Sizes:    sortedSizes(colSizes[key]),
			Quantity: colQty[key],
		})
	}
	sort.Slice(columns, func(i, j int) bool { return columns[i].Key < columns[j].Key })

	return Matrix{MainCurrency: main, Columns: columns, Rows: rows, Summary: summary}
}

// groupKey resolves the client grouping key: stable client id, then
// digits-only phone, then a synthetic per-order key.
func groupKey(o store.Order) string {
	if o.ClientID != "" {
		return o.ClientID
	}
	if digits := phoneDigits(o.ClientPhone); digits != "" {
		return digits
	}
	return "unknown-" + o.ID
}

// prepaymentInMain prefers the precomputed main-currency figure, falls back
// to the raw amount only when its currency matches the order's main currency,
// and otherwise contributes nothing.
func prepaymentInMain(o store.Order) decimal.Decimal {
	if o.Payment.PrepaymentInMain.IsPositive() {
		return o.Payment.PrepaymentInMain
	}
	if o.Payment.OriginalCurrency == o.MainCurrency {
		return o.Payment.OriginalAmount
	}
	return decimal.Decimal{}
}

func matches(o store.Order, filter Filter) bool {
	if filter.ClientID != "" && o.ClientID != filter.ClientID {
		return false
	}
	if !filter.From.IsZero() && o.CreatedAt.Before(filter.From) {
		return false
	}
	if !filter.To.IsZero() && o.CreatedAt.After(filter.To) {
		return false
	}
	return true
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

func sortedSizes(set map[string]bool) []string {
	sizes := make([]string, 0, len(set))
	for size := range set {
		sizes = append(sizes, size)
	}
	sort.Slice(sizes, func(i, j int) bool {
		a, errA := strconv.Atoi(sizes[i])
		b, errB := strconv.Atoi(sizes[j])
		if errA != nil || errB != nil {
			return sizes[i] < sizes[j]
		}
		return a < b
	})
	return sizes
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
