package pricing

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidQuantity is returned when a line item quantity is not a positive integer.
	ErrInvalidQuantity = errors.New("line item quantity must be a positive integer")
	// ErrNegativeAmount is returned when a unit price or discount is negative.
	ErrNegativeAmount = errors.New("money amounts must not be negative")
	// ErrSizeBreakdownMismatch is returned when the size breakdown does not sum to the quantity.
	ErrSizeBreakdownMismatch = errors.New("size breakdown does not sum to line quantity")
)

// LineItem is a value copy of catalog fields at the moment of sale. Catalog
// price changes never retroactively alter a line that was already added.
type LineItem struct {
	ModelID         string          `json:"modelId"`
	SKU             string          `json:"sku"`
	Color           string          `json:"color"`
	UnitPrice       decimal.Decimal `json:"price"`
	DiscountPerUnit decimal.Decimal `json:"discountPerUnit"`
	Quantity        int             `json:"qty"`
	Sizes           map[string]int  `json:"sizes,omitempty"`
}

// Validate checks the structural invariants of a line item.
func (li LineItem) Validate() error {
	if li.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if li.UnitPrice.IsNegative() || li.DiscountPerUnit.IsNegative() {
		return ErrNegativeAmount
	}
	if len(li.Sizes) > 0 {
		sum := 0
		for _, q := range li.Sizes {
			if q < 0 {
				return ErrInvalidQuantity
			}
			sum += q
		}
		if sum != li.Quantity {
			return ErrSizeBreakdownMismatch
		}
	}
	return nil
}

// Total is the line contribution to the order: (unit price - discount) * qty.
func (li LineItem) Total() decimal.Decimal {
	return li.UnitPrice.Sub(li.DiscountPerUnit).Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// SizeNote renders the size breakdown as "40(2), 41(4)" with sizes sorted
// numerically, matching the note printed on invoices.
func (li LineItem) SizeNote() string {
	if len(li.Sizes) == 0 {
		return ""
	}
	labels := make([]string, 0, len(li.Sizes))
	for label := range li.Sizes {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		a, errA := strconv.Atoi(labels[i])
		b, errB := strconv.Atoi(labels[j])
		if errA != nil || errB != nil {
			return labels[i] < labels[j]
		}
		return a < b
	})
	parts := make([]string, 0, len(labels))
	for _, label := range labels {
		parts = append(parts, label+"("+strconv.Itoa(li.Sizes[label])+")")
	}
	return strings.Join(parts, ", ")
}

// Cart is an ordered collection of line items under construction.
type Cart struct {
	Items []LineItem `json:"items"`
}

// Add validates the item and appends it to the cart. Adding a model that is
// already present merges quantities and size breakdowns additively into the
// existing line; the existing line's per-unit discount is kept as-is and
// reapplied to the combined quantity, never averaged or summed. Free-form
// items carry no model id and always get their own line.
func (c *Cart) Add(item LineItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	for i := range c.Items {
		if item.ModelID == "" || c.Items[i].ModelID != item.ModelID {
			continue
		}
		merged := c.Items[i]
		if merged.Sizes == nil && len(item.Sizes) > 0 {
			merged.Sizes = map[string]int{}
		} else if merged.Sizes != nil {
			clone := make(map[string]int, len(merged.Sizes))
			for k, v := range merged.Sizes {
				clone[k] = v
			}
			merged.Sizes = clone
		}
		for size, qty := range item.Sizes {
			merged.Sizes[size] += qty
		}
		merged.Quantity += item.Quantity
		c.Items[i] = merged
		return nil
	}
	c.Items = append(c.Items, item)
	return nil
}

// Quantity returns the total number of pairs across all lines.
func (c Cart) Quantity() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// Totals aggregates the computed pricing components of a cart.
type Totals struct {
	Gross        decimal.Decimal `json:"gross"`
	ItemDiscount decimal.Decimal `json:"itemDiscount"`
	LumpDiscount decimal.Decimal `json:"lumpDiscount"`
	Discount     decimal.Decimal `json:"discount"`
	RawNet       decimal.Decimal `json:"-"`
	Net          decimal.Decimal `json:"net"`
	Quantity     int             `json:"quantity"`
	Clamped      bool            `json:"-"`
}

// ComputeTotals folds the cart plus a lump-sum discount into gross, discount
// and net figures, all denominated in the catalog's currency. Over-discounting
// clamps the net total at zero rather than producing a negative invoice; the
// pre-clamp value stays observable through RawNet/Clamped.
func ComputeTotals(c Cart, lumpDiscount decimal.Decimal) Totals {
	var gross, itemDiscount decimal.Decimal
	qty := 0
	for _, item := range c.Items {
		n := decimal.NewFromInt(int64(item.Quantity))
		gross = gross.Add(item.UnitPrice.Mul(n))
		itemDiscount = itemDiscount.Add(item.DiscountPerUnit.Mul(n))
		qty += item.Quantity
	}
	if lumpDiscount.IsNegative() {
		lumpDiscount = decimal.Decimal{}
	}
	discount := itemDiscount.Add(lumpDiscount)
	rawNet := gross.Sub(discount)
	net := rawNet
	clamped := false
	if net.IsNegative() {
		net = decimal.Decimal{}
		clamped = true
	}
	return Totals{
		Gross:        gross,
		ItemDiscount: itemDiscount,
		LumpDiscount: lumpDiscount,
		Discount:     discount,
		RawNet:       rawNet,
		Net:          net,
		Quantity:     qty,
		Clamped:      clamped,
	}
}
