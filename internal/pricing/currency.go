// Package pricing implements the order pricing and multi-currency settlement
// calculator. Every function is a pure transformation over its inputs; rate
// state travels inside an explicit Context and amounts stay unrounded until
// presentation.
package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency identifies one of the supported currency codes.
type Currency string

const (
	// UAH is the fixed pivot currency all conversions are routed through.
	UAH Currency = "UAH"
	// USD is the United States dollar.
	USD Currency = "USD"
	// EUR is the euro.
	EUR Currency = "EUR"
)

// Supported reports whether the code is one of the known currencies.
func Supported(c Currency) bool {
	switch c {
	case UAH, USD, EUR:
		return true
	}
	return false
}

// RateTable holds exchange rates expressed as "UAH per one foreign unit".
// A zero value means the rate is unknown and conversions through it fail.
type RateTable struct {
	USD decimal.Decimal `json:"usd"`
	EUR decimal.Decimal `json:"eur"`
}

// ToPivot returns how many UAH one unit of c buys. The second return value is
// false when the rate is missing or non-positive.
func (t RateTable) ToPivot(c Currency) (decimal.Decimal, bool) {
	switch c {
	case UAH:
		return decimal.NewFromInt(1), true
	case USD:
		return t.USD, t.USD.IsPositive()
	case EUR:
		return t.EUR, t.EUR.IsPositive()
	}
	return decimal.Decimal{}, false
}

// RateUnavailableError indicates a conversion touched a currency whose rate is
// zero or missing. It is distinct from an amount that is legitimately zero.
type RateUnavailableError struct {
	Currency Currency
}

func (e *RateUnavailableError) Error() string {
	return fmt.Sprintf("exchange rate unavailable for %s", e.Currency)
}

// IsRateUnavailable reports whether err wraps a RateUnavailableError.
func IsRateUnavailable(err error) bool {
	var target *RateUnavailableError
	return errors.As(err, &target)
}

// Convert translates amount from one currency to another through the UAH
// pivot. Identity conversions return the amount untouched without consulting
// the table, so a broken rate never perturbs a same-currency figure.
func Convert(amount decimal.Decimal, from, to Currency, rates RateTable) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}
	fromRate, ok := rates.ToPivot(from)
	if !ok {
		return decimal.Decimal{}, &RateUnavailableError{Currency: from}
	}
	toRate, ok := rates.ToPivot(to)
	if !ok {
		return decimal.Decimal{}, &RateUnavailableError{Currency: to}
	}
	return amount.Mul(fromRate).Div(toRate), nil
}

// CrossRate derives how many units of quote one unit of base is worth, e.g.
// CrossRate(EUR, USD, rates) answers "1 EUR = ? USD". The figure is synthetic:
// it is never stored, only displayed.
func CrossRate(base, quote Currency, rates RateTable) (decimal.Decimal, error) {
	baseRate, ok := rates.ToPivot(base)
	if !ok {
		return decimal.Decimal{}, &RateUnavailableError{Currency: base}
	}
	quoteRate, ok := rates.ToPivot(quote)
	if !ok {
		return decimal.Decimal{}, &RateUnavailableError{Currency: quote}
	}
	return baseRate.Div(quoteRate), nil
}

// ApplyCrossRate returns a copy of rates where the base currency's UAH rate is
// re-derived so that "1 base = cross quote" holds. Exactly one underlying rate
// changes: editing a cross rate removes a single degree of freedom, it never
// stores the cross rate itself.
func ApplyCrossRate(base, quote Currency, cross decimal.Decimal, rates RateTable) (RateTable, error) {
	if !cross.IsPositive() {
		return rates, errors.New("cross rate must be positive")
	}
	if base == quote {
		return rates, errors.New("cross rate requires two distinct currencies")
	}
	if base == UAH {
		return rates, errors.New("pivot currency rate is fixed")
	}
	quoteRate, ok := rates.ToPivot(quote)
	if !ok {
		return rates, &RateUnavailableError{Currency: quote}
	}
	updated := rates
	switch base {
	case USD:
		updated.USD = cross.Mul(quoteRate)
	case EUR:
		updated.EUR = cross.Mul(quoteRate)
	default:
		return rates, fmt.Errorf("unsupported currency %s", base)
	}
	return updated, nil
}

// Round2 rounds an amount to two decimal places for display. Intermediate
// sums must never pass through this.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
