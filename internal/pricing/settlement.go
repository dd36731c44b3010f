package pricing

import "github.com/shopspring/decimal"

// fullPaymentTolerance is the absolute tolerance, in payment-currency units,
// under which an entered prepayment counts as paying the order in full.
var fullPaymentTolerance = decimal.RequireFromString("0.1")

// Context carries the currency configuration a settlement is computed under.
// It is immutable: a rate edit produces a new Context, never mutates one in
// flight.
type Context struct {
	MainCurrency Currency
	Rates        RateTable
	// StrictRates disables the legacy behaviour of treating a prepayment in
	// a currency without a rate as zero; with StrictRates set such a
	// settlement fails with RateUnavailableError instead.
	StrictRates bool
}

// Payment describes an advance payment in its original currency.
type Payment struct {
	Amount   decimal.Decimal `json:"originalAmount"`
	Currency Currency        `json:"originalCurrency"`
}

// Settlement is the outcome of applying a prepayment to a net total.
type Settlement struct {
	// PrepaymentInMain is the prepayment restated in the main currency.
	PrepaymentInMain decimal.Decimal `json:"prepaymentInMain"`
	// Remaining is the unpaid balance in the main currency, clamped at zero.
	Remaining decimal.Decimal `json:"remaining"`
	// RemainingInPayment restates Remaining in the payment currency; zero
	// when the payment currency has no usable rate.
	RemainingInPayment decimal.Decimal `json:"remainingInPayment"`
	// RawRemaining is the balance before clamping, for observability.
	RawRemaining decimal.Decimal `json:"-"`
	// Clamped reports whether the prepayment exceeded the net total.
	Clamped bool `json:"-"`
}

// Settle converts the prepayment into the main currency and computes the
// remaining balance. A missing rate for the payment currency degrades the
// prepayment to zero unless StrictRates is set; that quirk is load-bearing
// for old orders saved without a usable rate table.
func (pc Context) Settle(net decimal.Decimal, p Payment) (Settlement, error) {
	prepay := decimal.Decimal{}
	if p.Amount.IsPositive() {
		converted, err := Convert(p.Amount, p.Currency, pc.MainCurrency, pc.Rates)
		switch {
		case err == nil:
			prepay = converted
		case IsRateUnavailable(err) && !pc.StrictRates:
			// legacy fallback: unpriceable prepayments count as nothing
		default:
			return Settlement{}, err
		}
	}
	rawRemaining := net.Sub(prepay)
	remaining := rawRemaining
	clamped := false
	if remaining.IsNegative() {
		remaining = decimal.Decimal{}
		clamped = true
	}
	remainingInPayment := decimal.Decimal{}
	if converted, err := Convert(remaining, pc.MainCurrency, p.Currency, pc.Rates); err == nil {
		remainingInPayment = converted
	} else if pc.StrictRates {
		return Settlement{}, err
	}
	return Settlement{
		PrepaymentInMain:   prepay,
		Remaining:          remaining,
		RemainingInPayment: remainingInPayment,
		RawRemaining:       rawRemaining,
		Clamped:            clamped,
	}, nil
}

// FullPriceIn restates the net total in the target currency.
func (pc Context) FullPriceIn(net decimal.Decimal, target Currency) (decimal.Decimal, error) {
	return Convert(net, pc.MainCurrency, target, pc.Rates)
}

// IsFullPayment reports whether an entered amount, denominated in curr, covers
// the whole net total. The comparison happens strictly in curr units: the net
// total is converted into curr first and compared against the entered amount
// with an absolute tolerance of 0.1.
func (pc Context) IsFullPayment(net, entered decimal.Decimal, curr Currency) bool {
	full, err := pc.FullPriceIn(net, curr)
	if err != nil {
		return false
	}
	return entered.Sub(full).Abs().LessThan(fullPaymentTolerance)
}

// RescaleFullPayment re-prices an entered prepayment when the payment currency
// selector changes. If the amount was a full payment in the old currency the
// full price is restated in the new currency (rounded for entry fields);
// otherwise the entered amount is returned unchanged.
func (pc Context) RescaleFullPayment(net, entered decimal.Decimal, oldCurr, newCurr Currency) decimal.Decimal {
	if !pc.IsFullPayment(net, entered, oldCurr) {
		return entered
	}
	full, err := pc.FullPriceIn(net, newCurr)
	if err != nil {
		return entered
	}
	return Round2(full)
}
