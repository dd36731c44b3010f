package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func usdContext(usd, eur string) Context {
	return Context{MainCurrency: USD, Rates: rt(usd, eur)}
}

func TestSettleSameCurrency(t *testing.T) {
	pc := usdContext("1", "0.9")
	s, err := pc.Settle(decimal.NewFromInt(170), Payment{Amount: decimal.NewFromInt(50), Currency: USD})
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if !s.PrepaymentInMain.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected prepayment 50, got %s", s.PrepaymentInMain)
	}
	if !s.Remaining.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("expected remaining 120, got %s", s.Remaining)
	}
}

func TestSettleCrossCurrency(t *testing.T) {
	pc := usdContext("40", "43")
	s, err := pc.Settle(decimal.NewFromInt(100), Payment{Amount: decimal.NewFromInt(43), Currency: EUR})
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	// 43 EUR -> 1849 UAH -> 46.225 USD
	if !s.PrepaymentInMain.Equal(decimal.RequireFromString("46.225")) {
		t.Fatalf("expected prepayment 46.225 USD, got %s", s.PrepaymentInMain)
	}
	if !s.Remaining.Equal(decimal.RequireFromString("53.775")) {
		t.Fatalf("expected remaining 53.775, got %s", s.Remaining)
	}
}

func TestSettleClampsOverpayment(t *testing.T) {
	pc := usdContext("40", "43")
	s, err := pc.Settle(decimal.NewFromInt(100), Payment{Amount: decimal.NewFromInt(150), Currency: USD})
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if !s.Remaining.IsZero() {
		t.Fatalf("expected remaining 0, got %s", s.Remaining)
	}
	if !s.Clamped || !s.RawRemaining.Equal(decimal.NewFromInt(-50)) {
		t.Fatalf("expected observable clamp of -50, got clamped=%v raw=%s", s.Clamped, s.RawRemaining)
	}
}

func TestSettleLegacyZeroOnMissingRate(t *testing.T) {
	pc := Context{MainCurrency: USD, Rates: RateTable{USD: decimal.NewFromInt(40)}}
	s, err := pc.Settle(decimal.NewFromInt(100), Payment{Amount: decimal.NewFromInt(50), Currency: EUR})
	if err != nil {
		t.Fatalf("settle with legacy fallback: %v", err)
	}
	if !s.PrepaymentInMain.IsZero() {
		t.Fatalf("legacy policy must treat unpriceable prepayment as zero, got %s", s.PrepaymentInMain)
	}
	if !s.Remaining.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected untouched remaining 100, got %s", s.Remaining)
	}
}

func TestSettleStrictRates(t *testing.T) {
	pc := Context{MainCurrency: USD, Rates: RateTable{USD: decimal.NewFromInt(40)}, StrictRates: true}
	_, err := pc.Settle(decimal.NewFromInt(100), Payment{Amount: decimal.NewFromInt(50), Currency: EUR})
	if !IsRateUnavailable(err) {
		t.Fatalf("strict mode must surface the missing rate, got %v", err)
	}
}

func TestFullPaymentUsesPaymentCurrencyUnits(t *testing.T) {
	pc := usdContext("40", "43")
	net := decimal.NewFromInt(100)

	// 100 USD is worth 100*40/43 = 93.02... EUR; the raw main-currency figure
	// entered in the EUR field must NOT count as full payment.
	if pc.IsFullPayment(net, decimal.NewFromInt(4300), EUR) {
		t.Fatal("4300 entered as EUR is not a full payment")
	}
	if pc.IsFullPayment(net, decimal.NewFromInt(100), EUR) {
		t.Fatal("100 entered as EUR is not a full payment")
	}
	if !pc.IsFullPayment(net, decimal.RequireFromString("93.02"), EUR) {
		t.Fatal("93.02 EUR should be detected as full payment")
	}
	if !pc.IsFullPayment(net, decimal.NewFromInt(100), USD) {
		t.Fatal("100 USD must be a full payment of a 100 USD net")
	}
}

func TestRescaleFullPaymentOnCurrencySwitch(t *testing.T) {
	pc := usdContext("40", "43")
	net := decimal.NewFromInt(100)

	rescaled := pc.RescaleFullPayment(net, decimal.NewFromInt(100), USD, EUR)
	if !rescaled.Equal(decimal.RequireFromString("93.02")) {
		t.Fatalf("expected full payment rescaled to 93.02 EUR, got %s", rescaled)
	}

	// a partial payment keeps its entered value through a currency switch
	partial := pc.RescaleFullPayment(net, decimal.NewFromInt(40), USD, EUR)
	if !partial.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("partial payment must not be rescaled, got %s", partial)
	}
}

func TestSettleEndToEndScenario(t *testing.T) {
	var c Cart
	if err := c.Add(item("a1", "50", 4, "5", nil)); err != nil {
		t.Fatalf("add: %v", err)
	}
	totals := ComputeTotals(c, decimal.NewFromInt(10))
	pc := usdContext("1", "0.9")
	s, err := pc.Settle(totals.Net, Payment{Amount: decimal.NewFromInt(50), Currency: USD})
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if !totals.Gross.Equal(decimal.NewFromInt(200)) ||
		!totals.Discount.Equal(decimal.NewFromInt(30)) ||
		!totals.Net.Equal(decimal.NewFromInt(170)) ||
		!s.Remaining.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("scenario mismatch: gross=%s discount=%s net=%s remaining=%s",
			totals.Gross, totals.Discount, totals.Net, s.Remaining)
	}
}
