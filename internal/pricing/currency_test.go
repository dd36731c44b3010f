package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func rt(usd, eur string) RateTable {
	return RateTable{
		USD: decimal.RequireFromString(usd),
		EUR: decimal.RequireFromString(eur),
	}
}

func TestConvertRoundTrip(t *testing.T) {
	rates := rt("41.25", "44.8")
	epsilon := decimal.RequireFromString("0.000001")
	currencies := []Currency{UAH, USD, EUR}
	amounts := []string{"0", "1", "19.99", "1234.5678", "100000"}
	for _, from := range currencies {
		for _, to := range currencies {
			for _, raw := range amounts {
				amount := decimal.RequireFromString(raw)
				there, err := Convert(amount, from, to, rates)
				if err != nil {
					t.Fatalf("convert %s %s->%s: %v", raw, from, to, err)
				}
				back, err := Convert(there, to, from, rates)
				if err != nil {
					t.Fatalf("convert back %s %s->%s: %v", raw, to, from, err)
				}
				if back.Sub(amount).Abs().GreaterThan(epsilon) {
					t.Fatalf("round trip %s %s->%s->%s drifted: got %s", raw, from, to, from, back)
				}
			}
		}
	}
}

func TestConvertIdentityIgnoresRates(t *testing.T) {
	amount := decimal.RequireFromString("123.45")
	got, err := Convert(amount, EUR, EUR, RateTable{})
	if err != nil {
		t.Fatalf("identity conversion must not consult rates: %v", err)
	}
	if !got.Equal(amount) {
		t.Fatalf("identity conversion changed the amount: %s", got)
	}
}

func TestConvertMissingRate(t *testing.T) {
	rates := RateTable{USD: decimal.RequireFromString("40")}
	if _, err := Convert(decimal.NewFromInt(10), USD, EUR, rates); !IsRateUnavailable(err) {
		t.Fatalf("expected RateUnavailableError, got %v", err)
	}
	if _, err := Convert(decimal.NewFromInt(10), EUR, UAH, rates); !IsRateUnavailable(err) {
		t.Fatalf("expected RateUnavailableError for missing source rate, got %v", err)
	}
}

func TestCrossRate(t *testing.T) {
	rates := rt("40", "43")
	cross, err := CrossRate(EUR, USD, rates)
	if err != nil {
		t.Fatalf("cross rate: %v", err)
	}
	if !cross.Equal(decimal.RequireFromString("1.075")) {
		t.Fatalf("expected 1 EUR = 1.075 USD, got %s", cross)
	}
}

func TestApplyCrossRateBackSolvesOneRate(t *testing.T) {
	rates := rt("40", "43")
	updated, err := ApplyCrossRate(EUR, USD, decimal.RequireFromString("1.1"), rates)
	if err != nil {
		t.Fatalf("apply cross rate: %v", err)
	}
	if !updated.EUR.Equal(decimal.RequireFromString("44")) {
		t.Fatalf("expected eur rate back-solved to 44, got %s", updated.EUR)
	}
	if !updated.USD.Equal(rates.USD) {
		t.Fatalf("usd rate must stay untouched, got %s", updated.USD)
	}
}

func TestApplyCrossRateRejectsPivot(t *testing.T) {
	if _, err := ApplyCrossRate(UAH, USD, decimal.NewFromInt(1), rt("40", "43")); err == nil {
		t.Fatal("editing the pivot rate must fail")
	}
	if _, err := ApplyCrossRate(EUR, USD, decimal.Decimal{}, rt("40", "43")); err == nil {
		t.Fatal("non-positive cross rate must fail")
	}
}
