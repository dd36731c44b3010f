package order

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/olehkv/backend-vzuttia/internal/events"
	"github.com/olehkv/backend-vzuttia/internal/pricing"
	"github.com/olehkv/backend-vzuttia/internal/store"
	"github.com/olehkv/backend-vzuttia/internal/tenant"
)

type recordingNotifier struct {
	topics []string
}

func (n *recordingNotifier) Notify(_ context.Context, event events.Event) error {
	n.topics = append(n.topics, event.Topic)
	return nil
}

func newTestService(t *testing.T) (*Service, context.Context, *recordingNotifier) {
	t.Helper()
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, st.CreateCompany(
		store.Company{ID: "acme", Name: "Acme", IsActive: true, Created: time.Now().UTC()},
		store.CompanyDB{
			Models: []store.Model{
				{ID: "m1", SKU: "AirStep-200", Color: "black", Price: decimal.NewFromInt(50)},
				{ID: "m2", SKU: "Trail-90", Color: "brown", Price: decimal.NewFromInt(80)},
			},
			Settings: store.Settings{
				MainCurrency: pricing.USD,
				ExchangeRates: pricing.RateTable{
					USD: decimal.NewFromInt(40),
					EUR: decimal.NewFromInt(43),
				},
			},
		},
	))
	notifier := &recordingNotifier{}
	svc := NewService(st, &events.Bus{Notifiers: []events.Notifier{notifier}}, false)
	ctx := tenant.With(context.Background(), "acme")
	return svc, ctx, notifier
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCreateFillsLinesFromCatalog(t *testing.T) {
	svc, ctx, notifier := newTestService(t)

	discount := d("5")
	o, err := svc.Create(ctx, Input{
		ClientName:  "Olena",
		ClientPhone: "+38 (050) 111-22-33",
		Items: []LineInput{
			{ModelID: "m1", Qty: 4, Discount: discount, Sizes: map[string]int{"40": 2, "41": 2}},
		},
		LumpDiscount: d("10"),
		Payment:      PaymentInput{Amount: d("50"), Currency: pricing.USD},
	})
	require.NoError(t, err)

	require.Equal(t, 1, o.Number)
	require.Equal(t, "AirStep-200", o.Items[0].SKU)
	require.True(t, o.Items[0].UnitPrice.Equal(d("50")), "price comes from the catalog")
	require.True(t, o.Gross.Equal(d("200")))
	require.True(t, o.Discount.Equal(d("30")))
	require.True(t, o.Total.Equal(d("170")))
	require.True(t, o.Payment.PrepaymentInMain.Equal(d("50")))
	require.Equal(t, []string{events.TopicOrderCreated}, notifier.topics)
}

func TestCreateUpsertsClientByPhone(t *testing.T) {
	svc, ctx, _ := newTestService(t)

	_, err := svc.Create(ctx, Input{
		ClientName:  "Olena",
		ClientPhone: "+38 (050) 111-22-33",
		Items:       []LineInput{{ModelID: "m1", Qty: 1}},
	})
	require.NoError(t, err)

	// same phone in a different format reuses the record
	second, err := svc.Create(ctx, Input{
		ClientName:  "Olena Kovalenko",
		ClientPhone: "380501112233",
		Items:       []LineInput{{ModelID: "m2", Qty: 1}},
	})
	require.NoError(t, err)

	err = svc.Store.View("acme", func(db *store.CompanyDB) error {
		require.Len(t, db.Clients, 1)
		require.Equal(t, "Olena Kovalenko", db.Clients[0].Name)
		require.Equal(t, db.Clients[0].ID, second.ClientID)
		return nil
	})
	require.NoError(t, err)
}

func TestCreateAssignsSequentialNumbers(t *testing.T) {
	svc, ctx, _ := newTestService(t)
	for want := 1; want <= 3; want++ {
		o, err := svc.Create(ctx, Input{Items: []LineInput{{ModelID: "m1", Qty: 1}}})
		require.NoError(t, err)
		require.Equal(t, want, o.Number)
	}

	// deleting the latest order does not free its number
	orders, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, orders[0].ID))
	o, err := svc.Create(ctx, Input{Items: []LineInput{{ModelID: "m1", Qty: 1}}})
	require.NoError(t, err)
	require.Equal(t, 3, o.Number)
}

func TestCreateRejectsUnknownModel(t *testing.T) {
	svc, ctx, _ := newTestService(t)
	_, err := svc.Create(ctx, Input{Items: []LineInput{{ModelID: "ghost", Qty: 1}}})
	require.Error(t, err)
}

func TestCreateMergesDuplicateModelLines(t *testing.T) {
	svc, ctx, _ := newTestService(t)
	o, err := svc.Create(ctx, Input{Items: []LineInput{
		{ModelID: "m1", Qty: 2, Sizes: map[string]int{"40": 2}},
		{ModelID: "m1", Qty: 3, Sizes: map[string]int{"41": 3}},
	}})
	require.NoError(t, err)
	require.Len(t, o.Items, 1)
	require.Equal(t, 5, o.Items[0].Quantity)
	require.Equal(t, 2, o.Items[0].Sizes["40"])
	require.Equal(t, 3, o.Items[0].Sizes["41"])
}

func TestCreateFreeFormItemNeedsPrice(t *testing.T) {
	svc, ctx, _ := newTestService(t)
	_, err := svc.Create(ctx, Input{Items: []LineInput{{SKU: "custom", Qty: 1}}})
	require.Error(t, err)

	price := d("30")
	o, err := svc.Create(ctx, Input{Items: []LineInput{{SKU: "custom", Qty: 2, Price: &price}}})
	require.NoError(t, err)
	require.True(t, o.Total.Equal(d("60")))
}

func TestCreateCrossCurrencyPrepayment(t *testing.T) {
	svc, ctx, _ := newTestService(t)
	o, err := svc.Create(ctx, Input{
		Items:   []LineInput{{ModelID: "m1", Qty: 2}}, // 100 USD
		Payment: PaymentInput{Amount: d("43"), Currency: pricing.EUR},
	})
	require.NoError(t, err)
	// 43 EUR -> 1849 UAH -> 46.225 USD
	require.True(t, o.Payment.PrepaymentInMain.Equal(d("46.225")))
	require.Equal(t, pricing.EUR, o.Payment.OriginalCurrency)
	require.True(t, o.Payment.OriginalAmount.Equal(d("43")))
}

func TestLegacyPrepaymentWithoutRate(t *testing.T) {
	svc, ctx, _ := newTestService(t)
	require.NoError(t, svc.Store.Update("acme", func(db *store.CompanyDB) error {
		db.Settings.ExchangeRates.EUR = decimal.Decimal{}
		return nil
	}))

	o, err := svc.Create(ctx, Input{
		Items:   []LineInput{{ModelID: "m1", Qty: 2}},
		Payment: PaymentInput{Amount: d("43"), Currency: pricing.EUR},
	})
	require.NoError(t, err)
	require.True(t, o.Payment.PrepaymentInMain.IsZero())

	strict := NewService(svc.Store, nil, true)
	_, err = strict.Create(ctx, Input{
		Items:   []LineInput{{ModelID: "m1", Qty: 2}},
		Payment: PaymentInput{Amount: d("43"), Currency: pricing.EUR},
	})
	require.Error(t, err)
}

func TestUpdateKeepsNumberAndCreatedAt(t *testing.T) {
	svc, ctx, notifier := newTestService(t)
	created, err := svc.Create(ctx, Input{Items: []LineInput{{ModelID: "m1", Qty: 1}}})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, Input{
		Items:        []LineInput{{ModelID: "m2", Qty: 2}},
		LumpDiscount: d("20"),
	})
	require.NoError(t, err)
	require.Equal(t, created.Number, updated.Number)
	require.Equal(t, created.CreatedAt, updated.CreatedAt)
	require.False(t, updated.UpdatedAt.IsZero())
	require.True(t, updated.Total.Equal(d("140")))
	require.Contains(t, notifier.topics, events.TopicOrderUpdated)
}

func TestPreviewRescalesFullPaymentOnCurrencySwitch(t *testing.T) {
	svc, ctx, _ := newTestService(t)
	preview, err := svc.Preview(ctx, PreviewInput{
		Input: Input{
			Items:   []LineInput{{ModelID: "m1", Qty: 2}}, // net 100 USD
			Payment: PaymentInput{Amount: d("100"), Currency: pricing.EUR},
		},
		PreviousCurrency: pricing.USD,
	})
	require.NoError(t, err)
	// 100 USD was a full payment; switching the selector to EUR re-enters
	// the full price in EUR instead of keeping the stale figure
	require.True(t, preview.Payment.Amount.Equal(d("93.02")))
	require.True(t, preview.IsFullPayment)
	require.True(t, preview.FullPrices["UAH"].Equal(d("4000")))
	require.True(t, preview.FullPrices["EUR"].Equal(d("93.02")))
}

func TestPreviewDoesNotPersist(t *testing.T) {
	svc, ctx, _ := newTestService(t)
	_, err := svc.Preview(ctx, PreviewInput{Input: Input{
		Items: []LineInput{{ModelID: "m1", Qty: 1}},
	}})
	require.NoError(t, err)

	orders, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestListFiltersByClientAndSortsNewestFirst(t *testing.T) {
	svc, ctx, _ := newTestService(t)
	first, err := svc.Create(ctx, Input{
		ClientName: "Olena", ClientPhone: "0501112233",
		Items: []LineInput{{ModelID: "m1", Qty: 1}},
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, Input{
		ClientName: "Ihor", ClientPhone: "0679998877",
		Items: []LineInput{{ModelID: "m2", Qty: 1}},
	})
	require.NoError(t, err)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, 2, all[0].Number)

	mine, err := svc.List(ctx, first.ClientID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, first.ID, mine[0].ID)
}

func TestDeleteMissingOrder(t *testing.T) {
	svc, ctx, _ := newTestService(t)
	require.Error(t, svc.Delete(ctx, "ghost"))
}
