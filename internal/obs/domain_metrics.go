package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// OrdersSavedTotal counts order create/update/delete outcomes.
	OrdersSavedTotal *prometheus.CounterVec
	// OrderTotalClamped counts orders whose net total was clamped at zero.
	OrderTotalClamped prometheus.Counter
	// PrepaymentRateFallback counts prepayments degraded to zero because the
	// payment currency had no usable rate.
	PrepaymentRateFallback prometheus.Counter
	// RateEditsTotal counts exchange-rate table edits by entry mode.
	RateEditsTotal *prometheus.CounterVec
	// ReportExportsTotal counts generated report spreadsheets.
	ReportExportsTotal prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		OrdersSavedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_saved_total",
			Help:      "Count of order write operations by action and result.",
		}, []string{"action", "result"})
		OrderTotalClamped = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_total_clamped_total",
			Help:      "Orders whose discount exceeded the gross total and were clamped to zero.",
		})
		PrepaymentRateFallback = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prepayment_rate_fallback_total",
			Help:      "Prepayments counted as zero because no exchange rate was available.",
		})
		RateEditsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_edits_total",
			Help:      "Exchange-rate table edits by entry mode (direct or cross).",
		}, []string{"mode"})
		ReportExportsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_exports_total",
			Help:      "Generated report spreadsheet downloads.",
		})

		mustRegisterCollector(reg, OrdersSavedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OrdersSavedTotal = v
			}
		})
		mustRegisterCollector(reg, OrderTotalClamped, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				OrderTotalClamped = v
			}
		})
		mustRegisterCollector(reg, PrepaymentRateFallback, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				PrepaymentRateFallback = v
			}
		})
		mustRegisterCollector(reg, RateEditsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				RateEditsTotal = v
			}
		})
		mustRegisterCollector(reg, ReportExportsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				ReportExportsTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
