// Package metrics exports sale outcomes to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go-pos-mart/internal/models"
)

const namespace = "pos"

// SalesMetrics records checkouts, reversals and cart warnings. It satisfies
// sales.Recorder and is safe for concurrent use.
type SalesMetrics struct {
	registry *prometheus.Registry

	checkouts      *prometheus.CounterVec
	commitDuration *prometheus.HistogramVec
	revenue        prometheus.Counter
	itemsSold      prometheus.Counter
	reversals      prometheus.Counter
	reversedAmount prometheus.Counter
	cartWarnings   *prometheus.CounterVec
}

// NewSalesMetrics registers the sale collectors, plus the Go runtime and
// process collectors, on a private registry.
func NewSalesMetrics() *SalesMetrics {
	m := &SalesMetrics{registry: prometheus.NewRegistry()}

	m.checkouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Checkouts by result (committed or the failure code).",
		},
		[]string{"result"},
	)
	m.commitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkout_duration_seconds",
			Help:      "Time spent in the checkout unit of work, retries included.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"result"},
	)
	m.revenue = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "revenue_total",
		Help:      "Sum of committed sale totals, tax included.",
	})
	m.itemsSold = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "items_sold_total",
		Help:      "Units sold across all committed sales.",
	})
	m.reversals = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sale_reversals_total",
		Help:      "Sales deleted with their stock restored.",
	})
	m.reversedAmount = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reversed_revenue_total",
		Help:      "Sum of totals of reversed sales.",
	})
	m.cartWarnings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_warnings_total",
			Help:      "Cart changes that were clamped or skipped, by code.",
		},
		[]string{"code"},
	)

	m.registry.MustRegister(
		m.checkouts, m.commitDuration, m.revenue, m.itemsSold,
		m.reversals, m.reversedAmount, m.cartWarnings,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *SalesMetrics) CheckoutCommitted(sale *models.Sale, elapsed time.Duration) {
	m.checkouts.WithLabelValues("committed").Inc()
	m.commitDuration.WithLabelValues("committed").Observe(elapsed.Seconds())
	m.revenue.Add(sale.TotalAmount.InexactFloat64())
	units := 0
	for _, it := range sale.Items {
		units += it.Quantity
	}
	m.itemsSold.Add(float64(units))
}

func (m *SalesMetrics) CheckoutFailed(code string, elapsed time.Duration) {
	if code == "" {
		code = "INTERNAL"
	}
	m.checkouts.WithLabelValues(code).Inc()
	m.commitDuration.WithLabelValues("failed").Observe(elapsed.Seconds())
}

func (m *SalesMetrics) SaleReversed(sale *models.Sale) {
	m.reversals.Inc()
	m.reversedAmount.Add(sale.TotalAmount.InexactFloat64())
}

func (m *SalesMetrics) CartWarning(code string) {
	m.cartWarnings.WithLabelValues(code).Inc()
}

// Registry exposes the private registry, mostly for tests.
func (m *SalesMetrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *SalesMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
