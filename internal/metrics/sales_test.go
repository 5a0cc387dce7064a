package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-pos-mart/internal/models"
)

func sale(total string, qty ...int) *models.Sale {
	s := &models.Sale{TotalAmount: decimal.RequireFromString(total)}
	for _, q := range qty {
		s.Items = append(s.Items, models.SaleItem{Quantity: q})
	}
	return s
}

func TestSalesMetrics_Checkouts(t *testing.T) {
	m := NewSalesMetrics()

	m.CheckoutCommitted(sale("147", 2, 1), 10*time.Millisecond)
	m.CheckoutCommitted(sale("21", 1), 5*time.Millisecond)
	m.CheckoutFailed("INSUFFICIENT_STOCK", time.Millisecond)
	m.CheckoutFailed("", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.checkouts.WithLabelValues("committed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.checkouts.WithLabelValues("INSUFFICIENT_STOCK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.checkouts.WithLabelValues("INTERNAL")))
	assert.InDelta(t, 168.0, testutil.ToFloat64(m.revenue), 1e-9)
	assert.Equal(t, 4.0, testutil.ToFloat64(m.itemsSold))
	assert.Equal(t, 2, testutil.CollectAndCount(m.commitDuration))
}

func TestSalesMetrics_ReversalsAndWarnings(t *testing.T) {
	m := NewSalesMetrics()

	m.SaleReversed(sale("84", 2))
	m.CartWarning("STOCK_EXCEEDED")
	m.CartWarning("STOCK_EXCEEDED")
	m.CartWarning("OUT_OF_STOCK")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.reversals))
	assert.InDelta(t, 84.0, testutil.ToFloat64(m.reversedAmount), 1e-9)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cartWarnings.WithLabelValues("STOCK_EXCEEDED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cartWarnings.WithLabelValues("OUT_OF_STOCK")))
}

func TestSalesMetrics_Handler(t *testing.T) {
	m := NewSalesMetrics()
	m.CheckoutCommitted(sale("147", 3), time.Millisecond)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `pos_checkouts_total{result="committed"} 1`)
	assert.Contains(t, body, "pos_items_sold_total 3")
	assert.Contains(t, body, "go_goroutines")
}
