package receipt

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-pos-mart/internal/config"
	"go-pos-mart/internal/models"
)

func newRenderer() *Renderer {
	return New(config.ReceiptConfig{StoreName: "BMS MART", CurrencySymbol: "Rs.", TerminalID: "BMS-TEST0001"})
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestFormatMoney(t *testing.T) {
	r := newRenderer()
	tests := []struct {
		in   string
		want string
	}{
		{"0", "Rs. 0.00"},
		{"147", "Rs. 147.00"},
		{"7.0035", "Rs. 7.00"},
		{"1234.5", "Rs. 1,234.50"},
		{"1234567.899", "Rs. 1,234,567.90"},
		{"-60", "Rs. -60.00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, r.FormatMoney(dec(tt.in)))
		})
	}

	bare := New(config.ReceiptConfig{TerminalID: "X"})
	assert.Equal(t, "40.00", bare.FormatMoney(dec("40")))
}

func TestRender(t *testing.T) {
	sale := &models.Sale{
		ID:            42,
		CustomerName:  "Rahim Uddin",
		ContactNumber: "01711000000",
		PaymentMethod: "cash",
		TotalAmount:   dec("147"),
		SaleDate:      time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC),
		Items: []models.SaleItem{
			{ProductCode: "BMS003", ProductName: "Coca Cola 500ml", Quantity: 2, UnitPrice: dec("40"), Subtotal: dec("80")},
			{ProductCode: "BMS001", ProductName: "Miniket Rice Premium 5kg Family Pack", Quantity: 1, UnitPrice: dec("60"), Subtotal: dec("60")},
		},
	}

	var sb strings.Builder
	require.NoError(t, newRenderer().Render(&sb, sale))
	out := sb.String()

	assert.Contains(t, out, "BMS MART")
	assert.Regexp(t, `Bill No:\s+42\n`, out)
	assert.Regexp(t, `Date:\s+2025-06-01 12:30\n`, out)
	assert.Regexp(t, `Customer:\s+Rahim Uddin\n`, out)
	assert.Regexp(t, `Contact:\s+01711000000\n`, out)
	assert.Regexp(t, `Payment:\s+Cash\n`, out)
	assert.Regexp(t, `Terminal:\s+BMS-TEST0001\n`, out)
	assert.Regexp(t, `Code\s+Item\s+Qty\s+Price\s+Total`, out)
	assert.Regexp(t, `BMS003\s+Coca Cola 500ml\s+2\s+Rs\. 40\.00\s+Rs\. 80\.00`, out)
	assert.Contains(t, out, "Miniket Rice Prem...")
	assert.Regexp(t, `Subtotal:\s+Rs\. 140\.00`, out)
	assert.Regexp(t, `Tax \(5%\):\s+Rs\. 7\.00`, out)
	assert.Regexp(t, `Total:\s+Rs\. 147\.00`, out)

	assert.Equal(t, out, newRenderer().Text(sale))
}

func TestNew_DerivesTerminal(t *testing.T) {
	r := New(config.ReceiptConfig{StoreName: "BMS MART"})
	assert.True(t, strings.HasPrefix(r.Terminal(), "BMS-"))
}
