package sales

import "github.com/shopspring/decimal"

// TaxRate is the flat sales tax applied to every sale.
var TaxRate = decimal.RequireFromString("0.05")

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// ComputeTotals sums the lines and applies TaxRate. Tax is kept exact; the
// receipt rounds for display.
func ComputeTotals(lines []CartLine) Totals {
	sub := decimal.Zero
	for _, l := range lines {
		sub = sub.Add(l.Subtotal())
	}
	tax := sub.Mul(TaxRate)
	return Totals{Subtotal: sub, Tax: tax, Total: sub.Add(tax)}
}
