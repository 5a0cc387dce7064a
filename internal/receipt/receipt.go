// Package receipt prints a committed sale as a flat plain-text bill.
package receipt

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"go-pos-mart/internal/config"
	"go-pos-mart/internal/models"
	"go-pos-mart/internal/sales"
	"go-pos-mart/internal/utils"
)

const (
	width      = 48
	dateLayout = "2006-01-02 15:04"
	maxItemLen = 20
)

// Renderer formats receipts for one till.
type Renderer struct {
	storeName string
	currency  string
	terminal  string
	printer   *message.Printer
	title     cases.Caser
}

// New builds a Renderer; an empty TerminalID is derived from the host.
func New(cfg config.ReceiptConfig) *Renderer {
	terminal := cfg.TerminalID
	if terminal == "" {
		terminal = utils.TerminalID()
	}
	return &Renderer{
		storeName: cfg.StoreName,
		currency:  cfg.CurrencySymbol,
		terminal:  terminal,
		printer:   message.NewPrinter(language.English),
		title:     cases.Title(language.English),
	}
}

// Terminal is the till identifier printed on every receipt.
func (r *Renderer) Terminal() string { return r.terminal }

// FormatMoney renders d with two decimals and thousands grouping,
// e.g. 1234.5 -> "Rs. 1,234.50".
func (r *Renderer) FormatMoney(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	fixed := d.StringFixed(2)
	dot := strings.IndexByte(fixed, '.')
	whole := decimal.RequireFromString(fixed[:dot]).IntPart()
	amount := sign + r.printer.Sprintf("%d", whole) + fixed[dot:]
	if r.currency == "" {
		return amount
	}
	return r.currency + " " + amount
}

// Render writes the receipt for sale to w.
func (r *Renderer) Render(w io.Writer, sale *models.Sale) error {
	var buf bytes.Buffer
	rule := strings.Repeat("-", width)

	fmt.Fprintln(&buf, center(r.storeName, width))
	fmt.Fprintln(&buf, rule)

	// 1. Header
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Bill No:\t%d\n", sale.ID)
	fmt.Fprintf(tw, "Date:\t%s\n", sale.SaleDate.Format(dateLayout))
	fmt.Fprintf(tw, "Customer:\t%s\n", sale.CustomerName)
	fmt.Fprintf(tw, "Contact:\t%s\n", sale.ContactNumber)
	fmt.Fprintf(tw, "Payment:\t%s\n", r.title.String(sale.PaymentMethod))
	fmt.Fprintf(tw, "Terminal:\t%s\n", r.terminal)
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(&buf, rule)

	// 2. Line items
	tw = tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Code\tItem\tQty\tPrice\tTotal")
	for _, it := range sale.Items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			it.ProductCode, truncate(it.ProductName, maxItemLen), it.Quantity,
			r.FormatMoney(it.UnitPrice), r.FormatMoney(it.Subtotal))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(&buf, rule)

	// 3. Totals
	tw = tabwriter.NewWriter(&buf, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Subtotal:\t%s\t\n", r.FormatMoney(sale.Subtotal()))
	fmt.Fprintf(tw, "Tax (%s%%):\t%s\t\n", sales.TaxRate.Shift(2).String(), r.FormatMoney(sale.Tax()))
	fmt.Fprintf(tw, "Total:\t%s\t\n", r.FormatMoney(sale.TotalAmount))
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(&buf, rule)
	fmt.Fprintln(&buf, center("Thank you for shopping with us!", width))

	_, err := w.Write(buf.Bytes())
	return err
}

// Text is Render into a string.
func (r *Renderer) Text(sale *models.Sale) string {
	var sb strings.Builder
	_ = r.Render(&sb, sale)
	return sb.String()
}

func center(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	return strings.Repeat(" ", (width-n)/2) + s
}

// truncate shortens s to max runes, ending in "..." when cut.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
