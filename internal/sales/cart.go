// Package sales holds the cart rules and the sale engine that commits and
// reverses sales.
package sales

import (
	"slices"

	"github.com/shopspring/decimal"

	"go-pos-mart/internal/models"
	"go-pos-mart/internal/shared"
)

// CartLine is one product in a cart. UnitPrice and MaxStock are snapshots
// taken when the product was last added.
type CartLine struct {
	ProductID   uint            `json:"product_id"`
	ProductCode string          `json:"product_code"`
	Name        string          `json:"name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	MaxStock    int             `json:"max_stock"`
}

// Subtotal is UnitPrice x Quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is owned by a single session and is not safe for concurrent use.
// Every line keeps 1 <= Quantity <= MaxStock.
type Cart struct {
	lines []CartLine
}

func NewCart() *Cart {
	return &Cart{}
}

func (c *Cart) find(productID uint) int {
	return slices.IndexFunc(c.lines, func(l CartLine) bool { return l.ProductID == productID })
}

// Add puts qty units of p in the cart, merging with an existing line.
// The quantity is capped at p's current stock; a capped add returns
// STOCK_EXCEEDED after applying the cap. A product with no stock leaves the
// cart unchanged and returns OUT_OF_STOCK.
func (c *Cart) Add(p *models.Product, qty int) error {
	if qty < 1 {
		return shared.ErrInvalidInput.Errorf("quantity must be at least 1")
	}
	if p.StockQuantity <= 0 {
		return shared.ErrOutOfStock.Errorf("%s is out of stock", p.Name)
	}

	i := c.find(p.ID)
	if i < 0 {
		c.lines = append(c.lines, CartLine{
			ProductID:   p.ID,
			ProductCode: p.ProductCode,
			Name:        p.Name,
			UnitPrice:   p.Price,
		})
		i = len(c.lines) - 1
	}

	line := &c.lines[i]
	line.MaxStock = p.StockQuantity
	if qty > line.MaxStock-line.Quantity {
		line.Quantity = line.MaxStock
		return stockExceeded(line)
	}
	line.Quantity += qty
	return nil
}

// SetQuantity changes a line's quantity by delta. Reaching zero or less
// removes the line; going past MaxStock clamps and returns STOCK_EXCEEDED.
func (c *Cart) SetQuantity(productID uint, delta int) error {
	i := c.find(productID)
	if i < 0 {
		return shared.ErrNotFound.Errorf("product %d is not in the cart", productID)
	}
	line := &c.lines[i]
	// Compare against the headroom so extreme deltas cannot wrap around.
	switch {
	case delta <= -line.Quantity:
		c.lines = slices.Delete(c.lines, i, i+1)
	case delta > line.MaxStock-line.Quantity:
		line.Quantity = line.MaxStock
		return stockExceeded(line)
	default:
		line.Quantity += delta
	}
	return nil
}

func stockExceeded(l *CartLine) error {
	return shared.ErrStockExceeded.Errorf("Only %d of %s in stock", l.MaxStock, l.Name)
}

// Remove drops a line; removing an absent product is a no-op.
func (c *Cart) Remove(productID uint) {
	if i := c.find(productID); i >= 0 {
		c.lines = slices.Delete(c.lines, i, i+1)
	}
}

func (c *Cart) Clear() {
	c.lines = nil
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []CartLine {
	return slices.Clone(c.lines)
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

func (c *Cart) Totals() Totals {
	return ComputeTotals(c.lines)
}
