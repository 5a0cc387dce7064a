package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category - A shelf grouping for products
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	NameKey     string    `gorm:"size:100;not null;uniqueIndex" json:"-"` // lower(trim(name)), the uniqueness key
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Normalize trims the name and refreshes the uniqueness key.
func (c *Category) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.NameKey = Key(c.Name)
}

// Product - The Inventory
type Product struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	ProductCode   string          `gorm:"size:50;not null" json:"product_code"`
	CodeKey       string          `gorm:"size:50;not null;uniqueIndex" json:"-"`
	Name          string          `gorm:"size:200;not null" json:"name"`
	CategoryID    *uint           `gorm:"index" json:"category_id"`
	CategoryName  string          `gorm:"-" json:"category_name,omitempty"` // filled on read
	Price         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"price"`
	StockQuantity int             `gorm:"not null;default:0" json:"stock_quantity"`
	Description   string          `json:"description"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Normalize trims the code and name and refreshes the uniqueness key.
func (p *Product) Normalize() {
	p.ProductCode = strings.TrimSpace(p.ProductCode)
	p.Name = strings.TrimSpace(p.Name)
	p.CodeKey = Key(p.ProductCode)
}

// Customer - Created on first checkout, reused by contact number
type Customer struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:100;not null" json:"name"`
	ContactNumber string    `gorm:"size:30;not null;uniqueIndex" json:"contact_number"`
	Email         string    `gorm:"size:100" json:"email"`
	CreatedAt     time.Time `json:"created_at"`
}

// Normalize trims the customer fields.
func (c *Customer) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.ContactNumber = strings.TrimSpace(c.ContactNumber)
	c.Email = strings.TrimSpace(c.Email)
}

// Sale - The Transaction Header. Immutable once committed.
type Sale struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	CustomerID    uint            `gorm:"index" json:"customer_id"`
	CustomerName  string          `gorm:"size:100" json:"customer_name"`
	ContactNumber string          `gorm:"size:30;index" json:"contact_number"`
	PaymentMethod string          `gorm:"size:30" json:"payment_method"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_amount"`
	SaleDate      time.Time       `gorm:"index" json:"sale_date"`
	Items         []SaleItem      `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE" json:"items"`
}

// Subtotal sums the line subtotals (the pre-tax amount).
func (s *Sale) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range s.Items {
		sum = sum.Add(it.Subtotal)
	}
	return sum
}

// Tax is whatever the total carries on top of the line subtotals.
func (s *Sale) Tax() decimal.Decimal {
	return s.TotalAmount.Sub(s.Subtotal())
}

// SaleItem - One cart line frozen at checkout
type SaleItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	SaleID      uint            `gorm:"index;not null" json:"sale_id"`
	ProductID   uint            `gorm:"index" json:"product_id"`
	ProductCode string          `gorm:"size:50" json:"product_code"`
	ProductName string          `gorm:"size:200" json:"product_name"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"` // Snapshot of price at time of sale
	Subtotal    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"subtotal"`
}

// DashboardStats is the admin overview
type DashboardStats struct {
	TotalSales     int64           `json:"total_sales"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	TotalProducts  int64           `json:"total_products"`
	TotalCustomers int64           `json:"total_customers"`
	RecentSales    []Sale          `json:"recent_sales"`
}

// PaymentMethodTotal is revenue collected through one payment method
type PaymentMethodTotal struct {
	PaymentMethod string          `json:"payment_method"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Count         int64           `json:"count"`
}

// SalesReport covers sales whose sale_date falls in [From, To]
type SalesReport struct {
	From           time.Time            `json:"from"`
	To             time.Time            `json:"to"`
	TotalRevenue   decimal.Decimal      `json:"total_revenue"`
	TotalCount     int64                `json:"total_count"`
	PaymentMethods []PaymentMethodTotal `json:"payment_methods"`
}

// Key is the case-insensitive uniqueness key for codes and names.
func Key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
