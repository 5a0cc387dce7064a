package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ProductInput is the editable part of a product.
type ProductInput struct {
	ProductCode   string          `json:"product_code" validate:"required,max=50"`
	Name          string          `json:"name" validate:"required,max=200"`
	CategoryID    *uint           `json:"category_id"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity" validate:"gte=0"`
	Description   string          `json:"description"`
}

func (in *ProductInput) trim() {
	in.ProductCode = strings.TrimSpace(in.ProductCode)
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
}

type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

func (in *CategoryInput) trim() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
}

type CustomerInput struct {
	Name          string `json:"name" validate:"required,max=100"`
	ContactNumber string `json:"contact_number" validate:"required,max=30"`
	Email         string `json:"email" validate:"omitempty,email,max=100"`
}

func (in *CustomerInput) trim() {
	in.Name = strings.TrimSpace(in.Name)
	in.ContactNumber = strings.TrimSpace(in.ContactNumber)
	in.Email = strings.TrimSpace(in.Email)
}
