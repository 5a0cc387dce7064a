// Package store defines the storage port shared by the relational and
// key-value adapters.
package store

import (
	"context"
	"time"

	"go-pos-mart/internal/models"
)

// ProductFilter narrows ListProducts. Both fields are optional and AND-ed.
type ProductFilter struct {
	CategoryID *uint
	Search     string // case-insensitive substring of code or name
}

type CategoryStore interface {
	FindCategory(ctx context.Context, id uint) (*models.Category, error)
	FindCategoryByName(ctx context.Context, name string) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, c *models.Category) error
	UpdateCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, id uint) error
}

type ProductStore interface {
	FindProduct(ctx context.Context, id uint) (*models.Product, error)
	FindProductByCode(ctx context.Context, code string) (*models.Product, error)
	ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uint) error
	// AdjustStock adds delta to the stock of product id. It fails with
	// ErrInsufficientStock, without mutating, when the result would be negative.
	AdjustStock(ctx context.Context, id uint, delta int) error
}

type CustomerStore interface {
	FindCustomer(ctx context.Context, id uint) (*models.Customer, error)
	FindCustomerByContact(ctx context.Context, contact string) (*models.Customer, error)
	ListCustomers(ctx context.Context, search string) ([]models.Customer, error)
	CreateCustomer(ctx context.Context, c *models.Customer) error
	UpdateCustomer(ctx context.Context, c *models.Customer) error
	DeleteCustomer(ctx context.Context, id uint) error
}

type SaleStore interface {
	FindSale(ctx context.Context, id uint) (*models.Sale, error)
	// ListSales returns headers with items, newest first. limit <= 0 means all.
	ListSales(ctx context.Context, limit int) ([]models.Sale, error)
	// CreateSale inserts the header and its items, assigning all ids.
	CreateSale(ctx context.Context, s *models.Sale) error
	// DeleteSale removes the header and its items.
	DeleteSale(ctx context.Context, id uint) error
}

type ReportStore interface {
	Stats(ctx context.Context, recent int) (*models.DashboardStats, error)
	SalesReport(ctx context.Context, from, to time.Time) (*models.SalesReport, error)
}

// Store is the full storage port. Lookups of a missing record return
// shared.ErrNotFound; unique key clashes return the matching DUPLICATE_* error.
type Store interface {
	CategoryStore
	ProductStore
	CustomerStore
	SaleStore
	ReportStore

	// Atomic runs fn as one unit of work: every write made through tx commits
	// together or not at all. A lost optimistic race surfaces as
	// shared.ErrConcurrencyConflict.
	Atomic(ctx context.Context, fn func(tx Store) error) error

	Close() error
}
