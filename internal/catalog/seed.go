package catalog

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"go-pos-mart/internal/models"
	"go-pos-mart/internal/shared"
	"go-pos-mart/internal/store"
)

type seedProduct struct {
	code, name, category string
	price                int64
	stock                int
}

var seedCategories = []models.Category{
	{Name: "Groceries", Description: "Daily grocery items"},
	{Name: "Beverages", Description: "Drinks and beverages"},
	{Name: "Snacks", Description: "Chips, biscuits and snacks"},
	{Name: "Dairy Products", Description: "Milk, cheese and dairy"},
	{Name: "Personal Care", Description: "Toiletries and personal care"},
}

var seedProducts = []seedProduct{
	{"BMS001", "Rice 1kg", "Groceries", 60, 100},
	{"BMS002", "Wheat Flour 1kg", "Groceries", 45, 80},
	{"BMS003", "Coca Cola 500ml", "Beverages", 40, 150},
	{"BMS004", "Pepsi 500ml", "Beverages", 40, 150},
	{"BMS005", "Lays Chips", "Snacks", 20, 200},
	{"BMS006", "Milk 1L", "Dairy Products", 60, 50},
	{"BMS007", "Bread", "Groceries", 35, 60},
	{"BMS008", "Toothpaste", "Personal Care", 85, 75},
}

// Seed loads the sample shop. Records that already exist, matched by
// category name or product code, are left alone, so running it twice is safe.
func (s *Service) Seed(ctx context.Context) error {
	created := 0
	err := s.store.Atomic(ctx, func(tx store.Store) error {
		ids := make(map[string]uint, len(seedCategories))
		for _, sc := range seedCategories {
			c, err := tx.FindCategoryByName(ctx, sc.Name)
			if errors.Is(err, shared.ErrNotFound) {
				c = &models.Category{Name: sc.Name, Description: sc.Description}
				err = tx.CreateCategory(ctx, c)
				created++
			}
			if err != nil {
				return err
			}
			ids[sc.Name] = c.ID
		}

		for _, sp := range seedProducts {
			_, err := tx.FindProductByCode(ctx, sp.code)
			if err == nil {
				continue
			}
			if !errors.Is(err, shared.ErrNotFound) {
				return err
			}
			catID := ids[sp.category]
			p := &models.Product{
				ProductCode:   sp.code,
				Name:          sp.name,
				CategoryID:    &catID,
				Price:         decimal.NewFromInt(sp.price),
				StockQuantity: sp.stock,
			}
			if err := tx.CreateProduct(ctx, p); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("sample data seeded", zap.Int("created", created))
	return nil
}
