// Package storetest holds the behaviour every store.Store adapter must share.
// Adapter packages call RunContract from their own tests.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-pos-mart/internal/models"
	"go-pos-mart/internal/shared"
	"go-pos-mart/internal/store"
)

// Opener returns a fresh, empty store. It should register its own cleanup.
type Opener func(t *testing.T) store.Store

// RunContract runs the shared suite against stores built by open.
func RunContract(t *testing.T, open Opener) {
	t.Run("categories", func(t *testing.T) { testCategories(t, open(t)) })
	t.Run("products", func(t *testing.T) { testProducts(t, open(t)) })
	t.Run("adjust stock", func(t *testing.T) { testAdjustStock(t, open(t)) })
	t.Run("customers", func(t *testing.T) { testCustomers(t, open(t)) })
	t.Run("sales", func(t *testing.T) { testSales(t, open(t)) })
	t.Run("atomic", func(t *testing.T) { testAtomic(t, open(t)) })
	t.Run("reports", func(t *testing.T) { testReports(t, open(t)) })
}

func uintPtr(v uint) *uint { return &v }

// MustProduct creates a product or fails the test.
func MustProduct(t *testing.T, s store.Store, code, name string, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		ProductCode:   code,
		Name:          name,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
	}
	require.NoError(t, s.CreateProduct(context.Background(), p))
	return p
}

func testCategories(t *testing.T, s store.Store) {
	ctx := context.Background()

	bev := &models.Category{Name: "Beverages", Description: "Drinks"}
	require.NoError(t, s.CreateCategory(ctx, bev))
	assert.NotZero(t, bev.ID)
	groc := &models.Category{Name: "  Groceries "}
	require.NoError(t, s.CreateCategory(ctx, groc))
	assert.Equal(t, "Groceries", groc.Name)

	err := s.CreateCategory(ctx, &models.Category{Name: "BEVERAGES"})
	assert.ErrorIs(t, err, shared.ErrDuplicateName)

	found, err := s.FindCategoryByName(ctx, " groceries")
	require.NoError(t, err)
	assert.Equal(t, groc.ID, found.ID)

	list, err := s.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Beverages", list[0].Name)
	assert.Equal(t, "Groceries", list[1].Name)

	// rename onto an existing name
	clash := *groc
	clash.Name = "beverages"
	assert.ErrorIs(t, s.UpdateCategory(ctx, &clash), shared.ErrDuplicateName)

	// plain rename frees the old name
	groc.Name = "Staples"
	require.NoError(t, s.UpdateCategory(ctx, groc))
	got, err := s.FindCategory(ctx, groc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Staples", got.Name)
	require.NoError(t, s.CreateCategory(ctx, &models.Category{Name: "Groceries"}))

	assert.ErrorIs(t, s.UpdateCategory(ctx, &models.Category{ID: 999, Name: "Ghost"}), shared.ErrNotFound)

	require.NoError(t, s.DeleteCategory(ctx, bev.ID))
	_, err = s.FindCategory(ctx, bev.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, s.DeleteCategory(ctx, bev.ID), shared.ErrNotFound)
	require.NoError(t, s.CreateCategory(ctx, &models.Category{Name: "Beverages"}))
}

func testProducts(t *testing.T, s store.Store) {
	ctx := context.Background()
	dairy := &models.Category{Name: "Dairy"}
	require.NoError(t, s.CreateCategory(ctx, dairy))

	milk := &models.Product{
		ProductCode: "BMS006", Name: "Milk 1L", CategoryID: uintPtr(dairy.ID),
		Price: decimal.NewFromInt(60), StockQuantity: 50,
	}
	require.NoError(t, s.CreateProduct(ctx, milk))
	assert.NotZero(t, milk.ID)
	cola := MustProduct(t, s, "BMS003", "Coca Cola 500ml", "40", 150)
	MustProduct(t, s, "BMS007", "Bread", "35", 60)

	err := s.CreateProduct(ctx, &models.Product{ProductCode: "bms006", Name: "Other"})
	assert.ErrorIs(t, err, shared.ErrDuplicateCode)

	byCode, err := s.FindProductByCode(ctx, "bms003")
	require.NoError(t, err)
	assert.Equal(t, cola.ID, byCode.ID)
	assert.True(t, decimal.NewFromInt(40).Equal(byCode.Price))

	_, err = s.FindProduct(ctx, 999)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = s.FindProductByCode(ctx, "NOPE")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	t.Run("list ordered by name", func(t *testing.T) {
		list, err := s.ListProducts(ctx, store.ProductFilter{})
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, []string{"Bread", "Coca Cola 500ml", "Milk 1L"},
			[]string{list[0].Name, list[1].Name, list[2].Name})
	})

	t.Run("filters compose", func(t *testing.T) {
		list, err := s.ListProducts(ctx, store.ProductFilter{Search: "COLA"})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "BMS003", list[0].ProductCode)

		list, err = s.ListProducts(ctx, store.ProductFilter{Search: "bms00"})
		require.NoError(t, err)
		assert.Len(t, list, 3)

		list, err = s.ListProducts(ctx, store.ProductFilter{CategoryID: uintPtr(dairy.ID), Search: "bms"})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, milk.ID, list[0].ID)

		list, err = s.ListProducts(ctx, store.ProductFilter{CategoryID: uintPtr(dairy.ID), Search: "cola"})
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("update", func(t *testing.T) {
		p, err := s.FindProduct(ctx, milk.ID)
		require.NoError(t, err)
		p.Price = decimal.RequireFromString("62.5")
		p.ProductCode = "BMS006A"
		require.NoError(t, s.UpdateProduct(ctx, p))

		got, err := s.FindProductByCode(ctx, "bms006a")
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("62.5").Equal(got.Price))
		_, err = s.FindProductByCode(ctx, "BMS006")
		assert.ErrorIs(t, err, shared.ErrNotFound)

		got.ProductCode = "BMS003"
		assert.ErrorIs(t, s.UpdateProduct(ctx, got), shared.ErrDuplicateCode)
		assert.ErrorIs(t, s.UpdateProduct(ctx, &models.Product{ID: 999, ProductCode: "X", Name: "X"}), shared.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.DeleteProduct(ctx, cola.ID))
		_, err := s.FindProduct(ctx, cola.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.ErrorIs(t, s.DeleteProduct(ctx, cola.ID), shared.ErrNotFound)
		// the code is free again
		MustProduct(t, s, "BMS003", "Coca Cola 500ml", "40", 10)
	})

	t.Run("dangling category reference survives", func(t *testing.T) {
		require.NoError(t, s.DeleteCategory(ctx, dairy.ID))
		got, err := s.FindProduct(ctx, milk.ID)
		require.NoError(t, err)
		require.NotNil(t, got.CategoryID)
		assert.Equal(t, dairy.ID, *got.CategoryID)
	})
}

func testAdjustStock(t *testing.T, s store.Store) {
	ctx := context.Background()
	p := MustProduct(t, s, "BMS005", "Lays Chips", "20", 5)

	stock := func() int {
		got, err := s.FindProduct(ctx, p.ID)
		require.NoError(t, err)
		return got.StockQuantity
	}

	require.NoError(t, s.AdjustStock(ctx, p.ID, 3))
	assert.Equal(t, 8, stock())

	require.NoError(t, s.AdjustStock(ctx, p.ID, -8))
	assert.Equal(t, 0, stock())

	assert.ErrorIs(t, s.AdjustStock(ctx, p.ID, -1), shared.ErrInsufficientStock)
	assert.Equal(t, 0, stock())

	require.NoError(t, s.AdjustStock(ctx, p.ID, 0))
	assert.ErrorIs(t, s.AdjustStock(ctx, 999, 1), shared.ErrNotFound)
	assert.ErrorIs(t, s.AdjustStock(ctx, 999, 0), shared.ErrNotFound)
}

func testCustomers(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice := &models.Customer{Name: "Alice Rahman", ContactNumber: " 0171000001 ", Email: "alice@example.com"}
	require.NoError(t, s.CreateCustomer(ctx, alice))
	assert.NotZero(t, alice.ID)
	assert.Equal(t, "0171000001", alice.ContactNumber)
	bob := &models.Customer{Name: "Bob", ContactNumber: "0181000002"}
	require.NoError(t, s.CreateCustomer(ctx, bob))

	err := s.CreateCustomer(ctx, &models.Customer{Name: "Imposter", ContactNumber: "0171000001"})
	assert.ErrorIs(t, err, shared.ErrDuplicateContact)

	got, err := s.FindCustomerByContact(ctx, "0171000001 ")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
	_, err = s.FindCustomerByContact(ctx, "000")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	all, err := s.ListCustomers(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byName, err := s.ListCustomers(ctx, "ALICE")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, alice.ID, byName[0].ID)

	byContact, err := s.ListCustomers(ctx, "0181")
	require.NoError(t, err)
	require.Len(t, byContact, 1)
	assert.Equal(t, bob.ID, byContact[0].ID)

	bob.ContactNumber = "0171000001"
	assert.ErrorIs(t, s.UpdateCustomer(ctx, bob), shared.ErrDuplicateContact)
	bob.ContactNumber = "0191000003"
	bob.Email = "bob@example.com"
	require.NoError(t, s.UpdateCustomer(ctx, bob))
	got, err = s.FindCustomer(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", got.Email)

	require.NoError(t, s.DeleteCustomer(ctx, alice.ID))
	_, err = s.FindCustomer(ctx, alice.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, s.DeleteCustomer(ctx, alice.ID), shared.ErrNotFound)
}

// NewSale builds an uncommitted sale; total is subtotal plus 5%.
func NewSale(customer *models.Customer, method string, at time.Time, items ...models.SaleItem) *models.Sale {
	sub := decimal.Zero
	for i := range items {
		items[i].Subtotal = items[i].UnitPrice.Mul(decimal.NewFromInt(int64(items[i].Quantity)))
		sub = sub.Add(items[i].Subtotal)
	}
	return &models.Sale{
		CustomerID:    customer.ID,
		CustomerName:  customer.Name,
		ContactNumber: customer.ContactNumber,
		PaymentMethod: method,
		TotalAmount:   sub.Mul(decimal.RequireFromString("1.05")),
		SaleDate:      at.UTC(),
		Items:         items,
	}
}

func item(p *models.Product, qty int) models.SaleItem {
	return models.SaleItem{
		ProductID:   p.ID,
		ProductCode: p.ProductCode,
		ProductName: p.Name,
		Quantity:    qty,
		UnitPrice:   p.Price,
	}
}

func testSales(t *testing.T, s store.Store) {
	ctx := context.Background()
	cust := &models.Customer{Name: "Walk-in", ContactNumber: "0100"}
	require.NoError(t, s.CreateCustomer(ctx, cust))
	cola := MustProduct(t, s, "BMS003", "Coca Cola 500ml", "40", 150)
	rice := MustProduct(t, s, "BMS001", "Rice 1kg", "60", 100)

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	first := NewSale(cust, "Cash", base, item(cola, 2), item(rice, 1))
	require.NoError(t, s.CreateSale(ctx, first))
	assert.NotZero(t, first.ID)
	for _, it := range first.Items {
		assert.NotZero(t, it.ID)
		assert.Equal(t, first.ID, it.SaleID)
	}
	second := NewSale(cust, "Card", base.Add(time.Hour), item(rice, 3))
	require.NoError(t, s.CreateSale(ctx, second))

	got, err := s.FindSale(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Walk-in", got.CustomerName)
	assert.Equal(t, "0100", got.ContactNumber)
	assert.True(t, decimal.NewFromInt(147).Equal(got.TotalAmount), got.TotalAmount.String())
	require.Len(t, got.Items, 2)
	assert.Equal(t, "BMS003", got.Items[0].ProductCode)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(80).Equal(got.Items[0].Subtotal))
	assert.Equal(t, "BMS001", got.Items[1].ProductCode)
	assert.True(t, base.Equal(got.SaleDate))

	list, err := s.ListSales(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Len(t, list[1].Items, 2)

	limited, err := s.ListSales(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, second.ID, limited[0].ID)

	require.NoError(t, s.DeleteSale(ctx, first.ID))
	_, err = s.FindSale(ctx, first.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, s.DeleteSale(ctx, first.ID), shared.ErrNotFound)

	list, err = s.ListSales(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func testAtomic(t *testing.T, s store.Store) {
	ctx := context.Background()
	boom := errors.New("boom")

	t.Run("rolls back every write", func(t *testing.T) {
		p := MustProduct(t, s, "BMS008", "Toothpaste", "85", 3)
		err := s.Atomic(ctx, func(tx store.Store) error {
			require.NoError(t, tx.CreateCategory(ctx, &models.Category{Name: "Personal Care"}))
			require.NoError(t, tx.AdjustStock(ctx, p.ID, -2))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = s.FindCategoryByName(ctx, "Personal Care")
		assert.ErrorIs(t, err, shared.ErrNotFound)
		got, err := s.FindProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, got.StockQuantity)
	})

	t.Run("reads its own writes and commits", func(t *testing.T) {
		var id uint
		err := s.Atomic(ctx, func(tx store.Store) error {
			p := &models.Product{ProductCode: "BMS002", Name: "Wheat Flour 1kg", Price: decimal.NewFromInt(45), StockQuantity: 80}
			if err := tx.CreateProduct(ctx, p); err != nil {
				return err
			}
			id = p.ID
			if err := tx.AdjustStock(ctx, p.ID, -5); err != nil {
				return err
			}
			got, err := tx.FindProductByCode(ctx, "bms002")
			if err != nil {
				return err
			}
			assert.Equal(t, 75, got.StockQuantity)
			return nil
		})
		require.NoError(t, err)

		got, err := s.FindProduct(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 75, got.StockQuantity)
	})

	t.Run("domain errors pass through", func(t *testing.T) {
		err := s.Atomic(ctx, func(tx store.Store) error {
			return tx.AdjustStock(ctx, 999, -1)
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("nested units join the outer one", func(t *testing.T) {
		err := s.Atomic(ctx, func(tx store.Store) error {
			return tx.Atomic(ctx, func(inner store.Store) error {
				if err := inner.CreateCategory(ctx, &models.Category{Name: "Snacks"}); err != nil {
					return err
				}
				return boom
			})
		})
		assert.ErrorIs(t, err, boom)
		_, err = s.FindCategoryByName(ctx, "Snacks")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func testReports(t *testing.T, s store.Store) {
	ctx := context.Background()

	empty, err := s.Stats(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalSales)
	assert.True(t, empty.TotalRevenue.IsZero())
	assert.Empty(t, empty.RecentSales)

	cust := &models.Customer{Name: "Regular", ContactNumber: "0155"}
	require.NoError(t, s.CreateCustomer(ctx, cust))
	cola := MustProduct(t, s, "BMS003", "Coca Cola 500ml", "40", 150)
	MustProduct(t, s, "BMS004", "Pepsi 500ml", "40", 150)

	day := time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)
	for i, method := range []string{"Cash", "Card", "Cash", "Cash"} {
		sale := NewSale(cust, method, day.Add(time.Duration(i)*24*time.Hour), item(cola, 1))
		require.NoError(t, s.CreateSale(ctx, sale))
	}

	stats, err := s.Stats(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalSales)
	assert.True(t, decimal.NewFromInt(168).Equal(stats.TotalRevenue), stats.TotalRevenue.String())
	assert.Equal(t, int64(2), stats.TotalProducts)
	assert.Equal(t, int64(1), stats.TotalCustomers)
	require.Len(t, stats.RecentSales, 3)
	assert.True(t, stats.RecentSales[0].SaleDate.After(stats.RecentSales[1].SaleDate))

	// first three days only
	report, err := s.SalesReport(ctx, day, day.Add(48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(3), report.TotalCount)
	assert.True(t, decimal.RequireFromString("126").Equal(report.TotalRevenue), report.TotalRevenue.String())
	require.Len(t, report.PaymentMethods, 2)
	assert.Equal(t, "Card", report.PaymentMethods[0].PaymentMethod)
	assert.Equal(t, int64(1), report.PaymentMethods[0].Count)
	assert.Equal(t, "Cash", report.PaymentMethods[1].PaymentMethod)
	assert.Equal(t, int64(2), report.PaymentMethods[1].Count)
	assert.True(t, decimal.NewFromInt(84).Equal(report.PaymentMethods[1].TotalAmount))

	none, err := s.SalesReport(ctx, day.AddDate(1, 0, 0), day.AddDate(1, 0, 1))
	require.NoError(t, err)
	assert.Zero(t, none.TotalCount)
	assert.Empty(t, none.PaymentMethods)
}
