package catalog_test

import (
	"context"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-pos-mart/internal/catalog"
	"go-pos-mart/internal/kvstore"
	"go-pos-mart/internal/shared"
	"go-pos-mart/internal/store"
)

func newService(t *testing.T) *catalog.Service {
	t.Helper()
	return catalog.NewService(kvstore.New(kvstore.NewMemoryBackend(), "pos:"), nil)
}

func uintPtr(v uint) *uint { return &v }

func TestProducts(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	bev, err := svc.CreateCategory(ctx, catalog.CategoryInput{Name: "Beverages"})
	require.NoError(t, err)

	cola, err := svc.CreateProduct(ctx, catalog.ProductInput{
		ProductCode: " BMS003 ", Name: "Coca Cola 500ml", CategoryID: uintPtr(bev.ID),
		Price: decimal.NewFromInt(40), StockQuantity: 150,
	})
	require.NoError(t, err)
	assert.Equal(t, "BMS003", cola.ProductCode)
	assert.Equal(t, "Beverages", cola.CategoryName)

	t.Run("duplicate code ignores case", func(t *testing.T) {
		_, err := svc.CreateProduct(ctx, catalog.ProductInput{ProductCode: "bms003", Name: "Fake"})
		assert.ErrorIs(t, err, shared.ErrDuplicateCode)
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name string
			in   catalog.ProductInput
		}{
			{"blank code", catalog.ProductInput{ProductCode: "  ", Name: "X"}},
			{"blank name", catalog.ProductInput{ProductCode: "X1"}},
			{"negative price", catalog.ProductInput{ProductCode: "X1", Name: "X", Price: decimal.NewFromInt(-1)}},
			{"negative stock", catalog.ProductInput{ProductCode: "X1", Name: "X", StockQuantity: -1}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.CreateProduct(ctx, tt.in)
				assert.ErrorIs(t, err, shared.ErrInvalidInput)
			})
		}
	})

	t.Run("update keeps own code", func(t *testing.T) {
		got, err := svc.UpdateProduct(ctx, cola.ID, catalog.ProductInput{
			ProductCode: "bms003", Name: "Coca Cola 500ml", CategoryID: uintPtr(bev.ID),
			Price: decimal.NewFromInt(42), StockQuantity: 150,
		})
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(42).Equal(got.Price))
	})

	t.Run("update onto another code", func(t *testing.T) {
		_, err := svc.CreateProduct(ctx, catalog.ProductInput{ProductCode: "BMS004", Name: "Pepsi 500ml", Price: decimal.NewFromInt(40)})
		require.NoError(t, err)
		_, err = svc.UpdateProduct(ctx, cola.ID, catalog.ProductInput{ProductCode: "BMS004", Name: "Cola"})
		assert.ErrorIs(t, err, shared.ErrDuplicateCode)
		_, err = svc.UpdateProduct(ctx, 999, catalog.ProductInput{ProductCode: "Z", Name: "Z"})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("lookup by code", func(t *testing.T) {
		got, err := svc.FindProductByCode(ctx, "Bms003")
		require.NoError(t, err)
		assert.Equal(t, cola.ID, got.ID)
		assert.Equal(t, "Beverages", got.CategoryName)
	})

	t.Run("deleted category lists as uncategorized", func(t *testing.T) {
		require.NoError(t, svc.DeleteCategory(ctx, bev.ID))
		list, err := svc.ListProducts(ctx, store.ProductFilter{Search: "cola"})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, catalog.Uncategorized, list[0].CategoryName)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, svc.DeleteProduct(ctx, cola.ID))
		assert.ErrorIs(t, svc.DeleteProduct(ctx, cola.ID), shared.ErrNotFound)
	})
}

func TestAdjustStock(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	p, err := svc.CreateProduct(ctx, catalog.ProductInput{ProductCode: "BMS006", Name: "Milk 1L", Price: decimal.NewFromInt(60), StockQuantity: 5})
	require.NoError(t, err)

	got, err := svc.AdjustStock(ctx, p.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 15, got.StockQuantity)

	_, err = svc.AdjustStock(ctx, p.ID, -16)
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	again, err := svc.FindProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, again.StockQuantity)

	_, err = svc.AdjustStock(ctx, 404, 1)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	t.Run("delta out of range", func(t *testing.T) {
		for _, delta := range []int{math.MaxInt, math.MinInt, catalog.MaxStockDelta + 1} {
			_, err := svc.AdjustStock(ctx, p.ID, delta)
			assert.ErrorIs(t, err, shared.ErrInvalidInput)
		}
		again, err := svc.FindProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 15, again.StockQuantity)
	})
}

func TestCategories(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	snacks, err := svc.CreateCategory(ctx, catalog.CategoryInput{Name: "Snacks"})
	require.NoError(t, err)
	_, err = svc.CreateCategory(ctx, catalog.CategoryInput{Name: " snacks "})
	assert.ErrorIs(t, err, shared.ErrDuplicateName)
	_, err = svc.CreateCategory(ctx, catalog.CategoryInput{Name: ""})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	dairy, err := svc.CreateCategory(ctx, catalog.CategoryInput{Name: "Dairy"})
	require.NoError(t, err)

	renamed, err := svc.UpdateCategory(ctx, snacks.ID, catalog.CategoryInput{Name: "SNACKS", Description: "crunchy"})
	require.NoError(t, err)
	assert.Equal(t, "SNACKS", renamed.Name)
	assert.Equal(t, "crunchy", renamed.Description)

	_, err = svc.UpdateCategory(ctx, dairy.ID, catalog.CategoryInput{Name: "snacks"})
	assert.ErrorIs(t, err, shared.ErrDuplicateName)

	list, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestCustomers(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	c, err := svc.CreateCustomer(ctx, catalog.CustomerInput{Name: "Rahim", ContactNumber: "01711", Email: "rahim@example.com"})
	require.NoError(t, err)
	_, err = svc.CreateCustomer(ctx, catalog.CustomerInput{Name: "Karim", ContactNumber: "01711"})
	assert.ErrorIs(t, err, shared.ErrDuplicateContact)
	_, err = svc.CreateCustomer(ctx, catalog.CustomerInput{Name: "Karim", ContactNumber: "01822", Email: "not-an-email"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	_, err = svc.CreateCustomer(ctx, catalog.CustomerInput{Name: "Karim", ContactNumber: "01822"})
	require.NoError(t, err)

	found, err := svc.SearchCustomers(ctx, "rah")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, c.ID, found[0].ID)

	_, err = svc.UpdateCustomer(ctx, c.ID, catalog.CustomerInput{Name: "Rahim", ContactNumber: "01822"})
	assert.ErrorIs(t, err, shared.ErrDuplicateContact)
	updated, err := svc.UpdateCustomer(ctx, c.ID, catalog.CustomerInput{Name: "Rahim Uddin", ContactNumber: "01711"})
	require.NoError(t, err)
	assert.Equal(t, "Rahim Uddin", updated.Name)

	require.NoError(t, svc.DeleteCustomer(ctx, c.ID))
	all, err := svc.ListCustomers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	require.NoError(t, svc.Seed(ctx))
	require.NoError(t, svc.Seed(ctx))

	cats, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 5)

	products, err := svc.ListProducts(ctx, store.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, products, 8)

	rice, err := svc.FindProductByCode(ctx, "BMS001")
	require.NoError(t, err)
	assert.Equal(t, "Rice 1kg", rice.Name)
	assert.Equal(t, "Groceries", rice.CategoryName)
	assert.True(t, decimal.NewFromInt(60).Equal(rice.Price))
	assert.Equal(t, 100, rice.StockQuantity)

	dairy, err := svc.ListProducts(ctx, store.ProductFilter{Search: "milk"})
	require.NoError(t, err)
	require.Len(t, dairy, 1)
	assert.Equal(t, "Dairy Products", dairy[0].CategoryName)
}
