package sales_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-pos-mart/internal/config"
	"go-pos-mart/internal/database"
	"go-pos-mart/internal/kvstore"
	"go-pos-mart/internal/models"
	"go-pos-mart/internal/sales"
	"go-pos-mart/internal/store"
)

var sqliteSeq atomic.Int64

var backends = map[string]func(t *testing.T) store.Store{
	"memory": func(t *testing.T) store.Store {
		return kvstore.New(kvstore.NewMemoryBackend(), "pos:")
	},
	"sqlite": func(t *testing.T) store.Store {
		cfg := config.StoreConfig{
			Driver:         "sqlite",
			DSN:            fmt.Sprintf("file:sales_test_%d?mode=memory&cache=shared", sqliteSeq.Add(1)),
			ConnectRetries: 1,
		}
		db, err := database.Connect(cfg, "silent", zap.NewNop())
		require.NoError(t, err)
		s := database.New(db)
		t.Cleanup(func() { _ = s.Close() })
		return s
	},
}

// forEachBackend runs fn once per storage adapter.
func forEachBackend(t *testing.T, fn func(t *testing.T, s store.Store)) {
	for name, open := range backends {
		t.Run(name, func(t *testing.T) { fn(t, open(t)) })
	}
}

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newEngine(s store.Store, opts ...sales.Option) *sales.Engine {
	opts = append([]sales.Option{
		sales.WithClock(func() time.Time { return fixedNow }),
		sales.WithRetryPolicy(store.RetryPolicy{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}),
	}, opts...)
	return sales.NewEngine(s, opts...)
}

func addProduct(t *testing.T, s store.Store, code, name, price string, stock int) *models.Product {
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

func stockOf(t *testing.T, s store.Store, id uint) int {
	t.Helper()
	p, err := s.FindProduct(context.Background(), id)
	require.NoError(t, err)
	return p.StockQuantity
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
