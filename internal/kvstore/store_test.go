package kvstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-pos-mart/internal/kvstore"
	"go-pos-mart/internal/models"
	"go-pos-mart/internal/shared"
	"go-pos-mart/internal/store"
	"go-pos-mart/internal/store/storetest"
)

func openMemory(t *testing.T) store.Store {
	return kvstore.New(kvstore.NewMemoryBackend(), "pos:")
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func openRedis(t *testing.T) store.Store {
	_, client := newRedis(t)
	return kvstore.New(kvstore.NewRedisBackendWithClient(client), "pos:")
}

func TestStoreContract_Memory(t *testing.T) {
	storetest.RunContract(t, openMemory)
}

func TestStoreContract_Redis(t *testing.T) {
	storetest.RunContract(t, openRedis)
}

func TestRedisLayout(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	s := kvstore.New(kvstore.NewRedisBackendWithClient(client), "pos:")

	p := storetest.MustProduct(t, s, "BMS001", "Rice 1kg", "60", 100)

	assert.True(t, mr.Exists("pos:product:1"))
	assert.Equal(t, uint(1), p.ID)
	members, err := mr.Members("pos:products")
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, members)
	code, err := mr.Get("pos:product:code:bms001")
	require.NoError(t, err)
	assert.Equal(t, "1", code)
	seq, err := mr.Get("pos:seq:product")
	require.NoError(t, err)
	assert.Equal(t, "1", seq)

	require.NoError(t, s.DeleteProduct(ctx, p.ID))
	assert.False(t, mr.Exists("pos:product:1"))
	assert.False(t, mr.Exists("pos:product:code:bms001"))
}

func TestRedisConflict(t *testing.T) {
	ctx := context.Background()
	_, client := newRedis(t)
	s := kvstore.New(kvstore.NewRedisBackendWithClient(client), "pos:")
	p := storetest.MustProduct(t, s, "BMS005", "Lays Chips", "20", 10)

	// a second register sells the same product between our read and commit
	other := kvstore.New(kvstore.NewRedisBackendWithClient(client), "pos:")
	err := s.Atomic(ctx, func(tx store.Store) error {
		if _, err := tx.FindProduct(ctx, p.ID); err != nil {
			return err
		}
		require.NoError(t, other.AdjustStock(ctx, p.ID, -4))
		return tx.AdjustStock(ctx, p.ID, -5)
	})
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

	got, err := s.FindProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.StockQuantity)

	retried := store.RunAtomic(ctx, s, store.RetryPolicy{MaxRetries: 2}, func(tx store.Store) error {
		return tx.AdjustStock(ctx, p.ID, -8)
	})
	assert.ErrorIs(t, retried, shared.ErrInsufficientStock)
}

func TestRedisBackend_RepeatableRead(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	b := kvstore.NewRedisBackendWithClient(client)
	require.NoError(t, mr.Set("k", "1"))

	err := b.Update(ctx, func(tx kvstore.Txn) error {
		v, err := tx.Get("k")
		require.NoError(t, err)
		assert.Equal(t, "1", string(v))
		_, err = tx.Get("absent")
		assert.ErrorIs(t, err, kvstore.ErrKeyNotFound)

		require.NoError(t, client.Set(ctx, "k", "2", 0).Err())
		require.NoError(t, client.Set(ctx, "absent", "x", 0).Err())

		v, err = tx.Get("k")
		require.NoError(t, err)
		assert.Equal(t, "1", string(v))
		_, err = tx.Get("absent")
		assert.ErrorIs(t, err, kvstore.ErrKeyNotFound)

		tx.Put("k", []byte("3"))
		return nil
	})
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "2", got)
}

func TestMemoryBackend_Isolation(t *testing.T) {
	ctx := context.Background()
	b := kvstore.NewMemoryBackend()
	boom := errors.New("boom")

	err := b.Update(ctx, func(tx kvstore.Txn) error {
		tx.Put("a", []byte("1"))
		tx.AddMember("s", "x")
		v, err := tx.Get("a")
		require.NoError(t, err)
		assert.Equal(t, "1", string(v))
		m, err := tx.Members("s")
		require.NoError(t, err)
		assert.Equal(t, []string{"x"}, m)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	require.NoError(t, b.View(ctx, func(tx kvstore.Txn) error {
		_, err := tx.Get("a")
		assert.ErrorIs(t, err, kvstore.ErrKeyNotFound)
		m, err := tx.Members("s")
		require.NoError(t, err)
		assert.Empty(t, m)
		return nil
	}))

	require.NoError(t, b.Update(ctx, func(tx kvstore.Txn) error {
		tx.Put("a", []byte("2"))
		tx.AddMember("s", "x")
		tx.AddMember("s", "y")
		return nil
	}))
	require.NoError(t, b.Update(ctx, func(tx kvstore.Txn) error {
		tx.Delete("a")
		tx.RemoveMember("s", "x")
		_, err := tx.Get("a")
		assert.ErrorIs(t, err, kvstore.ErrKeyNotFound)
		m, err := tx.Members("s")
		require.NoError(t, err)
		assert.Equal(t, []string{"y"}, m)
		return nil
	}))
}

func TestProductRecordDropsCategoryName(t *testing.T) {
	ctx := context.Background()
	s := kvstore.New(kvstore.NewMemoryBackend(), "")
	p := &models.Product{ProductCode: "X1", Name: "Thing", CategoryName: "Ghost"}
	require.NoError(t, s.CreateProduct(ctx, p))

	got, err := s.FindProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.CategoryName)
	assert.Equal(t, "x1", got.CodeKey)
}
