package sales

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-pos-mart/internal/models"
)

func TestSessions(t *testing.T) {
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	r := NewSessions(time.Hour)
	r.now = func() time.Time { return now }

	a := r.Open()
	b := r.Open()
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, r.Len())

	cola := &models.Product{ID: 1, Name: "Cola", StockQuantity: 5}
	require.NoError(t, r.WithCart(a, func(c *Cart) error { return c.Add(cola, 2) }))
	require.NoError(t, r.WithCart(b, func(c *Cart) error {
		assert.True(t, c.IsEmpty(), "carts are per session")
		return nil
	}))

	now = now.Add(45 * time.Minute)
	require.NoError(t, r.WithCart(a, func(*Cart) error { return nil }))
	now = now.Add(30 * time.Minute)

	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, 1, r.Len())
	require.NoError(t, r.WithCart(a, func(c *Cart) error {
		assert.Equal(t, 2, c.Lines()[0].Quantity)
		return nil
	}))

	// a swept session comes back empty
	require.NoError(t, r.WithCart(b, func(c *Cart) error {
		assert.True(t, c.IsEmpty())
		return nil
	}))

	r.Close(a)
	assert.Equal(t, 1, r.Len())
}

func TestSessions_SerializesCartAccess(t *testing.T) {
	r := NewSessions(time.Hour)
	id := r.Open()
	p := &models.Product{ID: 1, Name: "Chips", StockQuantity: 1000}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.WithCart(id, func(c *Cart) error { return c.Add(p, 1) })
		}()
	}
	wg.Wait()

	require.NoError(t, r.WithCart(id, func(c *Cart) error {
		assert.Equal(t, 50, c.Lines()[0].Quantity)
		return nil
	}))
}
