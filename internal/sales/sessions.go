package sales

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type session struct {
	mu      sync.Mutex
	cart    *Cart
	touched time.Time
}

// Sessions keeps one cart per till session. Carts idle longer than the TTL
// are dropped by Sweep.
type Sessions struct {
	mu    sync.Mutex
	carts map[string]*session
	ttl   time.Duration
	now   func() time.Time
}

func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{carts: make(map[string]*session), ttl: ttl, now: time.Now}
}

// Open starts a session with an empty cart and returns its id.
func (r *Sessions) Open() string {
	id := uuid.NewString()
	r.mu.Lock()
	r.carts[id] = &session{cart: NewCart(), touched: r.now()}
	r.mu.Unlock()
	return id
}

// WithCart runs fn with the session's cart held exclusively. A session that
// was swept or never seen starts over with an empty cart.
func (r *Sessions) WithCart(id string, fn func(*Cart) error) error {
	r.mu.Lock()
	s, ok := r.carts[id]
	if !ok {
		s = &session{cart: NewCart()}
		r.carts[id] = s
	}
	s.touched = r.now()
	r.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.cart)
}

// Close discards a session's cart.
func (r *Sessions) Close(id string) {
	r.mu.Lock()
	delete(r.carts, id)
	r.mu.Unlock()
}

// Sweep drops idle sessions and reports how many went.
func (r *Sessions) Sweep() int {
	cutoff := r.now().Add(-r.ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.carts {
		if s.touched.Before(cutoff) {
			delete(r.carts, id)
			n++
		}
	}
	return n
}

func (r *Sessions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.carts)
}

// Run sweeps every interval until ctx is done.
func (r *Sessions) Run(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Sweep()
		}
	}
}
