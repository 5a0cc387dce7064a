package kvstore

import (
	"context"
	"sync"
)

// MemoryBackend keeps everything in process memory. Update transactions are
// serialized by a mutex, so they never conflict.
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string][]byte
	sets   map[string]map[string]struct{}
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		values: make(map[string][]byte),
		sets:   make(map[string]map[string]struct{}),
	}
}

func (b *MemoryBackend) View(ctx context.Context, fn func(Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return fn(newTxn(memReader{b}))
}

func (b *MemoryBackend) Update(ctx context.Context, fn func(Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	t := newTxn(memReader{b})
	if err := fn(t); err != nil {
		return err
	}
	t.flush(memWriter{b})
	return nil
}

func (b *MemoryBackend) Close() error { return nil }

type memReader struct{ b *MemoryBackend }

func (r memReader) get(key string) ([]byte, error) {
	v, ok := r.b.values[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return v, nil
}

func (r memReader) members(key string) ([]string, error) {
	set := r.b.sets[key]
	out := make([]string, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	return out, nil
}

type memWriter struct{ b *MemoryBackend }

func (w memWriter) set(key string, val []byte) { w.b.values[key] = val }

func (w memWriter) del(key string) {
	delete(w.b.values, key)
	delete(w.b.sets, key)
}

func (w memWriter) sadd(key string, members []string) {
	set, ok := w.b.sets[key]
	if !ok {
		set = make(map[string]struct{})
		w.b.sets[key] = set
	}
	for _, m := range members {
		set[m] = struct{}{}
	}
}

func (w memWriter) srem(key string, members []string) {
	set := w.b.sets[key]
	for _, m := range members {
		delete(set, m)
	}
	if len(set) == 0 {
		delete(w.b.sets, key)
	}
}
