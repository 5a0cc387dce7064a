// Package kvstore implements the storage port over a key-value backend:
// Redis in production, a process-local map for single-terminal use and tests.
package kvstore

import (
	"context"
	"errors"
	"slices"
)

// ErrKeyNotFound is returned by Txn.Get for an absent key.
var ErrKeyNotFound = errors.New("kvstore: key not found")

// Backend runs read-only or read-write transactions. Writes made inside
// Update become visible to other callers only when fn returns nil.
type Backend interface {
	View(ctx context.Context, fn func(Txn) error) error
	Update(ctx context.Context, fn func(Txn) error) error
	Close() error
}

// Txn reads through its own pending writes.
type Txn interface {
	Get(key string) ([]byte, error)
	Members(key string) ([]string, error)
	Put(key string, val []byte)
	Delete(key string)
	AddMember(set, member string)
	RemoveMember(set, member string)
}

// reader is the committed state a txn overlays.
type reader interface {
	get(key string) ([]byte, error)
	members(key string) ([]string, error)
}

// writer receives the buffered writes at commit.
type writer interface {
	set(key string, val []byte)
	del(key string)
	sadd(key string, members []string)
	srem(key string, members []string)
}

// txn buffers writes over a reader. A nil entry in values marks a delete;
// sets maps member -> true for add, false for remove.
//
// The first read of each key is remembered for the life of the txn, so a
// unit sees one snapshot per key and the backend reads (and watches) it once.
type txn struct {
	r      reader
	values map[string][]byte
	sets   map[string]map[string]bool

	reads   map[string][]byte // nil value: key was absent
	members map[string][]string
}

func newTxn(r reader) *txn {
	return &txn{
		r:       r,
		values:  make(map[string][]byte),
		sets:    make(map[string]map[string]bool),
		reads:   make(map[string][]byte),
		members: make(map[string][]string),
	}
}

func (t *txn) Get(key string) ([]byte, error) {
	if v, ok := t.values[key]; ok {
		if v == nil {
			return nil, ErrKeyNotFound
		}
		return v, nil
	}
	if v, ok := t.reads[key]; ok {
		if v == nil {
			return nil, ErrKeyNotFound
		}
		return v, nil
	}

	v, err := t.r.get(key)
	switch {
	case errors.Is(err, ErrKeyNotFound):
		t.reads[key] = nil
		return nil, err
	case err != nil:
		return nil, err
	}
	if v == nil {
		v = []byte{}
	}
	t.reads[key] = v
	return v, nil
}

func (t *txn) baseMembers(key string) ([]string, error) {
	if m, ok := t.members[key]; ok {
		return m, nil
	}
	m, err := t.r.members(key)
	if err != nil {
		return nil, err
	}
	t.members[key] = m
	return m, nil
}

func (t *txn) Members(key string) ([]string, error) {
	base, err := t.baseMembers(key)
	if err != nil {
		return nil, err
	}
	delta := t.sets[key]
	if len(delta) == 0 {
		return slices.Clone(base), nil
	}

	out := make([]string, 0, len(base)+len(delta))
	seen := make(map[string]bool, len(base))
	for _, m := range base {
		seen[m] = true
		if add, ok := delta[m]; ok && !add {
			continue
		}
		out = append(out, m)
	}
	for m, add := range delta {
		if add && !seen[m] {
			out = append(out, m)
		}
	}
	return out, nil
}

func (t *txn) Put(key string, val []byte) {
	if val == nil {
		val = []byte{}
	}
	t.values[key] = val
}

func (t *txn) Delete(key string) {
	t.values[key] = nil
}

func (t *txn) AddMember(set, member string) {
	t.delta(set)[member] = true
}

func (t *txn) RemoveMember(set, member string) {
	t.delta(set)[member] = false
}

func (t *txn) delta(set string) map[string]bool {
	d, ok := t.sets[set]
	if !ok {
		d = make(map[string]bool)
		t.sets[set] = d
	}
	return d
}

func (t *txn) dirty() bool {
	return len(t.values) > 0 || len(t.sets) > 0
}

func (t *txn) flush(w writer) {
	for k, v := range t.values {
		if v == nil {
			w.del(k)
		} else {
			w.set(k, v)
		}
	}
	for k, delta := range t.sets {
		var add, rem []string
		for m, isAdd := range delta {
			if isAdd {
				add = append(add, m)
			} else {
				rem = append(rem, m)
			}
		}
		if len(add) > 0 {
			w.sadd(k, add)
		}
		if len(rem) > 0 {
			w.srem(k, rem)
		}
	}
}
