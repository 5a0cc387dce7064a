package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"go-pos-mart/internal/models"
	"go-pos-mart/internal/shared"
	"go-pos-mart/internal/store"
)

// Store is the key-value adapter of store.Store. Records are JSON values
// under "<prefix><entity>:<id>", id sets under "<prefix><entity>s", unique
// lookups under "<prefix><entity>:<index>:<key>" and id counters under
// "<prefix>seq:<entity>".
type Store struct {
	backend Backend
	prefix  string
	txn     Txn // set inside Atomic
	now     func() time.Time
}

var _ store.Store = (*Store)(nil)

// New builds a Store over backend. prefix namespaces every key.
func New(backend Backend, prefix string) *Store {
	return &Store{backend: backend, prefix: prefix, now: time.Now}
}

func (s *Store) Atomic(ctx context.Context, fn func(tx store.Store) error) error {
	if s.txn != nil {
		return fn(s)
	}
	return s.backend.Update(ctx, func(t Txn) error {
		return fn(&Store{backend: s.backend, prefix: s.prefix, txn: t, now: s.now})
	})
}

func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) read(ctx context.Context, fn func(Txn) error) error {
	if s.txn != nil {
		return fn(s.txn)
	}
	return s.backend.View(ctx, fn)
}

func (s *Store) write(ctx context.Context, fn func(Txn) error) error {
	if s.txn != nil {
		return fn(s.txn)
	}
	return s.backend.Update(ctx, fn)
}

// --- keys and codec ---

func (s *Store) key(parts ...string) string {
	return s.prefix + strings.Join(parts, ":")
}

func (s *Store) recordKey(entity string, id uint) string {
	return s.key(entity, strconv.FormatUint(uint64(id), 10))
}

func (s *Store) setKey(entity string) string {
	return s.key(entity + "s")
}

func (s *Store) indexKey(entity, index, value string) string {
	return s.key(entity, index, value)
}

func (s *Store) nextID(t Txn, entity string) (uint, error) {
	k := s.key("seq", entity)
	var n uint64
	raw, err := t.Get(k)
	switch {
	case err == nil:
		if n, err = strconv.ParseUint(string(raw), 10, 64); err != nil {
			return 0, fmt.Errorf("kvstore: corrupt sequence %s: %w", k, err)
		}
	case !errors.Is(err, ErrKeyNotFound):
		return 0, err
	}
	n++
	t.Put(k, []byte(strconv.FormatUint(n, 10)))
	return uint(n), nil
}

func getJSON(t Txn, key string, v any) error {
	raw, err := t.Get(key)
	if errors.Is(err, ErrKeyNotFound) {
		return shared.ErrNotFound
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("kvstore: decode %s: %w", key, err)
	}
	return nil
}

func putJSON(t Txn, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("kvstore: encode %s: %w", key, err)
	}
	t.Put(key, raw)
	return nil
}

// lookup resolves a unique index entry to an id; 0 means absent.
func lookup(t Txn, key string) (uint, error) {
	raw, err := t.Get(key)
	if errors.Is(err, ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("kvstore: corrupt index %s: %w", key, err)
	}
	return uint(id), nil
}

func putIndex(t Txn, key string, id uint) {
	t.Put(key, []byte(strconv.FormatUint(uint64(id), 10)))
}

// claimIndex points key at id unless another record already owns it.
func claimIndex(t Txn, key string, id uint, dup error) error {
	owner, err := lookup(t, key)
	if err != nil {
		return err
	}
	if owner != 0 && owner != id {
		return dup
	}
	putIndex(t, key, id)
	return nil
}

// ids returns the members of a set as ids, sorted ascending.
func (s *Store) ids(t Txn, entity string) ([]uint, error) {
	members, err := t.Members(s.setKey(entity))
	if err != nil {
		return nil, err
	}
	out := make([]uint, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseUint(m, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("kvstore: corrupt id %q in %s set: %w", m, entity, err)
		}
		out = append(out, uint(id))
	}
	slices.Sort(out)
	return out, nil
}

func (s *Store) addToSet(t Txn, entity string, id uint) {
	t.AddMember(s.setKey(entity), strconv.FormatUint(uint64(id), 10))
}

func (s *Store) removeFromSet(t Txn, entity string, id uint) {
	t.RemoveMember(s.setKey(entity), strconv.FormatUint(uint64(id), 10))
}

func (s *Store) stamp(ts *time.Time) {
	if ts.IsZero() {
		*ts = s.now().UTC()
	}
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}

// --- Categories ---

const categoryEntity = "category"

func (s *Store) getCategory(t Txn, id uint) (*models.Category, error) {
	var c models.Category
	if err := getJSON(t, s.recordKey(categoryEntity, id), &c); err != nil {
		return nil, err
	}
	c.Normalize()
	return &c, nil
}

func (s *Store) FindCategory(ctx context.Context, id uint) (c *models.Category, err error) {
	err = s.read(ctx, func(t Txn) error {
		c, err = s.getCategory(t, id)
		return err
	})
	return c, err
}

func (s *Store) FindCategoryByName(ctx context.Context, name string) (c *models.Category, err error) {
	err = s.read(ctx, func(t Txn) error {
		id, err := lookup(t, s.indexKey(categoryEntity, "name", models.Key(name)))
		if err != nil {
			return err
		}
		if id == 0 {
			return shared.ErrNotFound
		}
		c, err = s.getCategory(t, id)
		return err
	})
	return c, err
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	list := []models.Category{}
	err := s.read(ctx, func(t Txn) error {
		ids, err := s.ids(t, categoryEntity)
		if err != nil {
			return err
		}
		for _, id := range ids {
			c, err := s.getCategory(t, id)
			if err != nil {
				return err
			}
			list = append(list, *c)
		}
		return nil
	})
	slices.SortStableFunc(list, func(a, b models.Category) int {
		return strings.Compare(a.Name, b.Name)
	})
	return list, err
}

func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	c.Normalize()
	return s.write(ctx, func(t Txn) error {
		nameKey := s.indexKey(categoryEntity, "name", c.NameKey)
		if owner, err := lookup(t, nameKey); err != nil {
			return err
		} else if owner != 0 {
			return shared.ErrDuplicateName
		}
		id, err := s.nextID(t, categoryEntity)
		if err != nil {
			return err
		}
		c.ID = id
		s.stamp(&c.CreatedAt)
		putIndex(t, nameKey, id)
		s.addToSet(t, categoryEntity, id)
		return putJSON(t, s.recordKey(categoryEntity, id), c)
	})
}

func (s *Store) UpdateCategory(ctx context.Context, c *models.Category) error {
	c.Normalize()
	return s.write(ctx, func(t Txn) error {
		old, err := s.getCategory(t, c.ID)
		if err != nil {
			return err
		}
		if old.NameKey != c.NameKey {
			if err := claimIndex(t, s.indexKey(categoryEntity, "name", c.NameKey), c.ID, shared.ErrDuplicateName); err != nil {
				return err
			}
			t.Delete(s.indexKey(categoryEntity, "name", old.NameKey))
		}
		c.CreatedAt = old.CreatedAt
		return putJSON(t, s.recordKey(categoryEntity, c.ID), c)
	})
}

func (s *Store) DeleteCategory(ctx context.Context, id uint) error {
	return s.write(ctx, func(t Txn) error {
		c, err := s.getCategory(t, id)
		if err != nil {
			return err
		}
		t.Delete(s.indexKey(categoryEntity, "name", c.NameKey))
		t.Delete(s.recordKey(categoryEntity, id))
		s.removeFromSet(t, categoryEntity, id)
		return nil
	})
}

// --- Products ---

const productEntity = "product"

func (s *Store) getProduct(t Txn, id uint) (*models.Product, error) {
	var p models.Product
	if err := getJSON(t, s.recordKey(productEntity, id), &p); err != nil {
		return nil, err
	}
	p.Normalize()
	return &p, nil
}

func (s *Store) FindProduct(ctx context.Context, id uint) (p *models.Product, err error) {
	err = s.read(ctx, func(t Txn) error {
		p, err = s.getProduct(t, id)
		return err
	})
	return p, err
}

func (s *Store) FindProductByCode(ctx context.Context, code string) (p *models.Product, err error) {
	err = s.read(ctx, func(t Txn) error {
		id, err := lookup(t, s.indexKey(productEntity, "code", models.Key(code)))
		if err != nil {
			return err
		}
		if id == 0 {
			return shared.ErrNotFound
		}
		p, err = s.getProduct(t, id)
		return err
	})
	return p, err
}

func (s *Store) ListProducts(ctx context.Context, f store.ProductFilter) ([]models.Product, error) {
	search := models.Key(f.Search)
	list := []models.Product{}
	err := s.read(ctx, func(t Txn) error {
		ids, err := s.ids(t, productEntity)
		if err != nil {
			return err
		}
		for _, id := range ids {
			p, err := s.getProduct(t, id)
			if err != nil {
				return err
			}
			if f.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *f.CategoryID) {
				continue
			}
			if search != "" && !contains(p.ProductCode, search) && !contains(p.Name, search) {
				continue
			}
			list = append(list, *p)
		}
		return nil
	})
	slices.SortStableFunc(list, func(a, b models.Product) int {
		return strings.Compare(a.Name, b.Name)
	})
	return list, err
}

func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	p.Normalize()
	return s.write(ctx, func(t Txn) error {
		codeKey := s.indexKey(productEntity, "code", p.CodeKey)
		if owner, err := lookup(t, codeKey); err != nil {
			return err
		} else if owner != 0 {
			return shared.ErrDuplicateCode
		}
		id, err := s.nextID(t, productEntity)
		if err != nil {
			return err
		}
		p.ID = id
		s.stamp(&p.CreatedAt)
		putIndex(t, codeKey, id)
		s.addToSet(t, productEntity, id)
		return s.putProduct(t, p)
	})
}

func (s *Store) putProduct(t Txn, p *models.Product) error {
	rec := *p
	rec.CategoryName = ""
	return putJSON(t, s.recordKey(productEntity, p.ID), &rec)
}

func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	p.Normalize()
	return s.write(ctx, func(t Txn) error {
		old, err := s.getProduct(t, p.ID)
		if err != nil {
			return err
		}
		if old.CodeKey != p.CodeKey {
			if err := claimIndex(t, s.indexKey(productEntity, "code", p.CodeKey), p.ID, shared.ErrDuplicateCode); err != nil {
				return err
			}
			t.Delete(s.indexKey(productEntity, "code", old.CodeKey))
		}
		p.CreatedAt = old.CreatedAt
		return s.putProduct(t, p)
	})
}

func (s *Store) DeleteProduct(ctx context.Context, id uint) error {
	return s.write(ctx, func(t Txn) error {
		p, err := s.getProduct(t, id)
		if err != nil {
			return err
		}
		t.Delete(s.indexKey(productEntity, "code", p.CodeKey))
		t.Delete(s.recordKey(productEntity, id))
		s.removeFromSet(t, productEntity, id)
		return nil
	})
}

func (s *Store) AdjustStock(ctx context.Context, id uint, delta int) error {
	return s.write(ctx, func(t Txn) error {
		p, err := s.getProduct(t, id)
		if err != nil {
			return err
		}
		if delta == 0 {
			return nil
		}
		if delta < -p.StockQuantity {
			return shared.ErrInsufficientStock
		}
		if delta > math.MaxInt-p.StockQuantity {
			return shared.ErrInvalidInput.Errorf("stock of product %d would overflow", id)
		}
		p.StockQuantity += delta
		return s.putProduct(t, p)
	})
}

// --- Customers ---

const customerEntity = "customer"

func (s *Store) getCustomer(t Txn, id uint) (*models.Customer, error) {
	var c models.Customer
	if err := getJSON(t, s.recordKey(customerEntity, id), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) FindCustomer(ctx context.Context, id uint) (c *models.Customer, err error) {
	err = s.read(ctx, func(t Txn) error {
		c, err = s.getCustomer(t, id)
		return err
	})
	return c, err
}

func (s *Store) FindCustomerByContact(ctx context.Context, contact string) (c *models.Customer, err error) {
	err = s.read(ctx, func(t Txn) error {
		id, err := lookup(t, s.indexKey(customerEntity, "contact", strings.TrimSpace(contact)))
		if err != nil {
			return err
		}
		if id == 0 {
			return shared.ErrNotFound
		}
		c, err = s.getCustomer(t, id)
		return err
	})
	return c, err
}

func (s *Store) ListCustomers(ctx context.Context, search string) ([]models.Customer, error) {
	q := models.Key(search)
	list := []models.Customer{}
	err := s.read(ctx, func(t Txn) error {
		ids, err := s.ids(t, customerEntity)
		if err != nil {
			return err
		}
		for _, id := range ids {
			c, err := s.getCustomer(t, id)
			if err != nil {
				return err
			}
			if q != "" && !contains(c.Name, q) && !contains(c.ContactNumber, q) {
				continue
			}
			list = append(list, *c)
		}
		return nil
	})
	slices.SortStableFunc(list, func(a, b models.Customer) int {
		return strings.Compare(a.Name, b.Name)
	})
	return list, err
}

func (s *Store) CreateCustomer(ctx context.Context, c *models.Customer) error {
	c.Normalize()
	return s.write(ctx, func(t Txn) error {
		contactKey := s.indexKey(customerEntity, "contact", c.ContactNumber)
		if owner, err := lookup(t, contactKey); err != nil {
			return err
		} else if owner != 0 {
			return shared.ErrDuplicateContact
		}
		id, err := s.nextID(t, customerEntity)
		if err != nil {
			return err
		}
		c.ID = id
		s.stamp(&c.CreatedAt)
		putIndex(t, contactKey, id)
		s.addToSet(t, customerEntity, id)
		return putJSON(t, s.recordKey(customerEntity, id), c)
	})
}

func (s *Store) UpdateCustomer(ctx context.Context, c *models.Customer) error {
	c.Normalize()
	return s.write(ctx, func(t Txn) error {
		old, err := s.getCustomer(t, c.ID)
		if err != nil {
			return err
		}
		if old.ContactNumber != c.ContactNumber {
			if err := claimIndex(t, s.indexKey(customerEntity, "contact", c.ContactNumber), c.ID, shared.ErrDuplicateContact); err != nil {
				return err
			}
			t.Delete(s.indexKey(customerEntity, "contact", old.ContactNumber))
		}
		c.CreatedAt = old.CreatedAt
		return putJSON(t, s.recordKey(customerEntity, c.ID), c)
	})
}

func (s *Store) DeleteCustomer(ctx context.Context, id uint) error {
	return s.write(ctx, func(t Txn) error {
		c, err := s.getCustomer(t, id)
		if err != nil {
			return err
		}
		t.Delete(s.indexKey(customerEntity, "contact", c.ContactNumber))
		t.Delete(s.recordKey(customerEntity, id))
		s.removeFromSet(t, customerEntity, id)
		return nil
	})
}
