package database

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"go-pos-mart/internal/models"
	"go-pos-mart/internal/shared"
	"go-pos-mart/internal/store"
)

// Store is the relational adapter of store.Store.
type Store struct {
	db   *gorm.DB
	inTx bool
}

var _ store.Store = (*Store)(nil)

// New wraps an opened and migrated *gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// Atomic runs fn inside a database transaction. Nested calls join the
// outer transaction.
func (s *Store) Atomic(ctx context.Context, fn func(tx store.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, inTx: true})
	})
	if err == nil {
		return nil
	}
	// fn's own domain errors pass through untouched
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	return translate(err, nil)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// exists reports whether a row with id exists in model's table.
func (s *Store) exists(ctx context.Context, model any, id uint) error {
	var n int64
	if err := s.conn(ctx).Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return translate(err, nil)
	}
	if n == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (s *Store) deleteByID(ctx context.Context, model any, id uint) error {
	res := s.conn(ctx).Delete(model, id)
	if res.Error != nil {
		return translate(res.Error, nil)
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func likePattern(q string) string {
	return "%" + strings.ToLower(strings.TrimSpace(q)) + "%"
}

// --- Categories ---

func (s *Store) FindCategory(ctx context.Context, id uint) (*models.Category, error) {
	var c models.Category
	if err := s.conn(ctx).First(&c, id).Error; err != nil {
		return nil, translate(err, nil)
	}
	return &c, nil
}

func (s *Store) FindCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	var c models.Category
	if err := s.conn(ctx).Where("name_key = ?", models.Key(name)).First(&c).Error; err != nil {
		return nil, translate(err, nil)
	}
	return &c, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	var list []models.Category
	if err := s.conn(ctx).Order("name").Find(&list).Error; err != nil {
		return nil, translate(err, nil)
	}
	return list, nil
}

func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	c.Normalize()
	return translate(s.conn(ctx).Create(c).Error, shared.ErrDuplicateName)
}

func (s *Store) UpdateCategory(ctx context.Context, c *models.Category) error {
	if err := s.exists(ctx, &models.Category{}, c.ID); err != nil {
		return err
	}
	c.Normalize()
	return translate(s.conn(ctx).Save(c).Error, shared.ErrDuplicateName)
}

func (s *Store) DeleteCategory(ctx context.Context, id uint) error {
	return s.deleteByID(ctx, &models.Category{}, id)
}

// --- Products ---

func (s *Store) FindProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := s.conn(ctx).First(&p, id).Error; err != nil {
		return nil, translate(err, nil)
	}
	return &p, nil
}

func (s *Store) FindProductByCode(ctx context.Context, code string) (*models.Product, error) {
	var p models.Product
	if err := s.conn(ctx).Where("code_key = ?", models.Key(code)).First(&p).Error; err != nil {
		return nil, translate(err, nil)
	}
	return &p, nil
}

func (s *Store) ListProducts(ctx context.Context, f store.ProductFilter) ([]models.Product, error) {
	q := s.conn(ctx).Model(&models.Product{})
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if strings.TrimSpace(f.Search) != "" {
		like := likePattern(f.Search)
		q = q.Where("(LOWER(product_code) LIKE ? OR LOWER(name) LIKE ?)", like, like)
	}

	var list []models.Product
	if err := q.Order("name").Order("id").Find(&list).Error; err != nil {
		return nil, translate(err, nil)
	}
	return list, nil
}

func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	p.Normalize()
	return translate(s.conn(ctx).Create(p).Error, shared.ErrDuplicateCode)
}

func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	if err := s.exists(ctx, &models.Product{}, p.ID); err != nil {
		return err
	}
	p.Normalize()
	return translate(s.conn(ctx).Save(p).Error, shared.ErrDuplicateCode)
}

func (s *Store) DeleteProduct(ctx context.Context, id uint) error {
	return s.deleteByID(ctx, &models.Product{}, id)
}

// AdjustStock is a conditional update: the row only changes while the new
// quantity stays non-negative, so concurrent sellers cannot oversell.
func (s *Store) AdjustStock(ctx context.Context, id uint, delta int) error {
	if delta == 0 {
		return s.exists(ctx, &models.Product{}, id)
	}
	res := s.conn(ctx).Model(&models.Product{}).
		Where("id = ? AND stock_quantity + ? >= 0", id, delta).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", delta))
	if res.Error != nil {
		return translate(res.Error, nil)
	}
	if res.RowsAffected == 1 {
		return nil
	}
	if err := s.exists(ctx, &models.Product{}, id); err != nil {
		return err
	}
	return shared.ErrInsufficientStock
}

// --- Customers ---

func (s *Store) FindCustomer(ctx context.Context, id uint) (*models.Customer, error) {
	var c models.Customer
	if err := s.conn(ctx).First(&c, id).Error; err != nil {
		return nil, translate(err, nil)
	}
	return &c, nil
}

func (s *Store) FindCustomerByContact(ctx context.Context, contact string) (*models.Customer, error) {
	var c models.Customer
	err := s.conn(ctx).Where("contact_number = ?", strings.TrimSpace(contact)).First(&c).Error
	if err != nil {
		return nil, translate(err, nil)
	}
	return &c, nil
}

func (s *Store) ListCustomers(ctx context.Context, search string) ([]models.Customer, error) {
	q := s.conn(ctx).Model(&models.Customer{})
	if strings.TrimSpace(search) != "" {
		like := likePattern(search)
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(contact_number) LIKE ?)", like, like)
	}
	var list []models.Customer
	if err := q.Order("name").Order("id").Find(&list).Error; err != nil {
		return nil, translate(err, nil)
	}
	return list, nil
}

func (s *Store) CreateCustomer(ctx context.Context, c *models.Customer) error {
	c.Normalize()
	return translate(s.conn(ctx).Create(c).Error, shared.ErrDuplicateContact)
}

func (s *Store) UpdateCustomer(ctx context.Context, c *models.Customer) error {
	if err := s.exists(ctx, &models.Customer{}, c.ID); err != nil {
		return err
	}
	c.Normalize()
	return translate(s.conn(ctx).Save(c).Error, shared.ErrDuplicateContact)
}

func (s *Store) DeleteCustomer(ctx context.Context, id uint) error {
	return s.deleteByID(ctx, &models.Customer{}, id)
}

// --- Sales ---

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("sale_items.id")
}

func (s *Store) FindSale(ctx context.Context, id uint) (*models.Sale, error) {
	var sale models.Sale
	if err := s.conn(ctx).Preload("Items", orderedItems).First(&sale, id).Error; err != nil {
		return nil, translate(err, nil)
	}
	return &sale, nil
}

func (s *Store) ListSales(ctx context.Context, limit int) ([]models.Sale, error) {
	q := s.conn(ctx).Preload("Items", orderedItems).Order("sale_date desc").Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var list []models.Sale
	if err := q.Find(&list).Error; err != nil {
		return nil, translate(err, nil)
	}
	return list, nil
}

// CreateSale inserts the header; GORM inserts the nested items with it.
func (s *Store) CreateSale(ctx context.Context, sale *models.Sale) error {
	return translate(s.conn(ctx).Create(sale).Error, nil)
}

// DeleteSale removes items explicitly; not every SQLite connection enforces
// the ON DELETE CASCADE foreign key.
func (s *Store) DeleteSale(ctx context.Context, id uint) error {
	if err := s.exists(ctx, &models.Sale{}, id); err != nil {
		return err
	}
	if err := s.conn(ctx).Where("sale_id = ?", id).Delete(&models.SaleItem{}).Error; err != nil {
		return translate(err, nil)
	}
	return s.deleteByID(ctx, &models.Sale{}, id)
}
