// Package catalog manages products, categories and customers.
package catalog

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"go-pos-mart/internal/models"
	"go-pos-mart/internal/shared"
	"go-pos-mart/internal/store"
)

// Uncategorized labels products whose category is unset or was deleted.
const Uncategorized = "Uncategorized"

// MaxStockDelta bounds a single manual stock adjustment in either direction.
const MaxStockDelta = 1_000_000

type Service struct {
	store    store.Store
	log      *zap.Logger
	validate *validator.Validate
}

func NewService(s store.Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: s, log: log.Named("catalog"), validate: newValidator()}
}

// --- Products ---

func (s *Service) FindProduct(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.store.FindProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.nameCategories(ctx, s.store, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) FindProductByCode(ctx context.Context, code string) (*models.Product, error) {
	p, err := s.store.FindProductByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.nameCategories(ctx, s.store, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListProducts returns products ordered by name. The filter's category and
// search terms must both match.
func (s *Service) ListProducts(ctx context.Context, f store.ProductFilter) ([]models.Product, error) {
	list, err := s.store.ListProducts(ctx, f)
	if err != nil {
		return nil, err
	}
	ptrs := make([]*models.Product, len(list))
	for i := range list {
		ptrs[i] = &list[i]
	}
	if err := s.nameCategories(ctx, s.store, ptrs...); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	in.trim()
	if err := s.checkProduct(in); err != nil {
		return nil, err
	}
	p := &models.Product{
		ProductCode:   in.ProductCode,
		Name:          in.Name,
		CategoryID:    in.CategoryID,
		Price:         in.Price,
		StockQuantity: in.StockQuantity,
		Description:   in.Description,
	}

	err := s.store.Atomic(ctx, func(tx store.Store) error {
		if err := codeFree(ctx, tx, p.ProductCode, 0); err != nil {
			return err
		}
		if err := tx.CreateProduct(ctx, p); err != nil {
			return err
		}
		return s.nameCategories(ctx, tx, p)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("product created", zap.Uint("id", p.ID), zap.String("code", p.ProductCode))
	return p, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id uint, in ProductInput) (*models.Product, error) {
	in.trim()
	if err := s.checkProduct(in); err != nil {
		return nil, err
	}

	var p *models.Product
	err := s.store.Atomic(ctx, func(tx store.Store) error {
		var err error
		if p, err = tx.FindProduct(ctx, id); err != nil {
			return err
		}
		if models.Key(in.ProductCode) != p.CodeKey {
			if err := codeFree(ctx, tx, in.ProductCode, id); err != nil {
				return err
			}
		}
		p.ProductCode = in.ProductCode
		p.Name = in.Name
		p.CategoryID = in.CategoryID
		p.Price = in.Price
		p.StockQuantity = in.StockQuantity
		p.Description = in.Description
		if err := tx.UpdateProduct(ctx, p); err != nil {
			return err
		}
		return s.nameCategories(ctx, tx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.log.Info("product deleted", zap.Uint("id", id))
	return nil
}

// AdjustStock applies a signed stock delta and returns the updated product.
// A delta that would leave stock negative fails with INSUFFICIENT_STOCK.
func (s *Service) AdjustStock(ctx context.Context, id uint, delta int) (*models.Product, error) {
	if delta > MaxStockDelta || delta < -MaxStockDelta {
		return nil, shared.ErrInvalidInput.Errorf("delta: must be within ±%d", MaxStockDelta)
	}
	var p *models.Product
	err := s.store.Atomic(ctx, func(tx store.Store) error {
		if err := tx.AdjustStock(ctx, id, delta); err != nil {
			return err
		}
		var err error
		if p, err = tx.FindProduct(ctx, id); err != nil {
			return err
		}
		return s.nameCategories(ctx, tx, p)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("stock adjusted", zap.Uint("id", id), zap.Int("delta", delta), zap.Int("stock", p.StockQuantity))
	return p, nil
}

func (s *Service) checkProduct(in ProductInput) error {
	if err := s.check(in); err != nil {
		return err
	}
	if in.Price.IsNegative() {
		return shared.ErrInvalidInput.Errorf("price: must not be negative")
	}
	return nil
}

// codeFree fails with DUPLICATE_CODE when code belongs to a product other
// than self.
func codeFree(ctx context.Context, tx store.Store, code string, self uint) error {
	existing, err := tx.FindProductByCode(ctx, code)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != self:
		return shared.ErrDuplicateCode.Errorf("Product code %s already exists", existing.ProductCode)
	}
	return nil
}

// nameCategories resolves CategoryName for each product.
func (s *Service) nameCategories(ctx context.Context, st store.Store, products ...*models.Product) error {
	if len(products) == 0 {
		return nil
	}
	cats, err := st.ListCategories(ctx)
	if err != nil {
		return err
	}
	names := make(map[uint]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}
	for _, p := range products {
		p.CategoryName = Uncategorized
		if p.CategoryID != nil {
			if n, ok := names[*p.CategoryID]; ok {
				p.CategoryName = n
			}
		}
	}
	return nil
}

// --- Categories ---

func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *Service) FindCategory(ctx context.Context, id uint) (*models.Category, error) {
	return s.store.FindCategory(ctx, id)
}

func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	in.trim()
	if err := s.check(in); err != nil {
		return nil, err
	}
	c := &models.Category{Name: in.Name, Description: in.Description}
	err := s.store.Atomic(ctx, func(tx store.Store) error {
		if err := nameFree(ctx, tx, c.Name, 0); err != nil {
			return err
		}
		return tx.CreateCategory(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("category created", zap.Uint("id", c.ID), zap.String("name", c.Name))
	return c, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id uint, in CategoryInput) (*models.Category, error) {
	in.trim()
	if err := s.check(in); err != nil {
		return nil, err
	}
	var c *models.Category
	err := s.store.Atomic(ctx, func(tx store.Store) error {
		var err error
		if c, err = tx.FindCategory(ctx, id); err != nil {
			return err
		}
		if models.Key(in.Name) != c.NameKey {
			if err := nameFree(ctx, tx, in.Name, id); err != nil {
				return err
			}
		}
		c.Name = in.Name
		c.Description = in.Description
		return tx.UpdateCategory(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCategory removes the category only; its products keep the dangling
// id and list as Uncategorized.
func (s *Service) DeleteCategory(ctx context.Context, id uint) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.log.Info("category deleted", zap.Uint("id", id))
	return nil
}

func nameFree(ctx context.Context, tx store.Store, name string, self uint) error {
	existing, err := tx.FindCategoryByName(ctx, name)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != self:
		return shared.ErrDuplicateName.Errorf("Category %s already exists", existing.Name)
	}
	return nil
}

// --- Customers ---

func (s *Service) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	return s.store.ListCustomers(ctx, "")
}

// SearchCustomers matches q as a case-insensitive substring of the name or
// contact number.
func (s *Service) SearchCustomers(ctx context.Context, q string) ([]models.Customer, error) {
	return s.store.ListCustomers(ctx, q)
}

func (s *Service) FindCustomer(ctx context.Context, id uint) (*models.Customer, error) {
	return s.store.FindCustomer(ctx, id)
}

func (s *Service) CreateCustomer(ctx context.Context, in CustomerInput) (*models.Customer, error) {
	in.trim()
	if err := s.check(in); err != nil {
		return nil, err
	}
	c := &models.Customer{Name: in.Name, ContactNumber: in.ContactNumber, Email: in.Email}
	err := s.store.Atomic(ctx, func(tx store.Store) error {
		if err := contactFree(ctx, tx, c.ContactNumber, 0); err != nil {
			return err
		}
		return tx.CreateCustomer(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) UpdateCustomer(ctx context.Context, id uint, in CustomerInput) (*models.Customer, error) {
	in.trim()
	if err := s.check(in); err != nil {
		return nil, err
	}
	var c *models.Customer
	err := s.store.Atomic(ctx, func(tx store.Store) error {
		var err error
		if c, err = tx.FindCustomer(ctx, id); err != nil {
			return err
		}
		if in.ContactNumber != c.ContactNumber {
			if err := contactFree(ctx, tx, in.ContactNumber, id); err != nil {
				return err
			}
		}
		c.Name = in.Name
		c.ContactNumber = in.ContactNumber
		c.Email = in.Email
		return tx.UpdateCustomer(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) DeleteCustomer(ctx context.Context, id uint) error {
	return s.store.DeleteCustomer(ctx, id)
}

func contactFree(ctx context.Context, tx store.Store, contact string, self uint) error {
	existing, err := tx.FindCustomerByContact(ctx, contact)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != self:
		return shared.ErrDuplicateContact
	}
	return nil
}
