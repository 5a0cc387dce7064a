package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"go-pos-mart/internal/models"
	"go-pos-mart/internal/shared"
	"go-pos-mart/internal/store"
)

const (
	// DefaultPaymentMethod is used when checkout names none.
	DefaultPaymentMethod = "Cash"
	// RecentSalesLimit is how many sales the dashboard shows.
	RecentSalesLimit = 10
)

// Recorder receives sale outcomes; the metrics package implements it.
type Recorder interface {
	CheckoutCommitted(sale *models.Sale, elapsed time.Duration)
	CheckoutFailed(code string, elapsed time.Duration)
	SaleReversed(sale *models.Sale)
	CartWarning(code string)
}

type nopRecorder struct{}

func (nopRecorder) CheckoutCommitted(*models.Sale, time.Duration) {}
func (nopRecorder) CheckoutFailed(string, time.Duration)          {}
func (nopRecorder) SaleReversed(*models.Sale)                     {}
func (nopRecorder) CartWarning(string)                            {}

// CheckoutRequest carries the customer details typed at the till.
type CheckoutRequest struct {
	CustomerName    string `json:"customer_name"`
	CustomerContact string `json:"customer_contact"`
	CustomerEmail   string `json:"customer_email"`
	PaymentMethod   string `json:"payment_method"`
}

// Engine commits carts into sales and reverses sales.
type Engine struct {
	store   store.Store
	retry   store.RetryPolicy
	metrics Recorder
	now     func() time.Time
	log     *zap.Logger
}

type Option func(*Engine)

func WithRetryPolicy(p store.RetryPolicy) Option { return func(e *Engine) { e.retry = p } }
func WithMetrics(r Recorder) Option             { return func(e *Engine) { e.metrics = r } }
func WithClock(now func() time.Time) Option     { return func(e *Engine) { e.now = now } }
func WithLogger(l *zap.Logger) Option           { return func(e *Engine) { e.log = l } }

func NewEngine(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:   s,
		retry:   store.DefaultRetryPolicy,
		metrics: nopRecorder{},
		now:     time.Now,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.Named("sales")
	return e
}

// AddToCart looks the product up and adds qty of it to cart. Soft errors
// (OUT_OF_STOCK, STOCK_EXCEEDED) describe what happened to a cart that is
// still usable.
func (e *Engine) AddToCart(ctx context.Context, cart *Cart, productID uint, qty int) error {
	if qty < 1 {
		return shared.ErrInvalidInput.Errorf("quantity must be at least 1")
	}
	p, err := e.store.FindProduct(ctx, productID)
	if err != nil {
		return err
	}
	err = cart.Add(p, qty)
	e.warn(err)
	return err
}

// UpdateCartQuantity applies delta to a line, see Cart.SetQuantity.
func (e *Engine) UpdateCartQuantity(cart *Cart, productID uint, delta int) error {
	err := cart.SetQuantity(productID, delta)
	e.warn(err)
	return err
}

func (e *Engine) warn(err error) {
	if shared.IsSoft(err) {
		e.metrics.CartWarning(shared.Code(err))
	}
}

// Checkout commits cart as one sale. Customer resolution, the sale and its
// items, and every stock decrement happen in a single unit of work; if any
// step fails nothing is written, the cart is left as it was and the error
// wraps COMMIT_FAILED around the cause. On success the cart is emptied.
func (e *Engine) Checkout(ctx context.Context, cart *Cart, req CheckoutRequest) (*models.Sale, error) {
	// 1. Validate the request before touching storage
	if cart.IsEmpty() {
		return nil, shared.ErrEmptyCart
	}
	name := strings.TrimSpace(req.CustomerName)
	contact := strings.TrimSpace(req.CustomerContact)
	if name == "" || contact == "" {
		return nil, shared.ErrMissingCustomerInfo
	}
	method := strings.TrimSpace(req.PaymentMethod)
	if method == "" {
		method = DefaultPaymentMethod
	}
	lines := cart.Lines()
	start := time.Now()

	// 2. One unit of work, re-run whole if it loses a race
	var sale *models.Sale
	err := store.RunAtomic(ctx, e.store, e.retry, func(tx store.Store) error {
		customer, err := resolveCustomer(ctx, tx, name, contact, strings.TrimSpace(req.CustomerEmail))
		if err != nil {
			return err
		}

		totals := ComputeTotals(lines)
		s := &models.Sale{
			CustomerID:    customer.ID,
			CustomerName:  name,
			ContactNumber: contact,
			PaymentMethod: method,
			TotalAmount:   totals.Total,
			SaleDate:      e.now().UTC(),
			Items:         make([]models.SaleItem, 0, len(lines)),
		}
		for _, l := range lines {
			s.Items = append(s.Items, models.SaleItem{
				ProductID:   l.ProductID,
				ProductCode: l.ProductCode,
				ProductName: l.Name,
				Quantity:    l.Quantity,
				UnitPrice:   l.UnitPrice,
				Subtotal:    l.Subtotal(),
			})
		}
		if err := tx.CreateSale(ctx, s); err != nil {
			return err
		}

		// 3. Deduct Stock; the store refuses to go below zero
		for _, l := range lines {
			switch err := tx.AdjustStock(ctx, l.ProductID, -l.Quantity); {
			case errors.Is(err, shared.ErrInsufficientStock):
				return shared.ErrInsufficientStock.Errorf("Insufficient stock for %s", l.Name)
			case errors.Is(err, shared.ErrNotFound):
				return shared.ErrNotFound.Errorf("%s is no longer in the catalog", l.Name)
			case err != nil:
				return err
			}
		}
		sale = s
		return nil
	})
	elapsed := time.Since(start)
	if err != nil {
		e.metrics.CheckoutFailed(shared.Code(err), elapsed)
		e.log.Warn("checkout failed", zap.String("contact", contact), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", shared.ErrCommitFailed, err)
	}

	// 4. Commit succeeded
	cart.Clear()
	e.metrics.CheckoutCommitted(sale, elapsed)
	e.log.Info("sale committed",
		zap.Uint("sale_id", sale.ID),
		zap.String("total", sale.TotalAmount.StringFixed(2)),
		zap.Int("items", len(sale.Items)))
	return sale, nil
}

// resolveCustomer reuses the customer with this exact contact number or
// registers a new one. Losing the insert to another till registering the
// same contact is reported as a conflict so the unit re-runs and finds it.
func resolveCustomer(ctx context.Context, tx store.Store, name, contact, email string) (*models.Customer, error) {
	c, err := tx.FindCustomerByContact(ctx, contact)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	c = &models.Customer{Name: name, ContactNumber: contact, Email: email}
	if err := tx.CreateCustomer(ctx, c); err != nil {
		if errors.Is(err, shared.ErrDuplicateContact) {
			return nil, fmt.Errorf("%w: %v", shared.ErrConcurrencyConflict, err)
		}
		return nil, err
	}
	return c, nil
}

// DeleteSale reverses a sale: every item's quantity goes back on the shelf
// and the sale and its items are removed, all in one unit of work. Items
// whose product has since been deleted are skipped.
func (e *Engine) DeleteSale(ctx context.Context, id uint) error {
	var sale *models.Sale
	err := store.RunAtomic(ctx, e.store, e.retry, func(tx store.Store) error {
		var err error
		if sale, err = tx.FindSale(ctx, id); err != nil {
			return err
		}
		for _, it := range sale.Items {
			err := tx.AdjustStock(ctx, it.ProductID, it.Quantity)
			if errors.Is(err, shared.ErrNotFound) {
				e.log.Info("restock skipped, product gone",
					zap.Uint("sale_id", id), zap.Uint("product_id", it.ProductID))
				continue
			}
			if err != nil {
				return err
			}
		}
		return tx.DeleteSale(ctx, id)
	})
	switch {
	case err == nil:
	case sale == nil && errors.Is(err, shared.ErrNotFound):
		return err
	default:
		return fmt.Errorf("%w: %w", shared.ErrCommitFailed, err)
	}

	e.metrics.SaleReversed(sale)
	e.log.Info("sale reversed", zap.Uint("sale_id", id))
	return nil
}

func (e *Engine) FindSale(ctx context.Context, id uint) (*models.Sale, error) {
	return e.store.FindSale(ctx, id)
}

// ListSales returns sales newest first; limit <= 0 returns all.
func (e *Engine) ListSales(ctx context.Context, limit int) ([]models.Sale, error) {
	return e.store.ListSales(ctx, limit)
}

func (e *Engine) Stats(ctx context.Context) (*models.DashboardStats, error) {
	return e.store.Stats(ctx, RecentSalesLimit)
}

// SalesReport totals sales in [from, to] by payment method.
func (e *Engine) SalesReport(ctx context.Context, from, to time.Time) (*models.SalesReport, error) {
	if to.Before(from) {
		return nil, shared.ErrInvalidInput.Errorf("report range ends before it starts")
	}
	return e.store.SalesReport(ctx, from, to)
}
