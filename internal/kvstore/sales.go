package kvstore

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"go-pos-mart/internal/models"
)

// Sales are stored whole: the header JSON carries its items.
const (
	saleEntity     = "sale"
	saleItemEntity = "sale_item"
)

func (s *Store) getSale(t Txn, id uint) (*models.Sale, error) {
	var sale models.Sale
	if err := getJSON(t, s.recordKey(saleEntity, id), &sale); err != nil {
		return nil, err
	}
	if sale.Items == nil {
		sale.Items = []models.SaleItem{}
	}
	return &sale, nil
}

func (s *Store) allSales(t Txn) ([]models.Sale, error) {
	ids, err := s.ids(t, saleEntity)
	if err != nil {
		return nil, err
	}
	list := make([]models.Sale, 0, len(ids))
	for _, id := range ids {
		sale, err := s.getSale(t, id)
		if err != nil {
			return nil, err
		}
		list = append(list, *sale)
	}
	return list, nil
}

// newestFirst orders by sale_date then id, both descending.
func newestFirst(a, b models.Sale) int {
	if c := b.SaleDate.Compare(a.SaleDate); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}

func (s *Store) FindSale(ctx context.Context, id uint) (sale *models.Sale, err error) {
	err = s.read(ctx, func(t Txn) error {
		sale, err = s.getSale(t, id)
		return err
	})
	return sale, err
}

func (s *Store) ListSales(ctx context.Context, limit int) ([]models.Sale, error) {
	var list []models.Sale
	err := s.read(ctx, func(t Txn) (err error) {
		list, err = s.allSales(t)
		return err
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(list, newestFirst)
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (s *Store) CreateSale(ctx context.Context, sale *models.Sale) error {
	return s.write(ctx, func(t Txn) error {
		id, err := s.nextID(t, saleEntity)
		if err != nil {
			return err
		}
		sale.ID = id
		s.stamp(&sale.SaleDate)
		for i := range sale.Items {
			itemID, err := s.nextID(t, saleItemEntity)
			if err != nil {
				return err
			}
			sale.Items[i].ID = itemID
			sale.Items[i].SaleID = id
		}
		s.addToSet(t, saleEntity, id)
		return putJSON(t, s.recordKey(saleEntity, id), sale)
	})
}

func (s *Store) DeleteSale(ctx context.Context, id uint) error {
	return s.write(ctx, func(t Txn) error {
		if _, err := s.getSale(t, id); err != nil {
			return err
		}
		t.Delete(s.recordKey(saleEntity, id))
		s.removeFromSet(t, saleEntity, id)
		return nil
	})
}

// --- Reports ---

func (s *Store) Stats(ctx context.Context, recent int) (*models.DashboardStats, error) {
	stats := models.DashboardStats{TotalRevenue: decimal.Zero}
	var sales []models.Sale
	err := s.read(ctx, func(t Txn) error {
		var err error
		if sales, err = s.allSales(t); err != nil {
			return err
		}
		products, err := t.Members(s.setKey(productEntity))
		if err != nil {
			return err
		}
		customers, err := t.Members(s.setKey(customerEntity))
		if err != nil {
			return err
		}
		stats.TotalProducts = int64(len(products))
		stats.TotalCustomers = int64(len(customers))
		return nil
	})
	if err != nil {
		return nil, err
	}

	stats.TotalSales = int64(len(sales))
	for _, sale := range sales {
		stats.TotalRevenue = stats.TotalRevenue.Add(sale.TotalAmount)
	}
	slices.SortFunc(sales, newestFirst)
	if recent > 0 && len(sales) > recent {
		sales = sales[:recent]
	}
	stats.RecentSales = sales
	return &stats, nil
}

func (s *Store) SalesReport(ctx context.Context, from, to time.Time) (*models.SalesReport, error) {
	from, to = from.UTC(), to.UTC()
	var sales []models.Sale
	err := s.read(ctx, func(t Txn) (err error) {
		sales, err = s.allSales(t)
		return err
	})
	if err != nil {
		return nil, err
	}

	report := models.SalesReport{From: from, To: to, TotalRevenue: decimal.Zero}
	byMethod := map[string]*models.PaymentMethodTotal{}
	for _, sale := range sales {
		if sale.SaleDate.Before(from) || sale.SaleDate.After(to) {
			continue
		}
		pm, ok := byMethod[sale.PaymentMethod]
		if !ok {
			pm = &models.PaymentMethodTotal{PaymentMethod: sale.PaymentMethod, TotalAmount: decimal.Zero}
			byMethod[sale.PaymentMethod] = pm
		}
		pm.TotalAmount = pm.TotalAmount.Add(sale.TotalAmount)
		pm.Count++
		report.TotalRevenue = report.TotalRevenue.Add(sale.TotalAmount)
		report.TotalCount++
	}

	report.PaymentMethods = make([]models.PaymentMethodTotal, 0, len(byMethod))
	for _, pm := range byMethod {
		report.PaymentMethods = append(report.PaymentMethods, *pm)
	}
	slices.SortFunc(report.PaymentMethods, func(a, b models.PaymentMethodTotal) int {
		return cmp.Compare(a.PaymentMethod, b.PaymentMethod)
	})
	return &report, nil
}
