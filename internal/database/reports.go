package database

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"go-pos-mart/internal/models"
)

// Stats builds the dashboard overview with the recent newest sales.
func (s *Store) Stats(ctx context.Context, recent int) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	db := s.conn(ctx)

	// 1. Count Orders
	if err := db.Model(&models.Sale{}).Count(&stats.TotalSales).Error; err != nil {
		return nil, translate(err, nil)
	}

	// 2. Calculate Revenue
	// COALESCE ensures we get 0 instead of NULL if no sales exist
	err := db.Model(&models.Sale{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Row().Scan(&stats.TotalRevenue)
	if err != nil {
		return nil, translate(err, nil)
	}

	// 3. Catalog and customer sizes
	if err := db.Model(&models.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, translate(err, nil)
	}
	if err := db.Model(&models.Customer{}).Count(&stats.TotalCustomers).Error; err != nil {
		return nil, translate(err, nil)
	}

	// 4. Recent Transactions
	stats.RecentSales, err = s.ListSales(ctx, recent)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// SalesReport totals sales whose sale_date falls within [from, to],
// broken down by payment method.
func (s *Store) SalesReport(ctx context.Context, from, to time.Time) (*models.SalesReport, error) {
	from, to = from.UTC(), to.UTC()
	report := models.SalesReport{From: from, To: to, PaymentMethods: []models.PaymentMethodTotal{}}

	rows, err := s.conn(ctx).Model(&models.Sale{}).
		Select("payment_method, COALESCE(SUM(total_amount), 0), COUNT(*)").
		Where("sale_date BETWEEN ? AND ?", from, to).
		Group("payment_method").
		Order("payment_method").
		Rows()
	if err != nil {
		return nil, translate(err, nil)
	}
	defer rows.Close()

	report.TotalRevenue = decimal.Zero
	for rows.Next() {
		var pm models.PaymentMethodTotal
		if err := rows.Scan(&pm.PaymentMethod, &pm.TotalAmount, &pm.Count); err != nil {
			return nil, translate(err, nil)
		}
		report.TotalRevenue = report.TotalRevenue.Add(pm.TotalAmount)
		report.TotalCount += pm.Count
		report.PaymentMethods = append(report.PaymentMethods, pm)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, nil)
	}
	return &report, nil
}
