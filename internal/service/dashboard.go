package service

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/utsav306/farmconnect-sub000/internal/models"
)

// DashboardService derives farmer analytics from catalog and orders
type DashboardService struct {
	products ProductStore
	orders   OrderStore
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(products ProductStore, orders OrderStore) *DashboardService {
	return &DashboardService{products: products, orders: orders}
}

// FarmerDashboard computes the dashboard for farmerID. Cancelled orders
// count towards TotalOrders but not towards revenue or sales.
func (s *DashboardService) FarmerDashboard(ctx context.Context, farmerID uuid.UUID) (*models.FarmerDashboard, error) {
	products, err := s.products.ListByFarmer(ctx, farmerID)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.ListByFarmer(ctx, farmerID)
	if err != nil {
		return nil, err
	}

	d := &models.FarmerDashboard{
		TotalProducts: len(products),
		TotalRevenue:  decimal.Zero,
		TopProducts:   []models.ProductSales{},
	}
	for _, p := range products {
		if p.IsActive {
			d.ActiveProducts++
			if p.Stock < models.LowStockThreshold {
				d.LowStockProducts++
			}
		}
	}

	sales := make(map[uuid.UUID]*models.ProductSales)
	for i := range orders {
		fo, ok := orders[i].ForFarmer(farmerID)
		if !ok {
			continue
		}
		d.TotalOrders++
		switch fo.Status {
		case models.OrderStatusPending, models.OrderStatusConfirmed, models.OrderStatusProcessing:
			d.PendingOrders++
		case models.OrderStatusCancelled:
			continue
		}
		d.TotalRevenue = d.TotalRevenue.Add(fo.FarmerSubtotal)

		for _, item := range fo.Items {
			ps, ok := sales[item.ProductID]
			if !ok {
				ps = &models.ProductSales{ProductID: item.ProductID, Name: item.Name, Revenue: decimal.Zero}
				sales[item.ProductID] = ps
			}
			ps.QuantitySold += item.Quantity
			ps.Revenue = ps.Revenue.Add(models.LineTotal(item.Price, item.Quantity))
		}
	}

	for _, ps := range sales {
		d.TopProducts = append(d.TopProducts, *ps)
	}
	sort.Slice(d.TopProducts, func(i, j int) bool {
		a, b := d.TopProducts[i], d.TopProducts[j]
		if !a.Revenue.Equal(b.Revenue) {
			return a.Revenue.GreaterThan(b.Revenue)
		}
		return a.Name < b.Name
	})
	if len(d.TopProducts) > models.TopProductsLimit {
		d.TopProducts = d.TopProducts[:models.TopProductsLimit]
	}

	return d, nil
}
