package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LowStockThreshold marks products that need restocking.
const LowStockThreshold = 10

// TopProductsLimit caps FarmerDashboard.TopProducts.
const TopProductsLimit = 5

// FarmerDashboard summarises a farmer's catalog and sales.
type FarmerDashboard struct {
	TotalProducts    int             `json:"totalProducts"`
	ActiveProducts   int             `json:"activeProducts"`
	LowStockProducts int             `json:"lowStockProducts"`
	TotalOrders      int             `json:"totalOrders"`
	PendingOrders    int             `json:"pendingOrders"`
	TotalRevenue     decimal.Decimal `json:"totalRevenue"`
	TopProducts      []ProductSales  `json:"topProducts"`
}

// ProductSales is the sales total of one product.
type ProductSales struct {
	ProductID    uuid.UUID       `json:"productId"`
	Name         string          `json:"name"`
	QuantitySold int             `json:"quantitySold"`
	Revenue      decimal.Decimal `json:"revenue"`
}
