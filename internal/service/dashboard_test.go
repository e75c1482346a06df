package service_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utsav306/farmconnect-sub000/internal/models"
	"github.com/utsav306/farmconnect-sub000/internal/service/servicetest"
)

func TestFarmerDashboard(t *testing.T) {
	ctx := context.Background()
	f := newCheckout(t)
	env := f.env
	kale := env.DB.AddProduct(f.farmerG.ID, "Kale", "25", 100)
	retired := env.DB.AddProduct(f.farmerF.ID, "Retired", "5", 1)
	require.NoError(t, env.DB.Products.SetActive(ctx, retired.ID, false))

	// Order 1: 2 apples + 1 honey for F, 2 kale for G. Stays Confirmed.
	addToCart(t, env, f.buyer.ID, kale.ID, 2)
	f.place(t, "Pickup")

	// Order 2: 3 apples, delivered.
	addToCart(t, env, f.buyer.ID, f.apples.ID, 3)
	second := f.place(t, "Pickup")
	env.DB.SetOrderStatus(second.ID, models.OrderStatusDelivered)

	// Order 3: 1 honey, cancelled by the buyer.
	addToCart(t, env, f.buyer.ID, f.honey.ID, 1)
	third := f.place(t, "Pickup")
	_, err := env.Services.Orders.CancelOrder(ctx, third.ID, f.buyer.ID)
	require.NoError(t, err)

	d, err := env.Services.Dashboard.FarmerDashboard(ctx, f.farmerF.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, d.TotalProducts)
	assert.Equal(t, 2, d.ActiveProducts)
	// apples: 10-2-3 = 5 left, honey: 3-1 = 2 left after the cancel restock.
	assert.Equal(t, 2, d.LowStockProducts)
	assert.Equal(t, 3, d.TotalOrders)
	assert.Equal(t, 1, d.PendingOrders)
	assert.True(t, d.TotalRevenue.Equal(decimal.NewFromInt(250)), d.TotalRevenue.String())

	require.Len(t, d.TopProducts, 2)
	assert.Equal(t, "Apples", d.TopProducts[0].Name)
	assert.Equal(t, 5, d.TopProducts[0].QuantitySold)
	assert.True(t, d.TopProducts[0].Revenue.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, "Honey", d.TopProducts[1].Name)
	assert.Equal(t, 1, d.TopProducts[1].QuantitySold)

	forG, err := env.Services.Dashboard.FarmerDashboard(ctx, f.farmerG.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, forG.TotalOrders)
	assert.True(t, forG.TotalRevenue.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, 0, forG.LowStockProducts)
}

func TestFarmerDashboardEmpty(t *testing.T) {
	env := servicetest.NewEnv()
	farmer := env.DB.AddUser("newbie", models.RoleFarmer)

	d, err := env.Services.Dashboard.FarmerDashboard(context.Background(), farmer.ID)
	require.NoError(t, err)
	assert.Zero(t, d.TotalProducts)
	assert.True(t, d.TotalRevenue.IsZero())
	assert.NotNil(t, d.TopProducts)
}
