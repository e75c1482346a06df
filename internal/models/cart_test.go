package models_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utsav306/farmconnect-sub000/internal/apperr"
	"github.com/utsav306/farmconnect-sub000/internal/models"
)

func product(price string, stock int) *models.Product {
	return &models.Product{ID: uuid.New(), Price: decimal.RequireFromString(price), Stock: stock, IsActive: true}
}

func TestCartTotalTracksItems(t *testing.T) {
	cart := models.NewCart(uuid.New(), time.Now())
	a, b := product("19.99", 10), product("0.5", 100)

	require.NoError(t, cart.AddItem(a, 3))
	require.NoError(t, cart.AddItem(b, 7))
	assert.True(t, cart.Total.Equal(decimal.RequireFromString("63.47")), cart.Total.String())

	require.NoError(t, cart.SetQuantity(a.ID, 1))
	assert.True(t, cart.Total.Equal(decimal.RequireFromString("23.49")), cart.Total.String())

	cart.RemoveItem(b.ID)
	assert.True(t, cart.Total.Equal(decimal.RequireFromString("19.99")))

	cart.Clear()
	assert.True(t, cart.IsEmpty())
	assert.True(t, cart.Total.IsZero())
}

func TestCartAddItem(t *testing.T) {
	cart := models.NewCart(uuid.New(), time.Now())
	p := product("10", 5)

	require.NoError(t, cart.AddItem(p, 2))
	require.NoError(t, cart.AddItem(p, 3))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)

	assert.ErrorIs(t, cart.AddItem(p, 1), apperr.ErrInsufficientStock)
	assert.ErrorIs(t, cart.AddItem(p, 0), apperr.ErrInvalidQuantity)
	assert.Equal(t, 5, cart.Items[0].Quantity)
}

func TestCartSetQuantity(t *testing.T) {
	cart := models.NewCart(uuid.New(), time.Now())
	p := product("10", 5)
	require.NoError(t, cart.AddItem(p, 1))

	assert.ErrorIs(t, cart.SetQuantity(p.ID, 0), apperr.ErrInvalidQuantity)
	assert.ErrorIs(t, cart.SetQuantity(p.ID, -2), apperr.ErrInvalidQuantity)
	assert.ErrorIs(t, cart.SetQuantity(uuid.New(), 1), apperr.ErrCartItemNotFound)
}
