package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusConfirmed  OrderStatus = "Confirmed"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// Valid reports membership in the status enumeration.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Cancellable reports whether a buyer may still cancel.
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusConfirmed || s == OrderStatusPending
}

// Terminal reports whether no further transition is possible.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCancelled || s == OrderStatusDelivered
}

// CanTransitionTo encodes the fulfilment state machine:
// Pending → Confirmed → Processing → Shipped → Delivered, and
// Pending|Confirmed → Cancelled.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if next == OrderStatusCancelled {
		return s.Cancellable()
	}
	switch s {
	case OrderStatusPending:
		return next == OrderStatusConfirmed
	case OrderStatusConfirmed:
		return next == OrderStatusProcessing
	case OrderStatusProcessing:
		return next == OrderStatusShipped
	case OrderStatusShipped:
		return next == OrderStatusDelivered
	case OrderStatusDelivered, OrderStatusCancelled:
		return false
	}
	return false
}

// DeliveryMethodPickup is the delivery method that is free of charge.
const DeliveryMethodPickup = "Pickup"

// IsPickup reports whether method is self pickup.
func IsPickup(method string) bool {
	return strings.EqualFold(strings.TrimSpace(method), DeliveryMethodPickup)
}

// DeliveryFee is zero for pickup and the flat fee otherwise.
func DeliveryFee(method string, flat decimal.Decimal) decimal.Decimal {
	if IsPickup(method) {
		return decimal.Zero
	}
	return flat
}

// EstimateDelivery renders the delivery promise shown to the buyer.
func EstimateDelivery(method string, now time.Time) string {
	if IsPickup(method) {
		return "Ready in 15 min"
	}
	from := now.Add(30 * time.Minute)
	to := now.Add(45 * time.Minute)
	return "Today, " + from.Format("15:04") + " – " + to.Format("15:04")
}

// Order is a placed purchase. Items are a snapshot and never change; only
// Status moves.
type Order struct {
	ID                uuid.UUID       `db:"id" json:"id"`
	UserID            uuid.UUID       `db:"user_id" json:"user"`
	DeliveryAddress   string          `db:"delivery_address" json:"deliveryAddress"`
	PaymentMethod     string          `db:"payment_method" json:"paymentMethod"`
	DeliveryMethod    string          `db:"delivery_method" json:"deliveryMethod"`
	Subtotal          decimal.Decimal `db:"subtotal" json:"subtotal"`
	DeliveryFee       decimal.Decimal `db:"delivery_fee" json:"deliveryFee"`
	Total             decimal.Decimal `db:"total" json:"total"`
	Status            OrderStatus     `db:"status" json:"status"`
	EstimatedDelivery string          `db:"estimated_delivery" json:"estimatedDelivery"`
	CreatedAt         time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updatedAt"`

	// Not stored directly in the orders table
	Items []OrderItem `db:"-" json:"items"`
}

// OrderItem is the frozen copy of a cart line and its product.
type OrderItem struct {
	OrderID    uuid.UUID       `db:"order_id" json:"-"`
	ProductID  uuid.UUID       `db:"product_id" json:"product"`
	Name       string          `db:"name" json:"name"`
	Price      decimal.Decimal `db:"price" json:"price"`
	Quantity   int             `db:"quantity" json:"quantity"`
	FarmerID   uuid.UUID       `db:"farmer_id" json:"farmer"`
	FarmerName string          `db:"farmer_name" json:"farmerName"`
	Image      string          `db:"image" json:"image"`
	Unit       Unit            `db:"unit" json:"unit"`
}

// HasFarmer reports whether any line belongs to farmerID.
func (o *Order) HasFarmer(farmerID uuid.UUID) bool {
	for _, item := range o.Items {
		if item.FarmerID == farmerID {
			return true
		}
	}
	return false
}

// FarmerOrder is an order reshaped to a single farmer's lines.
type FarmerOrder struct {
	Order
	FarmerSubtotal decimal.Decimal `json:"farmerSubtotal"`
}

// ForFarmer projects the order onto farmerID's lines. ok is false when the
// farmer has none.
func (o *Order) ForFarmer(farmerID uuid.UUID) (fo FarmerOrder, ok bool) {
	fo.Order = *o
	fo.Order.Items = nil
	fo.FarmerSubtotal = decimal.Zero
	for _, item := range o.Items {
		if item.FarmerID != farmerID {
			continue
		}
		fo.Order.Items = append(fo.Order.Items, item)
		fo.FarmerSubtotal = fo.FarmerSubtotal.Add(LineTotal(item.Price, item.Quantity))
	}
	return fo, len(fo.Order.Items) > 0
}

// OrderRequest is used for checkout.
type OrderRequest struct {
	DeliveryAddress string `json:"deliveryAddress" validate:"max=500"`
	PaymentMethod   string `json:"paymentMethod" validate:"required,max=50"`
	DeliveryMethod  string `json:"deliveryMethod" validate:"required,max=50"`
}

// OrderStatusRequest is used by farmers advancing fulfilment.
type OrderStatusRequest struct {
	Status OrderStatus `json:"status" validate:"required"`
}
