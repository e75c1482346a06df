package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/utsav306/farmconnect-sub000/internal/apperr"
)

// Cart is the single pre-checkout selection of a user.
type Cart struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	UserID    uuid.UUID       `db:"user_id" json:"user"`
	Total     decimal.Decimal `db:"total" json:"total"`
	Version   int             `db:"version" json:"-"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time       `db:"updated_at" json:"updatedAt"`

	// Not stored directly in the carts table
	Items []CartItem `db:"-" json:"items"`
}

// CartItem is one line of a cart. Price is the unit price captured when the
// product was first added.
type CartItem struct {
	CartID    uuid.UUID       `db:"cart_id" json:"-"`
	ProductID uuid.UUID       `db:"product_id" json:"productId"`
	Quantity  int             `db:"quantity" json:"quantity"`
	Price     decimal.Decimal `db:"price" json:"price"`

	// Joined for display, not stored
	Product *CartProduct `db:"-" json:"product,omitempty"`
}

// CartProduct is the product data shown next to a cart line.
type CartProduct struct {
	Name       string    `json:"name"`
	Image      string    `json:"image"`
	Unit       Unit      `json:"unit"`
	Stock      int       `json:"stock"`
	Category   string    `json:"category"`
	Farmer     uuid.UUID `json:"farmer"`
	FarmerName string    `json:"farmerName"`
	IsActive   bool      `json:"isActive"`
}

// NewCart returns an empty cart for userID.
func NewCart(userID uuid.UUID, now time.Time) *Cart {
	return &Cart{
		ID:        uuid.New(),
		UserID:    userID,
		Total:     decimal.Zero,
		Items:     []CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Recalculate sets Total to the sum of price × quantity over the items.
func (c *Cart) Recalculate() {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(LineTotal(item.Price, item.Quantity))
	}
	c.Total = total
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) indexOf(productID uuid.UUID) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// AddItem merges quantity into the existing line for product or appends a
// new line at the product's current price. The resulting line quantity must
// fit in the product's stock.
func (c *Cart) AddItem(product *Product, quantity int) error {
	if quantity < 1 {
		return apperr.ErrInvalidQuantity
	}

	idx := c.indexOf(product.ID)
	wanted := quantity
	if idx >= 0 {
		wanted += c.Items[idx].Quantity
	}
	if product.Stock < wanted {
		return apperr.ErrInsufficientStock
	}

	if idx >= 0 {
		c.Items[idx].Quantity = wanted
	} else {
		c.Items = append(c.Items, CartItem{
			CartID:    c.ID,
			ProductID: product.ID,
			Quantity:  quantity,
			Price:     product.Price,
		})
	}
	c.Recalculate()
	return nil
}

// Has reports whether the cart holds a line for productID.
func (c *Cart) Has(productID uuid.UUID) bool {
	return c.indexOf(productID) >= 0
}

// SetQuantity overwrites the quantity of an existing line.
func (c *Cart) SetQuantity(productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return apperr.ErrInvalidQuantity
	}
	idx := c.indexOf(productID)
	if idx < 0 {
		return apperr.ErrCartItemNotFound
	}
	c.Items[idx].Quantity = quantity
	c.Recalculate()
	return nil
}

// RemoveItem drops the line for productID. Removing an absent line is a no-op.
func (c *Cart) RemoveItem(productID uuid.UUID) {
	kept := c.Items[:0]
	for _, item := range c.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	c.Items = kept
	c.Recalculate()
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.Recalculate()
}

// ProductIDs lists the products referenced by the cart in line order.
func (c *Cart) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(c.Items))
	for i, item := range c.Items {
		ids[i] = item.ProductID
	}
	return ids
}

// CartItemRequest is used for adding to and updating the cart.
type CartItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  *int   `json:"quantity"`
}
