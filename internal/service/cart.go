package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/utsav306/farmconnect-sub000/internal/apperr"
	"github.com/utsav306/farmconnect-sub000/internal/models"
)

// CartService handles the per-user shopping cart
type CartService struct {
	carts    CartStore
	products ProductStore
	validate *validator.Validate
	now      Clock
}

// NewCartService creates a new cart service
func NewCartService(carts CartStore, products ProductStore, validate *validator.Validate) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		validate: validate,
		now:      time.Now,
	}
}

// SetClock replaces the time source.
func (s *CartService) SetClock(now Clock) { s.now = now }

// GetCart returns the user's cart, creating an empty one on first access
func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.carts.GetOrCreate(ctx, userID, s.now())
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, cart)
}

// AddItem adds quantity (default 1) of a product, merging with an existing
// line for the same product
func (s *CartService) AddItem(ctx context.Context, userID uuid.UUID, req models.CartItemRequest) (*models.Cart, error) {
	if err := Validate(s.validate, req); err != nil {
		return nil, err
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	if quantity < 1 {
		return nil, apperr.ErrInvalidQuantity
	}

	product, err := s.activeProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.GetOrCreate(ctx, userID, s.now())
	if err != nil {
		return nil, err
	}

	if err := cart.AddItem(product, quantity); err != nil {
		return nil, err
	}

	return s.save(ctx, cart)
}

// UpdateItemQuantity overwrites the quantity of an existing line. The new
// quantity must fit in the product's stock, as it must when adding.
func (s *CartService) UpdateItemQuantity(ctx context.Context, userID uuid.UUID, req models.CartItemRequest) (*models.Cart, error) {
	if err := Validate(s.validate, req); err != nil {
		return nil, err
	}
	if req.Quantity == nil || *req.Quantity <= 0 {
		return nil, apperr.ErrInvalidQuantity
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, apperr.InvalidArg("productId must be a valid id")
	}

	cart, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !cart.Has(productID) {
		return nil, apperr.ErrCartItemNotFound
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Stock < *req.Quantity {
		return nil, apperr.ErrInsufficientStock
	}

	if err := cart.SetQuantity(productID, *req.Quantity); err != nil {
		return nil, err
	}
	return s.save(ctx, cart)
}

// RemoveItem drops a line; removing a product that is not in the cart is
// not an error
func (s *CartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*models.Cart, error) {
	cart, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart.RemoveItem(productID)
	return s.save(ctx, cart)
}

// ClearCart empties the cart
func (s *CartService) ClearCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.carts.GetOrCreate(ctx, userID, s.now())
	if err != nil {
		return nil, err
	}

	cart.Clear()
	return s.save(ctx, cart)
}

func (s *CartService) save(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	cart.Recalculate()
	cart.UpdatedAt = s.now()
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	return s.populate(ctx, cart)
}

func (s *CartService) activeProduct(ctx context.Context, rawID string) (*models.Product, error) {
	productID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, apperr.InvalidArg("productId must be a valid id")
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, apperr.ErrProductNotFound
	}
	return product, nil
}

// populate joins current product data onto each line for display.
func (s *CartService) populate(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	if cart.IsEmpty() {
		cart.Items = []models.CartItem{}
		return cart, nil
	}

	products, err := s.products.GetByIDs(ctx, cart.ProductIDs())
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	for i := range cart.Items {
		p, ok := byID[cart.Items[i].ProductID]
		if !ok {
			continue
		}
		cart.Items[i].Product = &models.CartProduct{
			Name:       p.Name,
			Image:      p.Image,
			Unit:       p.Unit,
			Stock:      p.Stock,
			Category:   p.Category,
			Farmer:     p.FarmerID,
			FarmerName: p.FarmerName,
			IsActive:   p.IsActive,
		}
	}
	return cart, nil
}
