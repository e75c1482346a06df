package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/utsav306/farmconnect-sub000/internal/apperr"
	"github.com/utsav306/farmconnect-sub000/internal/cache"
	"github.com/utsav306/farmconnect-sub000/internal/models"
)

// ProductService handles catalog business logic
type ProductService struct {
	products ProductStore
	cache    cache.ProductCache
	validate *validator.Validate
	log      *zap.Logger
}

// NewProductService creates a new product service
func NewProductService(products ProductStore, productCache cache.ProductCache, validate *validator.Validate, log *zap.Logger) *ProductService {
	return &ProductService{
		products: products,
		cache:    productCache,
		validate: validate,
		log:      log,
	}
}

// ListProducts returns one page of the public catalog
func (s *ProductService) ListProducts(ctx context.Context, q models.ProductQuery) (models.ProductPage, error) {
	q = q.Normalize()
	q.Search = strings.TrimSpace(q.Search)
	q.Category = strings.TrimSpace(q.Category)

	if page, ok := s.cache.GetPage(ctx, q); ok {
		return *page, nil
	}

	products, total, err := s.products.List(ctx, q)
	if err != nil {
		return models.ProductPage{}, err
	}

	page := models.NewProductPage(products, total, q)
	s.cache.SetPage(ctx, q, page)
	return page, nil
}

// GetProduct returns an active product
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, apperr.ErrProductNotFound
	}
	return product, nil
}

// ListFarmerProducts returns all of a farmer's listings, inactive included
func (s *ProductService) ListFarmerProducts(ctx context.Context, farmerID uuid.UUID) ([]models.Product, error) {
	return s.products.ListByFarmer(ctx, farmerID)
}

// CreateProduct lists a new product for farmerID
func (s *ProductService) CreateProduct(ctx context.Context, farmerID uuid.UUID, req models.ProductRequest) (*models.Product, error) {
	if err := Validate(s.validate, req); err != nil {
		return nil, err
	}
	price := req.Price.Round(2)
	if err := checkPrice(price); err != nil {
		return nil, err
	}

	unit := req.Unit
	if unit == "" {
		unit = models.DefaultUnit
	}
	if !unit.Valid() {
		return nil, apperr.InvalidArgf("Unknown unit %q", unit)
	}

	stock := 0
	if req.Stock != nil {
		stock = *req.Stock
	}

	product := models.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Price:       price,
		Image:       req.Image,
		Category:    strings.TrimSpace(req.Category),
		Stock:       stock,
		Unit:        unit,
		Rating:      decimal.Zero,
		FarmerID:    farmerID,
		IsActive:    true,
	}

	created, err := s.products.Create(ctx, product)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)

	s.log.Info("Product created",
		zap.String("product_id", created.ID.String()),
		zap.String("farmer_id", farmerID.String()))

	return created, nil
}

// UpdateProduct applies a partial update; only the owner may do this
func (s *ProductService) UpdateProduct(ctx context.Context, farmerID, id uuid.UUID, req models.ProductUpdateRequest) (*models.Product, error) {
	if err := Validate(s.validate, req); err != nil {
		return nil, err
	}

	product, err := s.ownedProduct(ctx, farmerID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = strings.TrimSpace(*req.Description)
	}
	if req.Price != nil {
		price := req.Price.Round(2)
		if err := checkPrice(price); err != nil {
			return nil, err
		}
		product.Price = price
	}
	if req.Image != nil {
		product.Image = *req.Image
	}
	if req.Category != nil {
		product.Category = strings.TrimSpace(*req.Category)
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.Unit != nil {
		if !req.Unit.Valid() {
			return nil, apperr.InvalidArgf("Unknown unit %q", *req.Unit)
		}
		product.Unit = *req.Unit
	}

	updated, err := s.products.Update(ctx, *product)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)

	return updated, nil
}

// DeleteProduct soft-deletes a product; only the owner may do this
func (s *ProductService) DeleteProduct(ctx context.Context, farmerID, id uuid.UUID) error {
	if _, err := s.ownedProduct(ctx, farmerID, id); err != nil {
		return err
	}

	if err := s.products.SetActive(ctx, id, false); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)

	return nil
}

// DeactivateProduct hides any product from the catalog. Used by moderators.
func (s *ProductService) DeactivateProduct(ctx context.Context, moderatorID, id uuid.UUID) error {
	if _, err := s.products.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.products.SetActive(ctx, id, false); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)

	s.log.Info("Product deactivated by moderator",
		zap.String("product_id", id.String()),
		zap.String("moderator_id", moderatorID.String()))

	return nil
}

func (s *ProductService) ownedProduct(ctx context.Context, farmerID, id uuid.UUID) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.OwnedBy(farmerID) {
		return nil, apperr.ErrNotProductOwner
	}
	return product, nil
}

func checkPrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return apperr.InvalidArg("price must be greater than 0")
	}
	return nil
}
