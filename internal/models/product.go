package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Unit is the sale unit of a product.
type Unit string

const (
	UnitKg    Unit = "kg"
	UnitGram  Unit = "g"
	UnitPound Unit = "lb"
	UnitPiece Unit = "piece"
	UnitDozen Unit = "dozen"
	UnitLiter Unit = "liter"
	UnitMl    Unit = "ml"
	UnitBunch Unit = "bunch"
	UnitBox   Unit = "box"
)

// DefaultUnit applies when a listing does not name one.
const DefaultUnit = UnitKg

// Valid reports membership in the unit enumeration.
func (u Unit) Valid() bool {
	switch u {
	case UnitKg, UnitGram, UnitPound, UnitPiece, UnitDozen, UnitLiter, UnitMl, UnitBunch, UnitBox:
		return true
	}
	return false
}

// Product is a farmer's listing. Deleting it only clears IsActive.
type Product struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Image       string          `db:"image" json:"image"`
	Category    string          `db:"category" json:"category"`
	Stock       int             `db:"stock" json:"stock"`
	Unit        Unit            `db:"unit" json:"unit"`
	Rating      decimal.Decimal `db:"rating" json:"rating"`
	FarmerID    uuid.UUID       `db:"farmer_id" json:"farmer"`
	IsActive    bool            `db:"is_active" json:"isActive"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updatedAt"`

	// Joined from users, not stored on the row
	FarmerName string `db:"farmer_name" json:"farmerName"`
}

// OwnedBy reports whether farmerID owns the product.
func (p *Product) OwnedBy(farmerID uuid.UUID) bool {
	return p.FarmerID == farmerID
}

// ProductSort is the listing order.
type ProductSort string

const (
	SortNewest    ProductSort = "newest"
	SortPriceAsc  ProductSort = "price_asc"
	SortPriceDesc ProductSort = "price_desc"
	SortRating    ProductSort = "rating"
)

// Valid reports membership in the sort enumeration.
func (s ProductSort) Valid() bool {
	switch s {
	case SortNewest, SortPriceAsc, SortPriceDesc, SortRating:
		return true
	}
	return false
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ProductQuery filters the public catalog.
type ProductQuery struct {
	Category string
	Search   string
	Sort     ProductSort
	Limit    int
	Page     int
}

// Normalize applies defaults and clamps paging.
func (q ProductQuery) Normalize() ProductQuery {
	if !q.Sort.Valid() {
		q.Sort = SortNewest
	}
	if q.Limit <= 0 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
	if q.Page < 1 {
		q.Page = 1
	}
	return q
}

// Offset is the number of rows to skip for the requested page.
func (q ProductQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// ProductPage is one page of the public catalog.
type ProductPage struct {
	Products      []Product `json:"products"`
	TotalProducts int       `json:"totalProducts"`
	CurrentPage   int       `json:"currentPage"`
	TotalPages    int       `json:"totalPages"`
}

// NewProductPage computes the page count for total rows.
func NewProductPage(products []Product, total int, q ProductQuery) ProductPage {
	if products == nil {
		products = []Product{}
	}
	pages := 0
	if q.Limit > 0 {
		pages = (total + q.Limit - 1) / q.Limit
	}
	return ProductPage{
		Products:      products,
		TotalProducts: total,
		CurrentPage:   q.Page,
		TotalPages:    pages,
	}
}

// ProductRequest is used for product creation.
type ProductRequest struct {
	Name        string           `json:"name" validate:"required,max=120"`
	Description string           `json:"description" validate:"max=2000"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
	Image       string           `json:"image" validate:"required,uri"`
	Category    string           `json:"category" validate:"required,max=50"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
	Unit        Unit             `json:"unit"`
}

// ProductUpdateRequest is used for partial product updates.
type ProductUpdateRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=120"`
	Description *string          `json:"description" validate:"omitempty,max=2000"`
	Price       *decimal.Decimal `json:"price"`
	Image       *string          `json:"image" validate:"omitempty,uri"`
	Category    *string          `json:"category" validate:"omitempty,min=1,max=50"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
	Unit        *Unit            `json:"unit"`
}
