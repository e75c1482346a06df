package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/utsav306/farmconnect-sub000/internal/apperr"
	"github.com/utsav306/farmconnect-sub000/internal/models"
)

const productSelect = `
	SELECT p.id, p.name, p.description, p.price, p.image, p.category, p.stock, p.unit,
	       p.rating, p.farmer_id, p.is_active, p.created_at, p.updated_at,
	       COALESCE(u.username, '') AS farmer_name
	FROM products p
	LEFT JOIN users u ON u.id = p.farmer_id
`

var productOrder = map[models.ProductSort]string{
	models.SortNewest:    "p.created_at DESC, p.id",
	models.SortPriceAsc:  "p.price ASC, p.created_at DESC",
	models.SortPriceDesc: "p.price DESC, p.created_at DESC",
	models.SortRating:    "p.rating DESC, p.created_at DESC",
}

// ProductRepository handles product data access
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// GetByID retrieves a product by ID, active or not
func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	query := productSelect + ` WHERE p.id = $1`

	var product models.Product
	if err := r.db.GetContext(ctx, &product, query, id); err != nil {
		return nil, translate(err, "get product", apperr.ErrProductNotFound)
	}

	return &product, nil
}

// GetByIDs retrieves the products with the given IDs; unknown IDs are skipped
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	query := productSelect + ` WHERE p.id = ANY($1::uuid[])`

	var products []models.Product
	if err := r.db.SelectContext(ctx, &products, query, uuidArray(ids)); err != nil {
		return nil, translate(err, "get products", nil)
	}

	return products, nil
}

// List retrieves one page of active products and the total number of matches
func (r *ProductRepository) List(ctx context.Context, q models.ProductQuery) ([]models.Product, int, error) {
	q = q.Normalize()

	where := []string{"p.is_active = TRUE"}
	var args []interface{}
	if q.Category != "" {
		args = append(args, q.Category)
		where = append(where, fmt.Sprintf("LOWER(p.category) = LOWER($%d)", len(args)))
	}
	if q.Search != "" {
		args = append(args, "%"+escapeLike(q.Search)+"%")
		where = append(where, fmt.Sprintf("(p.name ILIKE $%d OR p.description ILIKE $%d)", len(args), len(args)))
	}
	filter := " WHERE " + strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM products p` + filter
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, translate(err, "count products", nil)
	}

	query := productSelect + filter +
		fmt.Sprintf(" ORDER BY %s LIMIT $%d OFFSET $%d", productOrder[q.Sort], len(args)+1, len(args)+2)
	args = append(args, q.Limit, q.Offset())

	products := []models.Product{}
	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, 0, translate(err, "list products", nil)
	}

	return products, total, nil
}

// ListByFarmer retrieves every product of a farmer, including inactive ones
func (r *ProductRepository) ListByFarmer(ctx context.Context, farmerID uuid.UUID) ([]models.Product, error) {
	query := productSelect + ` WHERE p.farmer_id = $1 ORDER BY p.created_at DESC`

	products := []models.Product{}
	if err := r.db.SelectContext(ctx, &products, query, farmerID); err != nil {
		return nil, translate(err, "list farmer products", nil)
	}

	return products, nil
}

// Create creates a new product
func (r *ProductRepository) Create(ctx context.Context, product models.Product) (*models.Product, error) {
	query := `
		INSERT INTO products (name, description, price, image, category, stock, unit, rating, farmer_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	var id uuid.UUID
	err := r.db.GetContext(
		ctx,
		&id,
		query,
		product.Name,
		product.Description,
		product.Price,
		product.Image,
		product.Category,
		product.Stock,
		product.Unit,
		product.Rating,
		product.FarmerID,
		product.IsActive,
	)
	if err != nil {
		return nil, translate(err, "create product", nil)
	}

	return r.GetByID(ctx, id)
}

// Update updates a product's editable fields
func (r *ProductRepository) Update(ctx context.Context, product models.Product) (*models.Product, error) {
	query := `
		UPDATE products
		SET name = $1, description = $2, price = $3, image = $4, category = $5,
		    stock = $6, unit = $7, is_active = $8, updated_at = $9
		WHERE id = $10
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		product.Name,
		product.Description,
		product.Price,
		product.Image,
		product.Category,
		product.Stock,
		product.Unit,
		product.IsActive,
		time.Now(),
		product.ID,
	)
	if err != nil {
		return nil, translate(err, "update product", nil)
	}
	if err := expectRow(result, apperr.ErrProductNotFound); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, product.ID)
}

// SetActive flips the availability flag, used for soft deletion
func (r *ProductRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `UPDATE products SET is_active = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, active, time.Now(), id)
	if err != nil {
		return translate(err, "set product availability", nil)
	}

	return expectRow(result, apperr.ErrProductNotFound)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
