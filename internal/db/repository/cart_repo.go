package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/utsav306/farmconnect-sub000/internal/apperr"
	"github.com/utsav306/farmconnect-sub000/internal/models"
)

// CartRepository handles cart data access. Writes are guarded by the
// version column; a stale cart is rejected with ErrConcurrentUpdate.
type CartRepository struct {
	db *sqlx.DB
}

// NewCartRepository creates a new cart repository
func NewCartRepository(db *sqlx.DB) *CartRepository {
	return &CartRepository{db: db}
}

// GetByUser retrieves the cart of a user
func (r *CartRepository) GetByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return getCart(ctx, r.db, userID)
}

// GetOrCreate retrieves the cart of a user, creating an empty one first if
// none exists. Concurrent first calls converge on the same row.
func (r *CartRepository) GetOrCreate(ctx context.Context, userID uuid.UUID, now time.Time) (*models.Cart, error) {
	query := `
		INSERT INTO carts (id, user_id, total, version, created_at, updated_at)
		VALUES ($1, $2, 0, 1, $3, $3)
		ON CONFLICT (user_id) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, uuid.New(), userID, now); err != nil {
		return nil, translate(err, "create cart", nil)
	}

	return getCart(ctx, r.db, userID)
}

// Save persists the cart lines and total and bumps cart.Version.
func (r *CartRepository) Save(ctx context.Context, cart *models.Cart) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := saveCart(ctx, tx, cart); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	cart.Version++
	return nil
}

func getCart(ctx context.Context, q sqlx.QueryerContext, userID uuid.UUID) (*models.Cart, error) {
	query := `
		SELECT id, user_id, total, version, created_at, updated_at
		FROM carts
		WHERE user_id = $1
	`

	var cart models.Cart
	if err := sqlx.GetContext(ctx, q, &cart, query, userID); err != nil {
		return nil, translate(err, "get cart", apperr.ErrCartNotFound)
	}

	itemsQuery := `
		SELECT cart_id, product_id, quantity, price
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY position ASC
	`

	cart.Items = []models.CartItem{}
	if err := sqlx.SelectContext(ctx, q, &cart.Items, itemsQuery, cart.ID); err != nil {
		return nil, translate(err, "get cart items", nil)
	}

	return &cart, nil
}

// saveCart writes cart inside tx without touching cart.Version; the caller
// increments it after commit. The stored total is always recomputed from
// the lines.
func saveCart(ctx context.Context, tx *sqlx.Tx, cart *models.Cart) error {
	cart.Recalculate()

	query := `
		UPDATE carts
		SET total = $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND version = $4
	`

	result, err := tx.ExecContext(ctx, query, cart.Total, cart.UpdatedAt, cart.ID, cart.Version)
	if err != nil {
		return translate(err, "update cart", nil)
	}
	if err := expectRow(result, apperr.ErrConcurrentUpdate); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cart.ID); err != nil {
		return translate(err, "clear cart items", nil)
	}

	for i, item := range cart.Items {
		_, err := tx.ExecContext(
			ctx,
			`INSERT INTO cart_items (cart_id, product_id, quantity, price, position) VALUES ($1, $2, $3, $4, $5)`,
			cart.ID,
			item.ProductID,
			item.Quantity,
			item.Price,
			i,
		)
		if err != nil {
			return translate(err, "insert cart item", nil)
		}
	}

	return nil
}
