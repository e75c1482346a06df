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

const orderColumns = `id, user_id, delivery_address, payment_method, delivery_method, subtotal,
	delivery_fee, total, status, estimated_delivery, created_at, updated_at`

// OrderRepository handles order data access
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create stores the order, takes its quantities out of product stock and
// saves the (already emptied) cart, all in one transaction. A line whose
// product no longer has enough stock aborts the whole checkout.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order, cart *models.Cart) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	orderQuery := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = tx.ExecContext(
		ctx,
		orderQuery,
		order.ID,
		order.UserID,
		order.DeliveryAddress,
		order.PaymentMethod,
		order.DeliveryMethod,
		order.Subtotal,
		order.DeliveryFee,
		order.Total,
		order.Status,
		order.EstimatedDelivery,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return translate(err, "create order", nil)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, product_id, name, price, quantity, farmer_id, farmer_name, image, unit, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	stockQuery := `
		UPDATE products
		SET stock = stock - $1, updated_at = $2
		WHERE id = $3 AND stock >= $1
	`
	for i, item := range order.Items {
		_, err := tx.ExecContext(
			ctx,
			itemQuery,
			order.ID,
			item.ProductID,
			item.Name,
			item.Price,
			item.Quantity,
			item.FarmerID,
			item.FarmerName,
			item.Image,
			item.Unit,
			i,
		)
		if err != nil {
			return translate(err, "create order item", nil)
		}

		result, err := tx.ExecContext(ctx, stockQuery, item.Quantity, order.CreatedAt, item.ProductID)
		if err != nil {
			return translate(err, "decrement stock", nil)
		}
		if err := expectRow(result, apperr.ErrInsufficientStock); err != nil {
			return err
		}
	}

	if err := saveCart(ctx, tx, cart); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	cart.Version++
	return nil
}

// GetByID retrieves an order by ID
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	var order models.Order
	if err := r.db.GetContext(ctx, &order, query, id); err != nil {
		return nil, translate(err, "get order", apperr.ErrOrderNotFound)
	}

	orders := []models.Order{order}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}

	return &orders[0], nil
}

// ListByUser retrieves a user's orders, newest first
func (r *OrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	return r.list(ctx, "list user orders", query, userID)
}

// ListByFarmer retrieves every order containing at least one of the
// farmer's products, newest first
func (r *OrderRepository) ListByFarmer(ctx context.Context, farmerID uuid.UUID) ([]models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE id IN (SELECT order_id FROM order_items WHERE farmer_id = $1)
		ORDER BY created_at DESC
	`

	return r.list(ctx, "list farmer orders", query, farmerID)
}

// UpdateStatus moves an order from one status to another. The update only
// applies while the stored status still equals from; otherwise
// ErrConcurrentUpdate is returned. With restock the ordered quantities go
// back into product stock in the same transaction.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus, restock bool, now time.Time) (*models.Order, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE orders
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	result, err := tx.ExecContext(ctx, query, to, now, id, from)
	if err != nil {
		return nil, translate(err, "update order status", nil)
	}
	if err := expectRow(result, apperr.ErrConcurrentUpdate); err != nil {
		return nil, err
	}

	if restock {
		restockQuery := `
			UPDATE products p
			SET stock = p.stock + oi.quantity, updated_at = $2
			FROM order_items oi
			WHERE oi.order_id = $1 AND oi.product_id = p.id
		`
		if _, err := tx.ExecContext(ctx, restockQuery, id, now); err != nil {
			return nil, translate(err, "restock products", nil)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *OrderRepository) list(ctx context.Context, op, query string, args ...interface{}) ([]models.Order, error) {
	orders := []models.Order{}
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, translate(err, op, nil)
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

// attachItems loads the lines of every order with a single query.
func (r *OrderRepository) attachItems(ctx context.Context, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(orders))
	index := make(map[uuid.UUID]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		index[orders[i].ID] = i
		orders[i].Items = []models.OrderItem{}
	}

	query := `
		SELECT order_id, product_id, name, price, quantity, farmer_id, farmer_name, image, unit
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, position ASC
	`

	var items []models.OrderItem
	if err := r.db.SelectContext(ctx, &items, query, uuidArray(ids)); err != nil {
		return translate(err, "get order items", nil)
	}

	for _, item := range items {
		i := index[item.OrderID]
		orders[i].Items = append(orders[i].Items, item)
	}

	return nil
}
