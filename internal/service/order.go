package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/utsav306/farmconnect-sub000/internal/apperr"
	"github.com/utsav306/farmconnect-sub000/internal/cache"
	"github.com/utsav306/farmconnect-sub000/internal/config"
	"github.com/utsav306/farmconnect-sub000/internal/events"
	"github.com/utsav306/farmconnect-sub000/internal/models"
)

// OrderService handles checkout and order lifecycle
type OrderService struct {
	orders    OrderStore
	carts     CartStore
	products  ProductStore
	cache     cache.ProductCache
	publisher events.Publisher
	notifier  Notifier
	cfg       config.Order
	validate  *validator.Validate
	log       *zap.Logger
	now       Clock
}

// NewOrderService creates a new order service
func NewOrderService(
	orders OrderStore,
	carts CartStore,
	products ProductStore,
	productCache cache.ProductCache,
	publisher events.Publisher,
	notifier Notifier,
	cfg config.Order,
	validate *validator.Validate,
	log *zap.Logger,
) *OrderService {
	return &OrderService{
		orders:    orders,
		carts:     carts,
		products:  products,
		cache:     productCache,
		publisher: publisher,
		notifier:  notifier,
		cfg:       cfg,
		validate:  validate,
		log:       log,
		now:       time.Now,
	}
}

// SetClock replaces the time source.
func (s *OrderService) SetClock(now Clock) { s.now = now }

// CreateOrder turns the user's cart into an order and empties the cart
func (s *OrderService) CreateOrder(ctx context.Context, userID uuid.UUID, req models.OrderRequest) (*models.Order, error) {
	if err := Validate(s.validate, req); err != nil {
		return nil, err
	}
	address := strings.TrimSpace(req.DeliveryAddress)
	if address == "" && !models.IsPickup(req.DeliveryMethod) {
		return nil, apperr.InvalidArg("deliveryAddress is required unless the order is picked up")
	}

	cart, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrCartNotFound) {
			return nil, apperr.ErrEmptyCart
		}
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, apperr.ErrEmptyCart
	}
	cart.Recalculate()

	products, err := s.products.GetByIDs(ctx, cart.ProductIDs())
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	now := s.now()
	order := &models.Order{
		ID:              uuid.New(),
		UserID:          userID,
		DeliveryAddress: address,
		PaymentMethod:   strings.TrimSpace(req.PaymentMethod),
		DeliveryMethod:  strings.TrimSpace(req.DeliveryMethod),
		Status:          models.OrderStatusConfirmed,
		CreatedAt:       now,
		UpdatedAt:       now,
		Items:           make([]models.OrderItem, 0, len(cart.Items)),
	}

	for _, line := range cart.Items {
		product, ok := byID[line.ProductID]
		if !ok || !product.IsActive {
			return nil, apperr.FailedPrecondition("A product in your cart is no longer available")
		}
		if product.Stock < line.Quantity {
			return nil, apperr.Wrap(apperr.CodeFailedPrecondition, apperr.MessageOf(apperr.ErrInsufficientStock),
				errors.New("not enough "+product.Name))
		}
		order.Items = append(order.Items, models.OrderItem{
			OrderID:    order.ID,
			ProductID:  product.ID,
			Name:       product.Name,
			Price:      line.Price,
			Quantity:   line.Quantity,
			FarmerID:   product.FarmerID,
			FarmerName: product.FarmerName,
			Image:      product.Image,
			Unit:       product.Unit,
		})
	}

	order.Subtotal = cart.Total
	order.DeliveryFee = models.DeliveryFee(order.DeliveryMethod, s.cfg.DeliveryFee)
	order.Total = order.Subtotal.Add(order.DeliveryFee)
	order.EstimatedDelivery = models.EstimateDelivery(order.DeliveryMethod, now)

	cart.Clear()
	cart.UpdatedAt = now

	if err := s.orders.Create(ctx, order, cart); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)

	s.log.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("total", order.Total.StringFixed(2)),
		zap.Int("items", len(order.Items)))

	s.publish(ctx, events.OrderPlaced, order)
	return order, nil
}

// ListUserOrders returns the user's orders, newest first
func (s *OrderService) ListUserOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// GetOrder returns an order owned by the requester
func (s *OrderService) GetOrder(ctx context.Context, id, requesterID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != requesterID {
		return nil, apperr.ErrNotOrderOwner
	}
	return order, nil
}

// CancelOrder cancels the requester's order while it is still Pending or
// Confirmed and puts the stock back
func (s *OrderService) CancelOrder(ctx context.Context, id, requesterID uuid.UUID) (*models.Order, error) {
	order, err := s.GetOrder(ctx, id, requesterID)
	if err != nil {
		return nil, err
	}
	if !order.Status.Cancellable() {
		return nil, apperr.ErrOrderNotCancellable(string(order.Status))
	}

	updated, err := s.orders.UpdateStatus(ctx, id, order.Status, models.OrderStatusCancelled, true, s.now())
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)

	s.log.Info("Order cancelled",
		zap.String("order_id", id.String()),
		zap.String("user_id", requesterID.String()),
		zap.String("previous_status", string(order.Status)))

	s.publish(ctx, events.OrderCancelled, updated)
	s.notifier.Notify(farmerIDs(updated), string(events.OrderStatusChanged), statusPayload(updated))
	return updated, nil
}

// ListFarmerOrders returns every order containing the farmer's products,
// cut down to the farmer's own lines
func (s *OrderService) ListFarmerOrders(ctx context.Context, farmerID uuid.UUID) ([]models.FarmerOrder, error) {
	orders, err := s.orders.ListByFarmer(ctx, farmerID)
	if err != nil {
		return nil, err
	}

	out := make([]models.FarmerOrder, 0, len(orders))
	for i := range orders {
		if fo, ok := orders[i].ForFarmer(farmerID); ok {
			out = append(out, fo)
		}
	}
	return out, nil
}

// UpdateOrderStatus advances fulfilment. The actor must sell at least one
// item of the order unless they are an admin.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, actorID uuid.UUID, actorRoles models.Roles, id uuid.UUID, req models.OrderStatusRequest) (*models.Order, error) {
	if err := Validate(s.validate, req); err != nil {
		return nil, err
	}
	if !req.Status.Valid() {
		return nil, apperr.InvalidArgf("Unknown order status %q", req.Status)
	}

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actorRoles.Has(models.RoleAdmin) && !order.HasFarmer(actorID) {
		return nil, apperr.ErrForbidden
	}
	if !order.Status.CanTransitionTo(req.Status) {
		return nil, apperr.Wrap(apperr.CodeFailedPrecondition, apperr.MessageOf(apperr.ErrInvalidOrderTurn),
			errors.New(string(order.Status)+" -> "+string(req.Status)))
	}

	restock := req.Status == models.OrderStatusCancelled
	updated, err := s.orders.UpdateStatus(ctx, id, order.Status, req.Status, restock, s.now())
	if err != nil {
		return nil, err
	}
	if restock {
		s.cache.Invalidate(ctx)
	}

	s.log.Info("Order status changed",
		zap.String("order_id", id.String()),
		zap.String("actor_id", actorID.String()),
		zap.String("from", string(order.Status)),
		zap.String("to", string(req.Status)))

	eventType := events.OrderStatusChanged
	if restock {
		eventType = events.OrderCancelled
	}
	s.publish(ctx, eventType, updated)
	s.notifier.Notify([]uuid.UUID{updated.UserID}, string(events.OrderStatusChanged), statusPayload(updated))
	return updated, nil
}

// publish never fails the caller; the order is already committed.
func (s *OrderService) publish(ctx context.Context, eventType events.EventType, order *models.Order) {
	event := events.OrderEvent{
		EventID:   uuid.New(),
		Type:      eventType,
		OrderID:   order.ID,
		UserID:    order.UserID,
		FarmerIDs: farmerIDs(order),
		Status:    string(order.Status),
		Total:     order.Total,
		Timestamp: s.now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Error("Failed to publish order event",
			zap.String("type", string(eventType)),
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
	}
}

func farmerIDs(order *models.Order) []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	ids := []uuid.UUID{}
	for _, item := range order.Items {
		if !seen[item.FarmerID] {
			seen[item.FarmerID] = true
			ids = append(ids, item.FarmerID)
		}
	}
	return ids
}

type orderStatusPayload struct {
	OrderID uuid.UUID          `json:"orderId"`
	Status  models.OrderStatus `json:"status"`
}

func statusPayload(order *models.Order) orderStatusPayload {
	return orderStatusPayload{OrderID: order.ID, Status: order.Status}
}
