package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/utsav306/farmconnect-sub000/internal/models"
)

// The store interfaces are satisfied by the Postgres repositories and by the
// in-memory fakes in servicetest.

type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, user models.User) (*models.User, error)
	Update(ctx context.Context, user models.User) (*models.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type ProductStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	List(ctx context.Context, q models.ProductQuery) ([]models.Product, int, error)
	ListByFarmer(ctx context.Context, farmerID uuid.UUID) ([]models.Product, error)
	Create(ctx context.Context, product models.Product) (*models.Product, error)
	Update(ctx context.Context, product models.Product) (*models.Product, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

type CartStore interface {
	GetByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	GetOrCreate(ctx context.Context, userID uuid.UUID, now time.Time) (*models.Cart, error)
	// Save fails with apperr.ErrConcurrentUpdate when cart.Version is stale.
	Save(ctx context.Context, cart *models.Cart) error
}

type OrderStore interface {
	// Create persists order, decrements stock for its lines and saves cart,
	// atomically.
	Create(ctx context.Context, order *models.Order, cart *models.Cart) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListByFarmer(ctx context.Context, farmerID uuid.UUID) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus, restock bool, now time.Time) (*models.Order, error)
}

type ConversationStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error)
	FindPair(ctx context.Context, a, b uuid.UUID) (*models.Conversation, error)
	Create(ctx context.Context, conversation *models.Conversation) error
	Save(ctx context.Context, conversation *models.Conversation) error
}

// Notifier pushes real-time events to connected users.
type Notifier interface {
	Notify(userIDs []uuid.UUID, event string, data any)
}

// NopNotifier discards events.
type NopNotifier struct{}

func (NopNotifier) Notify([]uuid.UUID, string, any) {}

// Clock returns the current time. Services take one so tests can pin it.
type Clock func() time.Time
