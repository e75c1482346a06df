package service

import (
	"go.uber.org/zap"

	"github.com/utsav306/farmconnect-sub000/internal/cache"
	"github.com/utsav306/farmconnect-sub000/internal/config"
	"github.com/utsav306/farmconnect-sub000/internal/events"
)

// Stores groups the persistence dependencies of every service.
type Stores struct {
	Users         UserStore
	Products      ProductStore
	Carts         CartStore
	Orders        OrderStore
	Conversations ConversationStore
}

// Services provides access to all service instances
type Services struct {
	Auth          *AuthService
	Users         *UserService
	Products      *ProductService
	Cart          *CartService
	Orders        *OrderService
	Conversations *ConversationService
	AI            *AIService
	Dashboard     *DashboardService
}

// Deps are the collaborators shared by the services.
type Deps struct {
	Stores    Stores
	Cache     cache.ProductCache
	Publisher events.Publisher
	Notifier  Notifier
	Model     Model
	Log       *zap.Logger
}

// NewServices creates every service from one configuration
func NewServices(cfg *config.Config, deps Deps) *Services {
	validate := NewValidator()
	st := deps.Stores

	return &Services{
		Auth:          NewAuthService(st.Users, cfg.JWT, validate, deps.Log.Named("auth")),
		Users:         NewUserService(st.Users, deps.Cache, validate, deps.Log.Named("users")),
		Products:      NewProductService(st.Products, deps.Cache, validate, deps.Log.Named("products")),
		Cart:          NewCartService(st.Carts, st.Products, validate),
		Orders:        NewOrderService(st.Orders, st.Carts, st.Products, deps.Cache, deps.Publisher, deps.Notifier, cfg.Order, validate, deps.Log.Named("orders")),
		Conversations: NewConversationService(st.Conversations, st.Users, deps.Notifier, deps.Log.Named("conversations")),
		AI:            NewAIService(deps.Model, validate, deps.Log.Named("ai")),
		Dashboard:     NewDashboardService(st.Products, st.Orders),
	}
}

// SetClock pins the time source of every time-dependent service.
func (s *Services) SetClock(now Clock) {
	s.Auth.SetClock(now)
	s.Cart.SetClock(now)
	s.Orders.SetClock(now)
	s.Conversations.SetClock(now)
}
