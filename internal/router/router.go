package router

import (
	"net/http"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/utsav306/farmconnect-sub000/internal/api"
	"github.com/utsav306/farmconnect-sub000/internal/api/handler"
	"github.com/utsav306/farmconnect-sub000/internal/config"
	"github.com/utsav306/farmconnect-sub000/internal/middleware"
	"github.com/utsav306/farmconnect-sub000/internal/models"
	"github.com/utsav306/farmconnect-sub000/internal/service"
	"github.com/utsav306/farmconnect-sub000/internal/websockets"
)

// Deps are the collaborators the routes are built from.
type Deps struct {
	Config   *config.Config
	Services *service.Services
	Hub      *websockets.Hub
	DB       handler.Pinger
	Limiter  *middleware.RateLimiter
	Log      *zap.Logger
}

// Router handles HTTP routing
type Router struct {
	mux     *http.ServeMux
	handler http.Handler
	fail    api.ErrorWriter
	deps    Deps
}

// New creates a new router
func New(deps Deps) *Router {
	r := &Router{
		mux:  http.NewServeMux(),
		fail: api.NewErrorWriter(deps.Log, deps.Config.IsProduction()),
		deps: deps,
	}

	r.setupRoutes()

	c := cors.New(cors.Options{
		AllowedOrigins:   deps.Config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	r.handler = middleware.Chain(r.mux,
		middleware.Logger(deps.Log.Named("http")),
		middleware.Recover(deps.Log, r.fail),
		c.Handler,
	)

	return r
}

// ServeHTTP implements the http.Handler interface
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

func (r *Router) setupRoutes() {
	svc := r.deps.Services
	fail := r.fail

	authn := middleware.Auth(svc.Auth, fail)
	can := func(p models.Permission) func(http.Handler) http.Handler {
		return middleware.RequirePermission(p, fail)
	}
	protected := func(h http.HandlerFunc, mws ...func(http.Handler) http.Handler) http.Handler {
		return middleware.Chain(h, append([]func(http.Handler) http.Handler{authn}, mws...)...)
	}

	authH := handler.NewAuthHandler(svc.Auth, fail)
	userH := handler.NewUserHandler(svc.Users, fail)
	productH := handler.NewProductHandler(svc.Products, fail)
	cartH := handler.NewCartHandler(svc.Cart, fail)
	orderH := handler.NewOrderHandler(svc.Orders, fail)
	conversationH := handler.NewConversationHandler(svc.Conversations, fail)
	aiH := handler.NewAIHandler(svc.AI, fail, r.deps.Log.Named("ai"))
	dashboardH := handler.NewDashboardHandler(svc.Dashboard, fail)

	// Public routes
	r.mux.Handle("GET /health", handler.NewHealthHandler(r.deps.DB, r.deps.Log))
	r.mux.Handle("GET /ws", handler.NewWebSocketHandler(r.deps.Hub, svc.Auth, r.deps.Config.CORS.AllowedOrigins, fail, r.deps.Log.Named("ws")))
	r.mux.HandleFunc("POST /api/auth/register", authH.Register)
	r.mux.HandleFunc("POST /api/auth/login", authH.Login)
	r.mux.HandleFunc("GET /api/products", productH.ListProducts)
	r.mux.HandleFunc("GET /api/products/{id}", productH.GetProduct)

	// Account
	r.mux.Handle("GET /api/auth/me", protected(authH.Me))
	r.mux.Handle("POST /api/auth/change-password", protected(authH.ChangePassword))
	r.mux.Handle("PUT /api/users/me", protected(authH.UpdateProfile))

	// Administration
	r.mux.Handle("GET /api/admin/users", protected(userH.ListUsers, can(models.PermManageUsers)))
	r.mux.Handle("PUT /api/admin/users/{id}/roles", protected(userH.UpdateRoles, can(models.PermManageUsers)))
	r.mux.Handle("PATCH /api/admin/users/{id}/status", protected(userH.SetStatus, can(models.PermManageUsers)))
	r.mux.Handle("DELETE /api/admin/users/{id}", protected(userH.DeleteUser, can(models.PermManageUsers)))

	// Catalog
	r.mux.Handle("GET /api/products/my-products", protected(productH.MyProducts, can(models.PermManageOwnProducts)))
	r.mux.Handle("POST /api/products", protected(productH.CreateProduct, can(models.PermManageOwnProducts)))
	r.mux.Handle("PUT /api/products/{id}", protected(productH.UpdateProduct, can(models.PermManageOwnProducts)))
	r.mux.Handle("DELETE /api/products/{id}", protected(productH.DeleteProduct, can(models.PermManageOwnProducts)))
	r.mux.Handle("PATCH /api/moderation/products/{id}/deactivate", protected(productH.DeactivateProduct, can(models.PermModerateContent)))

	// Cart
	r.mux.Handle("GET /api/cart", protected(cartH.GetCart))
	r.mux.Handle("POST /api/cart", protected(cartH.AddItem))
	r.mux.Handle("PUT /api/cart", protected(cartH.UpdateItem))
	r.mux.Handle("DELETE /api/cart/clear", protected(cartH.ClearCart))
	r.mux.Handle("DELETE /api/cart/{productId}", protected(cartH.RemoveItem))

	// Orders
	r.mux.Handle("POST /api/orders", protected(orderH.CreateOrder))
	r.mux.Handle("GET /api/orders/user", protected(orderH.UserOrders))
	r.mux.Handle("GET /api/orders/farmer", protected(orderH.FarmerOrders, can(models.PermViewFarmerOrders)))
	r.mux.Handle("GET /api/orders/{id}", protected(orderH.GetOrder))
	r.mux.Handle("PATCH /api/orders/{id}/cancel", protected(orderH.CancelOrder))
	r.mux.Handle("PATCH /api/orders/{id}/status", protected(orderH.UpdateStatus, can(models.PermUpdateOrderFulfilment)))

	// Conversations
	r.mux.Handle("GET /api/conversations", protected(conversationH.ListConversations))
	r.mux.Handle("POST /api/conversations", protected(conversationH.GetOrCreateConversation))
	r.mux.Handle("GET /api/conversations/{id}", protected(conversationH.GetConversation))
	r.mux.Handle("POST /api/conversations/{id}/messages", protected(conversationH.SendMessage))
	r.mux.Handle("PATCH /api/conversations/{id}/read", protected(conversationH.MarkAsRead))
	r.mux.Handle("PATCH /api/conversations/{id}/messages/{mid}/read", protected(conversationH.MarkMessageAsRead))

	// Assistant
	limit := r.deps.Limiter.Limit(fail)
	r.mux.Handle("POST /api/ai/crop-disease-detection", protected(aiH.CropDiseaseDetection, limit))
	r.mux.Handle("POST /api/ai/price-forecast", protected(aiH.PriceForecast, limit))
	r.mux.Handle("POST /api/ai/trending-crops", protected(aiH.TrendingCrops, limit))
	r.mux.Handle("POST /api/ai/diversification-options", protected(aiH.DiversificationOptions, limit))

	// Dashboard
	r.mux.Handle("GET /api/dashboard/farmer", protected(dashboardH.FarmerDashboard, can(models.PermViewDashboard)))
}
