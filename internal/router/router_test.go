package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/color"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/utsav306/farmconnect-sub000/internal/ai"
	"github.com/utsav306/farmconnect-sub000/internal/apperr"
	"github.com/utsav306/farmconnect-sub000/internal/middleware"
	"github.com/utsav306/farmconnect-sub000/internal/models"
	"github.com/utsav306/farmconnect-sub000/internal/router"
	"github.com/utsav306/farmconnect-sub000/internal/service/servicetest"
	"github.com/utsav306/farmconnect-sub000/internal/websockets"
)

type fakePinger struct {
	mu  sync.Mutex
	err error
}

func (p *fakePinger) HealthCheck(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *fakePinger) fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

type harness struct {
	env    *servicetest.Env
	srv    *httptest.Server
	pinger *fakePinger
}

func newHarness(t *testing.T, limiter *middleware.RateLimiter) *harness {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	env := servicetest.NewEnv()
	hub := websockets.NewHub(zap.NewNop())
	go hub.Run(ctx)

	if limiter == nil {
		limiter = middleware.NewRateLimiter(100, 100)
	}

	h := &harness{env: env, pinger: &fakePinger{}}
	h.srv = httptest.NewServer(router.New(router.Deps{
		Config:   env.Config,
		Services: env.Services,
		Hub:      hub,
		DB:       h.pinger,
		Limiter:  limiter,
		Log:      zap.NewNop(),
	}))
	t.Cleanup(h.srv.Close)
	return h
}

func (h *harness) signIn(t *testing.T, username string, roles ...models.Role) (*models.User, string) {
	t.Helper()
	user, token, err := h.env.SignIn(username, roles...)
	require.NoError(t, err)
	return user, token
}

type response struct {
	status int
	body   []byte
}

func (r response) decode(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.body, v), string(r.body))
}

func (r response) message(t *testing.T) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	r.decode(t, &body)
	return body.Message
}

func (h *harness) do(t *testing.T, method, path, token string, body any) response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, h.srv.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return h.send(t, req)
}

func (h *harness) send(t *testing.T, req *http.Request) response {
	t.Helper()
	resp, err := h.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return response{status: resp.StatusCode, body: raw}
}

func TestHealth(t *testing.T) {
	h := newHarness(t, nil)

	resp := h.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.status)
	assert.JSONEq(t, `{"status":"ok"}`, string(resp.body))

	h.pinger.fail(errors.New("connection refused"))
	resp = h.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.status)
}

func TestAuthRoutes(t *testing.T) {
	h := newHarness(t, nil)

	register := map[string]any{"username": "alice", "email": "alice@farm.test", "password": "secret123"}
	resp := h.do(t, http.MethodPost, "/api/auth/register", "", register)
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))
	assert.NotContains(t, string(resp.body), "password")

	var created struct {
		User models.User `json:"user"`
	}
	resp.decode(t, &created)
	assert.Equal(t, models.Roles{models.RoleUser}, created.User.Roles)

	resp = h.do(t, http.MethodPost, "/api/auth/register", "", register)
	assert.Equal(t, http.StatusBadRequest, resp.status)
	assert.Equal(t, "Username is already taken", resp.message(t))

	resp = h.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"username": "mallory", "email": "m@farm.test", "password": "secret123", "roles": []string{"admin"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.status)

	resp = h.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "alice@farm.test", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.status)
	assert.Equal(t, "Invalid credentials", resp.message(t))

	resp = h.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "alice@farm.test", "password": "secret123"})
	require.Equal(t, http.StatusOK, resp.status)
	var login struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	resp.decode(t, &login)
	require.NotEmpty(t, login.Token)
	assert.NotNil(t, login.User.LastLogin)

	resp = h.do(t, http.MethodGet, "/api/auth/me", login.Token, nil)
	assert.Equal(t, http.StatusOK, resp.status)

	resp = h.do(t, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.status)
	assert.Equal(t, "Authorization header required", resp.message(t))

	resp = h.do(t, http.MethodPost, "/api/auth/change-password", login.Token,
		map[string]string{"currentPassword": "nope", "newPassword": "another1"})
	assert.Equal(t, http.StatusUnauthorized, resp.status)

	resp = h.do(t, http.MethodPost, "/api/auth/change-password", login.Token,
		map[string]string{"currentPassword": "secret123", "newPassword": "another1"})
	assert.Equal(t, http.StatusOK, resp.status)

	resp = h.do(t, http.MethodPut, "/api/users/me", login.Token, map[string]string{"name": "Alice Grower"})
	require.Equal(t, http.StatusOK, resp.status)
	assert.Contains(t, string(resp.body), "Alice Grower")
}

func TestInactiveAccountIsForbidden(t *testing.T) {
	h := newHarness(t, nil)
	user, token := h.signIn(t, "bob")

	user.IsActive = false
	_, err := h.env.DB.Users.Update(context.Background(), *user)
	require.NoError(t, err)

	resp := h.do(t, http.MethodGet, "/api/cart", token, nil)
	assert.Equal(t, http.StatusForbidden, resp.status)
	assert.Equal(t, "Account is deactivated", resp.message(t))
}

func TestMalformedBody(t *testing.T) {
	h := newHarness(t, nil)
	req, err := http.NewRequest(http.MethodPost, h.srv.URL+"/api/auth/login", strings.NewReader(`{"email":`))
	require.NoError(t, err)

	resp := h.send(t, req)
	assert.Equal(t, http.StatusBadRequest, resp.status)
	assert.Equal(t, "Invalid request body", resp.message(t))
}

func TestProductRoutes(t *testing.T) {
	h := newHarness(t, nil)
	farmer, farmerToken := h.signIn(t, "greenacres", models.RoleFarmer)
	_, buyerToken := h.signIn(t, "alice")
	_, modToken := h.signIn(t, "mod", models.RoleModerator)

	newProduct := map[string]any{
		"name":     "Tomatoes",
		"price":    "30",
		"category": "Vegetables",
		"image":    "https://img.example.com/tomatoes.jpg",
		"stock":    12,
	}

	resp := h.do(t, http.MethodPost, "/api/products", buyerToken, newProduct)
	assert.Equal(t, http.StatusForbidden, resp.status)

	resp = h.do(t, http.MethodPost, "/api/products", farmerToken, map[string]any{"name": "Nameless"})
	assert.Equal(t, http.StatusBadRequest, resp.status)

	resp = h.do(t, http.MethodPost, "/api/products", farmerToken, newProduct)
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))
	var created struct {
		Product models.Product `json:"product"`
	}
	resp.decode(t, &created)
	assert.Equal(t, models.UnitKg, created.Product.Unit)
	assert.Equal(t, farmer.ID, created.Product.FarmerID)
	productPath := "/api/products/" + created.Product.ID.String()

	resp = h.do(t, http.MethodGet, "/api/products?category=vegetables&limit=5", "", nil)
	require.Equal(t, http.StatusOK, resp.status)
	var page models.ProductPage
	resp.decode(t, &page)
	assert.Equal(t, 1, page.TotalProducts)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 1, page.TotalPages)

	resp = h.do(t, http.MethodGet, "/api/products?limit=ten", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.status)

	resp = h.do(t, http.MethodGet, productPath, "", nil)
	assert.Equal(t, http.StatusOK, resp.status)

	resp = h.do(t, http.MethodGet, "/api/products/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.status)

	resp = h.do(t, http.MethodPut, productPath, farmerToken, map[string]any{"price": "35"})
	assert.Equal(t, http.StatusOK, resp.status)

	_, otherFarmerToken := h.signIn(t, "otherfarm", models.RoleFarmer)
	resp = h.do(t, http.MethodDelete, productPath, otherFarmerToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.status)

	resp = h.do(t, http.MethodPatch, "/api/moderation/products/"+created.Product.ID.String()+"/deactivate", farmerToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.status)

	resp = h.do(t, http.MethodPatch, "/api/moderation/products/"+created.Product.ID.String()+"/deactivate", modToken, nil)
	assert.Equal(t, http.StatusOK, resp.status)

	resp = h.do(t, http.MethodGet, productPath, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.status)

	resp = h.do(t, http.MethodGet, "/api/products/my-products", farmerToken, nil)
	require.Equal(t, http.StatusOK, resp.status)
	var mine struct {
		Products []models.Product `json:"products"`
	}
	resp.decode(t, &mine)
	require.Len(t, mine.Products, 1)
	assert.False(t, mine.Products[0].IsActive)
}

func TestCheckoutFlow(t *testing.T) {
	h := newHarness(t, nil)
	farmer, farmerToken := h.signIn(t, "greenacres", models.RoleFarmer)
	_, buyerToken := h.signIn(t, "alice")
	apples := h.env.DB.AddProduct(farmer.ID, "Apples", "40", 10)

	resp := h.do(t, http.MethodPost, "/api/orders", buyerToken,
		map[string]string{"paymentMethod": "Cash", "deliveryMethod": "Pickup"})
	assert.Equal(t, http.StatusBadRequest, resp.status)
	assert.Equal(t, "Cart is empty", resp.message(t))

	resp = h.do(t, http.MethodPost, "/api/cart", buyerToken, map[string]any{"productId": apples.ID, "quantity": 11})
	assert.Equal(t, http.StatusBadRequest, resp.status)
	assert.Equal(t, "Insufficient stock", resp.message(t))

	resp = h.do(t, http.MethodPost, "/api/cart", buyerToken, map[string]any{"productId": apples.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))
	var cart struct {
		Cart models.Cart `json:"cart"`
	}
	resp.decode(t, &cart)
	assert.Equal(t, "80", cart.Cart.Total.String())
	require.Len(t, cart.Cart.Items, 1)
	assert.Equal(t, "greenacres", cart.Cart.Items[0].Product.FarmerName)

	resp = h.do(t, http.MethodPost, "/api/orders", buyerToken,
		map[string]string{"paymentMethod": "Cash", "deliveryMethod": "Home Delivery", "deliveryAddress": "12 Orchard Lane"})
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))
	var placed struct {
		Order models.Order `json:"order"`
	}
	resp.decode(t, &placed)
	assert.Equal(t, "120", placed.Order.Total.String())
	assert.Equal(t, models.OrderStatusConfirmed, placed.Order.Status)
	orderPath := "/api/orders/" + placed.Order.ID.String()

	resp = h.do(t, http.MethodGet, "/api/cart", buyerToken, nil)
	resp.decode(t, &cart)
	assert.Empty(t, cart.Cart.Items)

	resp = h.do(t, http.MethodGet, "/api/orders/user", buyerToken, nil)
	var mine struct {
		Orders []models.Order `json:"orders"`
	}
	resp.decode(t, &mine)
	assert.Len(t, mine.Orders, 1)

	resp = h.do(t, http.MethodGet, "/api/orders/farmer", buyerToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.status)

	resp = h.do(t, http.MethodGet, "/api/orders/farmer", farmerToken, nil)
	require.Equal(t, http.StatusOK, resp.status)
	var farmerOrders struct {
		Orders []models.FarmerOrder `json:"orders"`
	}
	resp.decode(t, &farmerOrders)
	require.Len(t, farmerOrders.Orders, 1)
	assert.Equal(t, "80", farmerOrders.Orders[0].FarmerSubtotal.String())

	resp = h.do(t, http.MethodGet, orderPath, farmerToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.status)

	resp = h.do(t, http.MethodGet, "/api/orders/not-a-uuid", buyerToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.status)

	resp = h.do(t, http.MethodPatch, orderPath+"/status", farmerToken, map[string]string{"status": "Processing"})
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))

	resp = h.do(t, http.MethodPatch, orderPath+"/cancel", buyerToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.status)
	assert.Equal(t, "Order cannot be cancelled in Processing state", resp.message(t))

	resp = h.do(t, http.MethodGet, "/api/dashboard/farmer", farmerToken, nil)
	require.Equal(t, http.StatusOK, resp.status)
	var dashboard models.FarmerDashboard
	resp.decode(t, &dashboard)
	assert.Equal(t, 1, dashboard.TotalOrders)
	assert.Equal(t, "80", dashboard.TotalRevenue.String())

	resp = h.do(t, http.MethodGet, "/api/dashboard/farmer", buyerToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.status)
}

func TestCartRoutes(t *testing.T) {
	h := newHarness(t, nil)
	farmer, _ := h.signIn(t, "greenacres", models.RoleFarmer)
	_, token := h.signIn(t, "alice")
	carrots := h.env.DB.AddProduct(farmer.ID, "Carrots", "20", 10)

	resp := h.do(t, http.MethodPost, "/api/cart", token, map[string]any{"productId": carrots.ID})
	require.Equal(t, http.StatusOK, resp.status)

	resp = h.do(t, http.MethodPut, "/api/cart", token, map[string]any{"productId": carrots.ID, "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, resp.status)

	resp = h.do(t, http.MethodPut, "/api/cart", token, map[string]any{"productId": carrots.ID, "quantity": 3})
	require.Equal(t, http.StatusOK, resp.status)
	assert.Contains(t, string(resp.body), `"total":"60"`)

	h.env.DB.FailNext("carts.save", apperr.ErrConcurrentUpdate, 1)
	resp = h.do(t, http.MethodPost, "/api/cart", token, map[string]any{"productId": carrots.ID})
	assert.Equal(t, http.StatusConflict, resp.status)

	resp = h.do(t, http.MethodDelete, "/api/cart/"+carrots.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, resp.status)
	var cart struct {
		Cart models.Cart `json:"cart"`
	}
	resp.decode(t, &cart)
	assert.Empty(t, cart.Cart.Items)

	resp = h.do(t, http.MethodDelete, "/api/cart/"+carrots.ID.String(), token, nil)
	assert.Equal(t, http.StatusNotFound, resp.status)

	resp = h.do(t, http.MethodPost, "/api/cart", token, map[string]any{"productId": carrots.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, resp.status)

	resp = h.do(t, http.MethodDelete, "/api/cart/clear", token, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Contains(t, string(resp.body), `"total":"0"`)
}

func TestConversationRoutes(t *testing.T) {
	h := newHarness(t, nil)
	farmer, farmerToken := h.signIn(t, "greenacres", models.RoleFarmer)
	_, buyerToken := h.signIn(t, "alice")
	_, strangerToken := h.signIn(t, "eve")

	start := map[string]string{"participantId": farmer.ID.String()}
	resp := h.do(t, http.MethodPost, "/api/conversations", buyerToken, start)
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))
	var conv struct {
		Conversation models.ConversationDetail `json:"conversation"`
	}
	resp.decode(t, &conv)
	path := "/api/conversations/" + conv.Conversation.ID.String()

	resp = h.do(t, http.MethodPost, "/api/conversations", buyerToken, start)
	assert.Equal(t, http.StatusOK, resp.status)

	resp = h.do(t, http.MethodPost, path+"/messages", buyerToken, map[string]string{"text": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.status)

	resp = h.do(t, http.MethodPost, path+"/messages", buyerToken, map[string]string{"text": "Are the apples organic?"})
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))
	var sent struct {
		Message models.Message `json:"message"`
	}
	resp.decode(t, &sent)

	resp = h.do(t, http.MethodGet, "/api/conversations", farmerToken, nil)
	var list struct {
		Conversations []models.ConversationSummary `json:"conversations"`
	}
	resp.decode(t, &list)
	require.Len(t, list.Conversations, 1)
	assert.Equal(t, 1, list.Conversations[0].UnreadCount)

	resp = h.do(t, http.MethodPatch, path+"/messages/"+sent.Message.ID.String()+"/read", farmerToken, nil)
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))
	resp.decode(t, &conv)
	assert.Zero(t, conv.Conversation.UnreadCount)

	resp = h.do(t, http.MethodPatch, path+"/read", farmerToken, nil)
	assert.Equal(t, http.StatusOK, resp.status)

	resp = h.do(t, http.MethodGet, path, strangerToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.status)

	resp = h.do(t, http.MethodGet, "/api/conversations/not-a-uuid", buyerToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.status)

	resp = h.do(t, http.MethodPatch, path+"/messages/not-a-uuid/read", farmerToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.status)
}

func TestAdminRoutes(t *testing.T) {
	h := newHarness(t, nil)
	admin, adminToken := h.signIn(t, "root", models.RoleAdmin)
	bob, bobToken := h.signIn(t, "bob")

	resp := h.do(t, http.MethodGet, "/api/admin/users", bobToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.status)

	resp = h.do(t, http.MethodGet, "/api/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.status)
	var users struct {
		Users []models.User `json:"users"`
	}
	resp.decode(t, &users)
	assert.Len(t, users.Users, 2)

	resp = h.do(t, http.MethodPut, "/api/admin/users/"+bob.ID.String()+"/roles", adminToken, map[string]any{"roles": []string{"user", "farmer"}})
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))

	resp = h.do(t, http.MethodGet, "/api/products/my-products", bobToken, nil)
	assert.Equal(t, http.StatusOK, resp.status, "roles are read fresh on every request")

	resp = h.do(t, http.MethodPatch, "/api/admin/users/"+admin.ID.String()+"/status", adminToken, map[string]any{"isActive": false})
	assert.Equal(t, http.StatusBadRequest, resp.status)

	resp = h.do(t, http.MethodPatch, "/api/admin/users/"+bob.ID.String()+"/status", adminToken, map[string]any{"isActive": false})
	require.Equal(t, http.StatusOK, resp.status)

	resp = h.do(t, http.MethodGet, "/api/auth/me", bobToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.status)

	resp = h.do(t, http.MethodDelete, "/api/admin/users/"+bob.ID.String(), adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.status)

	resp = h.do(t, http.MethodGet, "/api/auth/me", bobToken, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.status)
}

func imageUpload(t *testing.T, h *harness, path, token, filename string, content []byte) response {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if content != nil {
		part, err := mw.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no file"))
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, h.srv.URL+path, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return h.send(t, req)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := imaging.New(64, 48, color.NRGBA{R: 90, G: 140, B: 40, A: 255})
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

func TestAIRoutes(t *testing.T) {
	h := newHarness(t, nil)
	_, token := h.signIn(t, "greenacres", models.RoleFarmer)

	t.Run("image analysis", func(t *testing.T) {
		h.env.Model.Respond(`{"disease":"Early Blight","confidence":87,"description":"Rings on leaves","treatment":"Copper fungicide"}`, nil)

		resp := imageUpload(t, h, "/api/ai/crop-disease-detection", token, "leaf.png", pngBytes(t))
		require.Equal(t, http.StatusOK, resp.status, string(resp.body))

		var got ai.Response[ai.DiseaseDiagnosis]
		resp.decode(t, &got)
		assert.False(t, got.Degraded)
		assert.Equal(t, ai.SourceModel, got.Source)
		assert.Equal(t, "Early Blight", got.Result.Disease)
		assert.Equal(t, 1, h.env.Model.ImageCount())
	})

	t.Run("rejects uploads that are not images", func(t *testing.T) {
		resp := imageUpload(t, h, "/api/ai/price-forecast", token, "leaf.png", []byte("plain text pretending to be a png"))
		assert.Equal(t, http.StatusBadRequest, resp.status)
		assert.Equal(t, "Only image uploads are allowed", resp.message(t))
	})

	t.Run("requires the image field", func(t *testing.T) {
		resp := imageUpload(t, h, "/api/ai/price-forecast", token, "", nil)
		assert.Equal(t, http.StatusBadRequest, resp.status)
		assert.Equal(t, "An image file is required", resp.message(t))
	})

	t.Run("model failure is flagged degraded", func(t *testing.T) {
		h.env.Model.Respond("", errors.New("upstream 503"))

		resp := h.do(t, http.MethodPost, "/api/ai/trending-crops", token, map[string]string{"region": "Punjab"})
		require.Equal(t, http.StatusOK, resp.status)

		var got ai.Response[ai.TrendingCrops]
		resp.decode(t, &got)
		assert.True(t, got.Degraded)
		assert.Equal(t, ai.SourceFallback, got.Source)
		assert.Equal(t, "Punjab", got.Result.Region)
	})

	t.Run("validates text requests", func(t *testing.T) {
		resp := h.do(t, http.MethodPost, "/api/ai/diversification-options", token, map[string]any{"region": "Punjab"})
		assert.Equal(t, http.StatusBadRequest, resp.status)
	})

	t.Run("requires authentication", func(t *testing.T) {
		resp := h.do(t, http.MethodPost, "/api/ai/trending-crops", "", map[string]string{"region": "Punjab"})
		assert.Equal(t, http.StatusUnauthorized, resp.status)
	})
}

func TestAIRateLimit(t *testing.T) {
	h := newHarness(t, middleware.NewRateLimiter(0.001, 2))
	_, token := h.signIn(t, "greenacres", models.RoleFarmer)
	h.env.Model.Respond("", errors.New("offline"))

	body := map[string]string{"region": "Punjab"}
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/api/ai/trending-crops", token, body).status)
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/api/ai/trending-crops", token, body).status)

	resp := h.do(t, http.MethodPost, "/api/ai/trending-crops", token, body)
	assert.Equal(t, http.StatusTooManyRequests, resp.status)

	resp = h.do(t, http.MethodGet, "/api/cart", token, nil)
	assert.Equal(t, http.StatusOK, resp.status, "only the assistant is throttled")
}

func TestCORSPreflight(t *testing.T) {
	h := newHarness(t, nil)

	req, err := http.NewRequest(http.MethodOptions, h.srv.URL+"/api/cart", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.farmconnect.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")

	resp, err := h.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.NotEmpty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestWebSocket(t *testing.T) {
	h := newHarness(t, nil)
	_, token := h.signIn(t, "alice")
	wsURL := "ws" + strings.TrimPrefix(h.srv.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(wsURL+"?token=garbage", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(websockets.Message{Type: websockets.TypePing}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg websockets.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, websockets.TypePong, msg.Type)
}
