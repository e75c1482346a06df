package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/utsav306/farmconnect-sub000/internal/models"
)

type userEnvelope struct {
	User *models.User `json:"user"`
}

type loginEnvelope struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type productEnvelope struct {
	Product *models.Product `json:"product"`
}

type productsEnvelope struct {
	Products []models.Product `json:"products"`
}

type cartEnvelope struct {
	Cart *models.Cart `json:"cart"`
}

type orderEnvelope struct {
	Order *models.Order `json:"order"`
}

type ordersEnvelope struct {
	Orders []models.Order `json:"orders"`
}

type farmerOrdersEnvelope struct {
	Orders []models.FarmerOrder `json:"orders"`
}

type conversationEnvelope struct {
	Conversation *models.ConversationDetail `json:"conversation"`
}

type conversationsEnvelope struct {
	Conversations []models.ConversationSummary `json:"conversations"`
}

type messageEnvelope struct {
	Message *models.Message `json:"message"`
}

// Auth

func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	var out userEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", req, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Login signs in and stores the token and account in the session.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	var out loginEnvelope
	req := models.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", req, &out); err != nil {
		return nil, err
	}
	c.session.Set(out.Token, out.User)
	return out.User, nil
}

// Logout forgets the session. Tokens are stateless, so the server is not called.
func (c *Client) Logout() {
	c.session.Clear()
}

// Me fetches the current account and refreshes the cached copy.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var out userEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &out); err != nil {
		return nil, err
	}
	c.session.SetUser(out.User)
	return out.User, nil
}

func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	req := models.ChangePasswordRequest{CurrentPassword: current, NewPassword: next}
	return c.do(ctx, http.MethodPost, "/api/auth/change-password", req, nil)
}

func (c *Client) UpdateProfile(ctx context.Context, req models.ProfileUpdateRequest) (*models.User, error) {
	var out userEnvelope
	if err := c.do(ctx, http.MethodPut, "/api/users/me", req, &out); err != nil {
		return nil, err
	}
	c.session.SetUser(out.User)
	return out.User, nil
}

// Products

// ProductFilter selects a page of the public catalog. Zero fields take the
// server defaults.
type ProductFilter struct {
	Category string
	Search   string
	Sort     models.ProductSort
	Limit    int
	Page     int
}

func (f ProductFilter) query() string {
	v := url.Values{}
	if f.Category != "" {
		v.Set("category", f.Category)
	}
	if f.Search != "" {
		v.Set("search", f.Search)
	}
	if f.Sort != "" {
		v.Set("sort", string(f.Sort))
	}
	if f.Limit > 0 {
		v.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Page > 0 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

func (c *Client) ListProducts(ctx context.Context, f ProductFilter) (*models.ProductPage, error) {
	var out models.ProductPage
	if err := c.do(ctx, http.MethodGet, "/api/products"+f.query(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var out productEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/products/"+id.String(), nil, &out); err != nil {
		return nil, err
	}
	return out.Product, nil
}

func (c *Client) MyProducts(ctx context.Context) ([]models.Product, error) {
	var out productsEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/products/my-products", nil, &out); err != nil {
		return nil, err
	}
	return out.Products, nil
}

func (c *Client) CreateProduct(ctx context.Context, req models.ProductRequest) (*models.Product, error) {
	var out productEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/products", req, &out); err != nil {
		return nil, err
	}
	return out.Product, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id uuid.UUID, req models.ProductUpdateRequest) (*models.Product, error) {
	var out productEnvelope
	if err := c.do(ctx, http.MethodPut, "/api/products/"+id.String(), req, &out); err != nil {
		return nil, err
	}
	return out.Product, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/products/"+id.String(), nil, nil)
}

// Cart

func (c *Client) cart(ctx context.Context, method, path string, in any) (*models.Cart, error) {
	var out cartEnvelope
	if err := c.do(ctx, method, path, in, &out); err != nil {
		return nil, err
	}
	return out.Cart, nil
}

func (c *Client) GetCart(ctx context.Context) (*models.Cart, error) {
	return c.cart(ctx, http.MethodGet, "/api/cart", nil)
}

func (c *Client) AddToCart(ctx context.Context, productID uuid.UUID, quantity int) (*models.Cart, error) {
	return c.cart(ctx, http.MethodPost, "/api/cart", models.CartItemRequest{ProductID: productID.String(), Quantity: &quantity})
}

func (c *Client) UpdateCartItem(ctx context.Context, productID uuid.UUID, quantity int) (*models.Cart, error) {
	return c.cart(ctx, http.MethodPut, "/api/cart", models.CartItemRequest{ProductID: productID.String(), Quantity: &quantity})
}

func (c *Client) RemoveFromCart(ctx context.Context, productID uuid.UUID) (*models.Cart, error) {
	return c.cart(ctx, http.MethodDelete, "/api/cart/"+productID.String(), nil)
}

func (c *Client) ClearCart(ctx context.Context) (*models.Cart, error) {
	return c.cart(ctx, http.MethodDelete, "/api/cart/clear", nil)
}

// Orders

func (c *Client) order(ctx context.Context, method, path string, in any) (*models.Order, error) {
	var out orderEnvelope
	if err := c.do(ctx, method, path, in, &out); err != nil {
		return nil, err
	}
	return out.Order, nil
}

func (c *Client) CreateOrder(ctx context.Context, req models.OrderRequest) (*models.Order, error) {
	return c.order(ctx, http.MethodPost, "/api/orders", req)
}

func (c *Client) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return c.order(ctx, http.MethodGet, "/api/orders/"+id.String(), nil)
}

func (c *Client) CancelOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return c.order(ctx, http.MethodPatch, "/api/orders/"+id.String()+"/cancel", nil)
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	return c.order(ctx, http.MethodPatch, "/api/orders/"+id.String()+"/status", models.OrderStatusRequest{Status: status})
}

func (c *Client) MyOrders(ctx context.Context) ([]models.Order, error) {
	var out ordersEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/orders/user", nil, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

func (c *Client) FarmerOrders(ctx context.Context) ([]models.FarmerOrder, error) {
	var out farmerOrdersEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/orders/farmer", nil, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

// Conversations

func (c *Client) conversation(ctx context.Context, method, path string, in any) (*models.ConversationDetail, error) {
	var out conversationEnvelope
	if err := c.do(ctx, method, path, in, &out); err != nil {
		return nil, err
	}
	return out.Conversation, nil
}

func (c *Client) Conversations(ctx context.Context) ([]models.ConversationSummary, error) {
	var out conversationsEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/conversations", nil, &out); err != nil {
		return nil, err
	}
	return out.Conversations, nil
}

// StartConversation returns the thread with participantID, creating it on
// first contact.
func (c *Client) StartConversation(ctx context.Context, participantID uuid.UUID) (*models.ConversationDetail, error) {
	return c.conversation(ctx, http.MethodPost, "/api/conversations", models.ConversationRequest{ParticipantID: participantID.String()})
}

func (c *Client) GetConversation(ctx context.Context, id uuid.UUID) (*models.ConversationDetail, error) {
	return c.conversation(ctx, http.MethodGet, "/api/conversations/"+id.String(), nil)
}

func (c *Client) SendMessage(ctx context.Context, conversationID uuid.UUID, text string) (*models.Message, error) {
	var out messageEnvelope
	path := "/api/conversations/" + conversationID.String() + "/messages"
	if err := c.do(ctx, http.MethodPost, path, models.MessageRequest{Text: text}, &out); err != nil {
		return nil, err
	}
	return out.Message, nil
}

func (c *Client) MarkConversationRead(ctx context.Context, id uuid.UUID) (*models.ConversationDetail, error) {
	return c.conversation(ctx, http.MethodPatch, "/api/conversations/"+id.String()+"/read", nil)
}

func (c *Client) MarkMessageRead(ctx context.Context, conversationID, messageID uuid.UUID) (*models.ConversationDetail, error) {
	path := "/api/conversations/" + conversationID.String() + "/messages/" + messageID.String() + "/read"
	return c.conversation(ctx, http.MethodPatch, path, nil)
}
