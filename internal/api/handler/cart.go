package handler

import (
	"net/http"

	"github.com/utsav306/farmconnect-sub000/internal/api"
	"github.com/utsav306/farmconnect-sub000/internal/apperr"
	"github.com/utsav306/farmconnect-sub000/internal/models"
	"github.com/utsav306/farmconnect-sub000/internal/service"
)

// CartHandler handles the caller's cart
type CartHandler struct {
	cartService *service.CartService
	fail        api.ErrorWriter
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService *service.CartService, fail api.ErrorWriter) *CartHandler {
	return &CartHandler{cartService: cartService, fail: fail}
}

type cartResponse struct {
	Cart *models.Cart `json:"cart"`
}

func (h *CartHandler) respond(w http.ResponseWriter, r *http.Request, cart *models.Cart, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.RespondJSON(w, http.StatusOK, cartResponse{Cart: cart})
}

// GetCart returns the caller's cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cartService.GetCart(r.Context(), caller(r).UserID)
	h.respond(w, r, cart, err)
}

// AddItem puts a product in the caller's cart
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req models.CartItemRequest
	if err := api.DecodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	cart, err := h.cartService.AddItem(r.Context(), caller(r).UserID, req)
	h.respond(w, r, cart, err)
}

// UpdateItem overwrites the quantity of a cart line
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req models.CartItemRequest
	if err := api.DecodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	cart, err := h.cartService.UpdateItemQuantity(r.Context(), caller(r).UserID, req)
	h.respond(w, r, cart, err)
}

// RemoveItem drops a line from the caller's cart
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, err := api.PathID(r, "productId", apperr.ErrCartItemNotFound)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	cart, err := h.cartService.RemoveItem(r.Context(), caller(r).UserID, productID)
	h.respond(w, r, cart, err)
}

// ClearCart empties the caller's cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cartService.ClearCart(r.Context(), caller(r).UserID)
	h.respond(w, r, cart, err)
}
