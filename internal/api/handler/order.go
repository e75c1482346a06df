package handler

import (
	"net/http"

	"github.com/utsav306/farmconnect-sub000/internal/api"
	"github.com/utsav306/farmconnect-sub000/internal/apperr"
	"github.com/utsav306/farmconnect-sub000/internal/models"
	"github.com/utsav306/farmconnect-sub000/internal/service"
)

// OrderHandler handles order-related requests
type OrderHandler struct {
	orderService *service.OrderService
	fail         api.ErrorWriter
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *service.OrderService, fail api.ErrorWriter) *OrderHandler {
	return &OrderHandler{orderService: orderService, fail: fail}
}

type orderResponse struct {
	Order *models.Order `json:"order"`
}

type ordersResponse struct {
	Orders []models.Order `json:"orders"`
}

type farmerOrdersResponse struct {
	Orders []models.FarmerOrder `json:"orders"`
}

// CreateOrder checks out the caller's cart
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.OrderRequest
	if err := api.DecodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	order, err := h.orderService.CreateOrder(r.Context(), caller(r).UserID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.RespondJSON(w, http.StatusCreated, orderResponse{Order: order})
}

// UserOrders lists the caller's orders, newest first
func (h *OrderHandler) UserOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderService.ListUserOrders(r.Context(), caller(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	api.RespondJSON(w, http.StatusOK, ordersResponse{Orders: orders})
}

// FarmerOrders lists orders holding the caller's products
func (h *OrderHandler) FarmerOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderService.ListFarmerOrders(r.Context(), caller(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.RespondJSON(w, http.StatusOK, farmerOrdersResponse{Orders: orders})
}

// GetOrder returns one of the caller's orders
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "id", apperr.ErrOrderNotFound)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), id, caller(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.RespondJSON(w, http.StatusOK, orderResponse{Order: order})
}

// CancelOrder cancels one of the caller's orders
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "id", apperr.ErrOrderNotFound)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	order, err := h.orderService.CancelOrder(r.Context(), id, caller(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.RespondJSON(w, http.StatusOK, orderResponse{Order: order})
}

// UpdateStatus advances fulfilment of an order
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "id", apperr.ErrOrderNotFound)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req models.OrderStatusRequest
	if err := api.DecodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	p := caller(r)
	order, err := h.orderService.UpdateOrderStatus(r.Context(), p.UserID, p.Roles, id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.RespondJSON(w, http.StatusOK, orderResponse{Order: order})
}
