package handler

import (
	"net/http"

	"github.com/utsav306/farmconnect-sub000/internal/api"
	"github.com/utsav306/farmconnect-sub000/internal/apperr"
	"github.com/utsav306/farmconnect-sub000/internal/models"
	"github.com/utsav306/farmconnect-sub000/internal/service"
)

// ProductHandler handles the catalog
type ProductHandler struct {
	productService *service.ProductService
	fail           api.ErrorWriter
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService *service.ProductService, fail api.ErrorWriter) *ProductHandler {
	return &ProductHandler{productService: productService, fail: fail}
}

type productResponse struct {
	Product *models.Product `json:"product"`
}

type productsResponse struct {
	Products []models.Product `json:"products"`
}

// ListProducts serves the public catalog page
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page, err := queryInt(r, "page")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	q := r.URL.Query()
	result, err := h.productService.ListProducts(r.Context(), models.ProductQuery{
		Category: q.Get("category"),
		Search:   q.Get("search"),
		Sort:     models.ProductSort(q.Get("sort")),
		Limit:    limit,
		Page:     page,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, result)
}

// GetProduct returns a single product
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "id", apperr.ErrProductNotFound)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	product, err := h.productService.GetProduct(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.RespondJSON(w, http.StatusOK, productResponse{Product: product})
}

// MyProducts lists the caller's products, inactive ones included
func (h *ProductHandler) MyProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.productService.ListFarmerProducts(r.Context(), caller(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	api.RespondJSON(w, http.StatusOK, productsResponse{Products: products})
}

// CreateProduct lists a new product for the calling farmer
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req models.ProductRequest
	if err := api.DecodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	product, err := h.productService.CreateProduct(r.Context(), caller(r).UserID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.RespondJSON(w, http.StatusCreated, productResponse{Product: product})
}

// UpdateProduct edits one of the caller's products
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "id", apperr.ErrProductNotFound)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req models.ProductUpdateRequest
	if err := api.DecodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	product, err := h.productService.UpdateProduct(r.Context(), caller(r).UserID, id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.RespondJSON(w, http.StatusOK, productResponse{Product: product})
}

// DeleteProduct takes one of the caller's products off sale
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "id", apperr.ErrProductNotFound)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.productService.DeleteProduct(r.Context(), caller(r).UserID, id); err != nil {
		h.fail(w, r, err)
		return
	}
	api.RespondJSON(w, http.StatusOK, api.MessageResponse{Message: "Product deleted successfully"})
}

// DeactivateProduct is the moderation takedown
func (h *ProductHandler) DeactivateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "id", apperr.ErrProductNotFound)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.productService.DeactivateProduct(r.Context(), caller(r).UserID, id); err != nil {
		h.fail(w, r, err)
		return
	}
	api.RespondJSON(w, http.StatusOK, api.MessageResponse{Message: "Product deactivated"})
}
