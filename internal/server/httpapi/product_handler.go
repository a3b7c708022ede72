package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/rishabhkhetan/pharma-trade-connect/internal/server/domain"
	"github.com/rishabhkhetan/pharma-trade-connect/internal/server/postgres"
)

type productRequest struct {
	Name          string  `json:"name"`
	Brand         string  `json:"brand"`
	Manufacturer  string  `json:"manufacturer"`
	Price         float64 `json:"price"`
	StockQuantity int     `json:"stock_quantity"`
}

func (r productRequest) validate() string {
	if r.Name == "" {
		return "name is required"
	}
	if r.Price <= 0 {
		return "price must be positive"
	}
	if r.StockQuantity < 0 {
		return "stock_quantity must not be negative"
	}
	return ""
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.ListProducts(r.Context())
	if err != nil {
		h.logger.Error("list products failed", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal", "failed to load products")
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	h.respondJSON(w, http.StatusOK, products)
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if msg := req.validate(); msg != "" {
		h.respondError(w, http.StatusBadRequest, "invalid_request", msg)
		return
	}

	product := &domain.Product{
		Name:          req.Name,
		Brand:         req.Brand,
		Manufacturer:  req.Manufacturer,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
	}
	if err := h.store.CreateProduct(r.Context(), product); err != nil {
		h.logger.Error("create product failed", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal", "failed to add product")
		return
	}

	h.respondJSON(w, http.StatusCreated, product)
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if msg := req.validate(); msg != "" {
		h.respondError(w, http.StatusBadRequest, "invalid_request", msg)
		return
	}

	product := &domain.Product{
		ID:            chi.URLParam(r, "id"),
		Name:          req.Name,
		Brand:         req.Brand,
		Manufacturer:  req.Manufacturer,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
	}
	if err := h.store.UpdateProduct(r.Context(), product); err != nil {
		if errors.Is(err, postgres.ErrProductNotFound) {
			h.respondError(w, http.StatusNotFound, "not_found", "product not found")
			return
		}
		h.logger.Error("update product failed", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal", "failed to update product")
		return
	}

	h.respondJSON(w, http.StatusOK, product)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, postgres.ErrProductNotFound) {
			h.respondError(w, http.StatusNotFound, "not_found", "product not found")
			return
		}
		h.logger.Error("delete product failed", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal", "failed to delete product")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}
