package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/rishabhkhetan/pharma-trade-connect/internal/server/domain"
	"github.com/rishabhkhetan/pharma-trade-connect/internal/server/postgres"
)

type orderRequest struct {
	Items []postgres.OrderItemRequest `json:"items"`
}

// PlaceOrder creates an order for the authenticated user. Prices and the
// total come from the database; the client's quoted prices are only a
// display snapshot.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if len(req.Items) == 0 {
		h.respondError(w, http.StatusBadRequest, "empty_order", "order must contain at least one item")
		return
	}
	for _, item := range req.Items {
		if item.ProductID == "" || item.Quantity < 1 {
			h.respondError(w, http.StatusBadRequest, "invalid_item", "every item needs a product_id and a positive quantity")
			return
		}
	}

	order, err := h.store.CreateOrder(r.Context(), userIDFromContext(r.Context()), req.Items)
	if err != nil {
		var stockErr *postgres.InsufficientStockError
		switch {
		case errors.Is(err, postgres.ErrProductNotFound):
			h.respondError(w, http.StatusNotFound, "not_found", "product not found")
		case errors.As(err, &stockErr):
			h.respondError(w, http.StatusConflict, "insufficient_stock", stockErr.Error())
		default:
			h.logger.Error("create order failed", zap.Error(err))
			h.respondError(w, http.StatusInternalServerError, "internal", "failed to place order")
		}
		return
	}

	h.logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("user_id", order.UserID),
		zap.Float64("total_amount", order.TotalAmount))
	h.respondJSON(w, http.StatusCreated, order)
}

// ListOrders returns the authenticated user's order history.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.store.ListOrdersByUser(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		h.logger.Error("list orders failed", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal", "failed to load orders")
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	h.respondJSON(w, http.StatusOK, orders)
}
