package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/rishabhkhetan/pharma-trade-connect/internal/server/domain"
	"github.com/rishabhkhetan/pharma-trade-connect/internal/server/postgres"
)

// ListPendingClients returns the signup approval queue.
func (h *Handler) ListPendingClients(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListPendingUsers(r.Context())
	if err != nil {
		h.logger.Error("list pending users failed", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal", "failed to load pending clients")
		return
	}
	if users == nil {
		users = []domain.User{}
	}
	h.respondJSON(w, http.StatusOK, users)
}

type approveRequest struct {
	UserID string `json:"user_id"`
}

// ApproveClient flips a pending account to approved.
func (h *Handler) ApproveClient(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "user_id is required")
		return
	}

	if err := h.store.ApproveUser(r.Context(), req.UserID); err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			h.respondError(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		h.logger.Error("approve user failed", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal", "failed to approve user")
		return
	}

	h.logger.Info("user approved", zap.String("user_id", req.UserID))
	h.respondJSON(w, http.StatusOK, map[string]string{"message": "user approved"})
}
