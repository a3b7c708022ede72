// Package httpapi exposes the PharmaTrade backend over REST.
package httpapi

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rishabhkhetan/pharma-trade-connect/internal/server/domain"
	"github.com/rishabhkhetan/pharma-trade-connect/internal/server/postgres"
)

// Store is the slice of the storage layer the handlers need. *postgres.Repository
// satisfies it; tests plug in a mock.
type Store interface {
	CreateUser(ctx context.Context, user *domain.User, passwordHash string) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, string, error)
	ApproveUser(ctx context.Context, userID string) error
	ListPendingUsers(ctx context.Context) ([]domain.User, error)

	ListProducts(ctx context.Context) ([]domain.Product, error)
	CreateProduct(ctx context.Context, product *domain.Product) error
	UpdateProduct(ctx context.Context, product *domain.Product) error
	DeleteProduct(ctx context.Context, productID string) error

	CreateOrder(ctx context.Context, userID string, items []postgres.OrderItemRequest) (*domain.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]domain.Order, error)
}

type Handler struct {
	store     Store
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    *zap.Logger
}

func NewHandler(store Store, jwtSecret []byte, logger *zap.Logger) *Handler {
	return &Handler{
		store:     store,
		jwtSecret: jwtSecret,
		tokenTTL:  24 * time.Hour,
		logger:    logger,
	}
}
