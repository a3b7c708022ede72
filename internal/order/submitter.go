package order

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/rishabhkhetan/pharma-trade-connect/internal/cart"
	"github.com/rishabhkhetan/pharma-trade-connect/internal/session"
)

var ErrNotApproved = errors.New("account is not approved for ordering")

// Submitter converts the current cart into an order and posts it to the
// order resource. One attempt per call; on failure the cart is preserved for
// a retry, on acknowledged success the cart is cleared.
type Submitter struct {
	carts      *cart.Store
	baseURL    string
	httpClient *http.Client
	pricing    Pricing
	logger     *zap.Logger

	now    func() time.Time
	newKey func() string // idempotency key per attempt
}

func NewSubmitter(carts *cart.Store, baseURL string, pricing Pricing, logger *zap.Logger) *Submitter {
	return &Submitter{
		carts:   carts,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		pricing: pricing,
		logger:  logger,
		now:     time.Now,
		newKey:  uuid.NewString,
	}
}

// createdOrder is the collaborator's acknowledgement; the fixture echoes the
// payload back with an id assigned.
type createdOrder struct {
	ID json.Number `json:"id"`
}

// PlaceOrder builds the payload from the cart snapshot at call time and
// posts it. The submitting user comes from the session, never a placeholder.
func (s *Submitter) PlaceOrder(ctx context.Context, sess session.Session) (*Confirmation, error) {
	if !sess.CanOrder() {
		return nil, ErrNotApproved
	}

	items, err := s.carts.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	payload := s.buildPayload(sess.User.ID, items)

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// lets the collaborator deduplicate a resubmitted timeout
	req.Header.Set("X-Idempotency-Key", s.newKey())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &SubmissionError{Message: "failed to place order", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, &SubmissionError{Message: "failed to place order", StatusCode: resp.StatusCode}
	}

	var created createdOrder
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		s.logger.Warn("order acknowledged but response unreadable", zap.Error(err))
	}

	// acknowledged: the cart's job is done
	if err := s.carts.Clear(ctx); err != nil {
		s.logger.Error("order placed but cart not cleared", zap.Error(err))
	}

	s.logger.Info("order placed",
		zap.String("order_id", created.ID.String()),
		zap.String("user_id", sess.User.ID),
		zap.Float64("total_amount", payload.TotalAmount))

	return &Confirmation{
		OrderID:     created.ID.String(),
		TotalAmount: payload.TotalAmount,
		PlacedAt:    payload.CreatedAt,
	}, nil
}

func (s *Submitter) buildPayload(userID string, items []cart.LineItem) Payload {
	payloadItems := make([]PayloadItem, 0, len(items))
	for _, item := range items {
		payloadItems = append(payloadItems, PayloadItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	return Payload{
		UserID:      userID,
		TotalAmount: s.pricing.Total(cart.TotalAmount(items)),
		Status:      StatusPending,
		CreatedAt:   s.now().UTC(),
		Items:       payloadItems,
	}
}
