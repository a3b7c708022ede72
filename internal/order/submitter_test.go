package order

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rishabhkhetan/pharma-trade-connect/internal/cart"
	"github.com/rishabhkhetan/pharma-trade-connect/internal/kv"
	"github.com/rishabhkhetan/pharma-trade-connect/internal/session"
)

// ordersCollaborator records every POST /orders it receives.
type ordersCollaborator struct {
	mu       sync.Mutex
	requests []Payload
	headers  []http.Header
	status   int
}

func (c *ordersCollaborator) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/orders", r.URL.Path)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var p Payload
		require.NoError(t, json.Unmarshal(body, &p))

		c.mu.Lock()
		c.requests = append(c.requests, p)
		c.headers = append(c.headers, r.Header.Clone())
		status := c.status
		c.mu.Unlock()

		if status != 0 {
			http.Error(w, "order rejected", status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":42}`))
	})
}

func (c *ordersCollaborator) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

func approvedSession() session.Session {
	return session.Session{
		User: session.User{ID: "u7", Role: session.RoleRetailer, IsApproved: session.ApprovedYes},
	}
}

func setupSubmitter(t *testing.T, pricing Pricing) (*Submitter, *cart.Store, *ordersCollaborator) {
	t.Helper()

	collab := &ordersCollaborator{}
	srv := httptest.NewServer(collab.handler(t))
	t.Cleanup(srv.Close)

	carts := cart.NewStore(kv.NewMemoryStore())
	return NewSubmitter(carts, srv.URL, pricing, zap.NewNop()), carts, collab
}

func fillCart(t *testing.T, carts *cart.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, carts.AddItem(ctx, cart.LineItem{ProductID: "1", UnitPrice: 35, Quantity: 2}))
	require.NoError(t, carts.AddItem(ctx, cart.LineItem{ProductID: "2", UnitPrice: 90, Quantity: 1}))
}

func cartItems(t *testing.T, carts *cart.Store) []cart.LineItem {
	t.Helper()
	items, err := carts.Items(context.Background())
	require.NoError(t, err)
	return items
}

func TestPlaceOrder_EmptyCartFailsFast(t *testing.T) {
	submitter, _, collab := setupSubmitter(t, Pricing{})

	_, err := submitter.PlaceOrder(context.Background(), approvedSession())

	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, collab.count(), "no network call may be made for an empty cart")
}

func TestPlaceOrder_SubmitsBaseTotal(t *testing.T) {
	submitter, carts, collab := setupSubmitter(t, Pricing{})
	fillCart(t, carts)

	conf, err := submitter.PlaceOrder(context.Background(), approvedSession())
	require.NoError(t, err)

	require.Equal(t, 1, collab.count())
	sent := collab.requests[0]
	assert.Equal(t, 160.0, sent.TotalAmount) // 35*2 + 90*1
	assert.Equal(t, "u7", sent.UserID)
	assert.Equal(t, StatusPending, sent.Status)
	assert.False(t, sent.CreatedAt.IsZero())
	require.Len(t, sent.Items, 2)
	assert.Equal(t, PayloadItem{ProductID: "1", Quantity: 2, UnitPrice: 35}, sent.Items[0])
	assert.Equal(t, PayloadItem{ProductID: "2", Quantity: 1, UnitPrice: 90}, sent.Items[1])

	assert.Equal(t, "42", conf.OrderID)
	assert.Equal(t, 160.0, conf.TotalAmount)
}

func TestPlaceOrder_DeliveryFeeIsConfigured(t *testing.T) {
	submitter, carts, collab := setupSubmitter(t, Pricing{DeliveryFee: 27})
	fillCart(t, carts)

	conf, err := submitter.PlaceOrder(context.Background(), approvedSession())
	require.NoError(t, err)

	require.Equal(t, 1, collab.count())
	assert.Equal(t, 187.0, collab.requests[0].TotalAmount)
	assert.Equal(t, 187.0, conf.TotalAmount)
}

func TestPlaceOrder_SuccessClearsCart(t *testing.T) {
	submitter, carts, _ := setupSubmitter(t, Pricing{})
	fillCart(t, carts)

	_, err := submitter.PlaceOrder(context.Background(), approvedSession())
	require.NoError(t, err)

	assert.Empty(t, cartItems(t, carts))
}

func TestPlaceOrder_FailurePreservesCart(t *testing.T) {
	submitter, carts, collab := setupSubmitter(t, Pricing{})
	collab.status = http.StatusInternalServerError
	fillCart(t, carts)

	_, err := submitter.PlaceOrder(context.Background(), approvedSession())

	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, http.StatusInternalServerError, subErr.StatusCode)
	assert.NotEmpty(t, subErr.Message)

	items := cartItems(t, carts)
	require.Len(t, items, 2)
	assert.Equal(t, 3, cart.TotalCount(items))
}

func TestPlaceOrder_TransportFailurePreservesCart(t *testing.T) {
	carts := cart.NewStore(kv.NewMemoryStore())
	fillCart(t, carts)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused

	submitter := NewSubmitter(carts, srv.URL, Pricing{}, zap.NewNop())
	_, err := submitter.PlaceOrder(context.Background(), approvedSession())

	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Len(t, cartItems(t, carts), 2)
}

func TestPlaceOrder_UnapprovedSessionBlocked(t *testing.T) {
	submitter, carts, collab := setupSubmitter(t, Pricing{})
	fillCart(t, carts)

	sess := session.Session{
		User: session.User{ID: "u9", Role: session.RoleClinic, IsApproved: session.ApprovedNo},
	}
	_, err := submitter.PlaceOrder(context.Background(), sess)

	assert.ErrorIs(t, err, ErrNotApproved)
	assert.Zero(t, collab.count())
	assert.Len(t, cartItems(t, carts), 2)
}

func TestPlaceOrder_AttachesFreshIdempotencyKey(t *testing.T) {
	submitter, carts, collab := setupSubmitter(t, Pricing{})
	fillCart(t, carts)

	_, err := submitter.PlaceOrder(context.Background(), approvedSession())
	require.NoError(t, err)

	fillCart(t, carts)
	_, err = submitter.PlaceOrder(context.Background(), approvedSession())
	require.NoError(t, err)

	require.Equal(t, 2, collab.count())
	first := collab.headers[0].Get("X-Idempotency-Key")
	second := collab.headers[1].Get("X-Idempotency-Key")
	assert.NotEmpty(t, first)
	assert.NotEmpty(t, second)
	assert.NotEqual(t, first, second)
}
