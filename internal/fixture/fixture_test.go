package fixture

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rishabhkhetan/pharma-trade-connect/internal/cart"
	"github.com/rishabhkhetan/pharma-trade-connect/internal/catalog"
	"github.com/rishabhkhetan/pharma-trade-connect/internal/kv"
	"github.com/rishabhkhetan/pharma-trade-connect/internal/order"
	"github.com/rishabhkhetan/pharma-trade-connect/internal/session"
)

func setupFixture(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	fx := NewServer()
	srv := httptest.NewServer(fx.Handler())
	t.Cleanup(srv.Close)
	return fx, srv
}

func TestUsers_FilterByEmailAndApproval(t *testing.T) {
	fx, srv := setupFixture(t)
	fx.SeedUsers([]User{
		{ID: "u1", Email: "a@x.test", Role: "RETAILER", IsApproved: "YES"},
		{ID: "u2", Email: "b@x.test", Role: "CLINIC", IsApproved: "NO"},
	})

	resp, err := http.Get(srv.URL + "/users?email=b@x.test")
	require.NoError(t, err)
	defer resp.Body.Close()

	var users []User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&users))
	require.Len(t, users, 1)
	assert.Equal(t, "u2", users[0].ID)

	resp, err = http.Get(srv.URL + "/users?isApproved=NO")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&users))
	require.Len(t, users, 1)
	assert.Equal(t, "u2", users[0].ID)
}

func TestPatchUser_ApprovesAccount(t *testing.T) {
	fx, srv := setupFixture(t)
	fx.SeedUsers([]User{{ID: "u2", Email: "b@x.test", Role: "CLINIC", IsApproved: "NO"}})

	req, err := http.NewRequest(http.MethodPatch, srv.URL+"/users/u2",
		bytes.NewReader([]byte(`{"isApproved":"YES"}`)))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var patched User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&patched))
	assert.Equal(t, "YES", patched.IsApproved)
	// only the patched field changed
	assert.Equal(t, "b@x.test", patched.Email)
}

func TestCreateUser_AssignsID(t *testing.T) {
	_, srv := setupFixture(t)

	resp, err := http.Post(srv.URL+"/users", "application/json",
		bytes.NewReader([]byte(`{"email":"c@x.test","password":"pw","role":"RETAILER","isApproved":"NO"}`)))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.NotEmpty(t, created.ID)
	assert.NotEmpty(t, created.CreatedAt)
}

func TestOrders_StoredAndListed(t *testing.T) {
	fx, srv := setupFixture(t)

	body := []byte(`{"user_id":"u7","total_amount":160,"status":"PENDING","items":[{"product_id":"1","quantity":2,"unit_price":35}]}`)
	resp, err := http.Post(srv.URL+"/orders", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	orders := fx.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, "u7", orders[0].UserID)
	assert.Equal(t, 160.0, orders[0].TotalAmount)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, "1", orders[0].Items[0].ProductID)
}

// The full client flow against the fixture: browse, log in, fill the cart,
// place the order, observe the cleared cart.
func TestClientFlow_EndToEnd(t *testing.T) {
	fx, srv := setupFixture(t)
	fx.SeedProducts([]catalog.Product{
		{ID: "1", Name: "Paracetamol 500mg", Price: 35, StockQuantity: 120},
		{ID: "2", Name: "Amoxicillin 250mg", Price: 90, StockQuantity: 40},
	})
	fx.SeedUsers([]User{
		{ID: "u7", Email: "shop@acme.test", Password: "s3cret", Role: "RETAILER", IsApproved: "YES"},
	})

	ctx := context.Background()
	blobs := kv.NewMemoryStore()
	logger := zap.NewNop()

	products, err := catalog.NewClient(srv.URL).ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)

	gate := session.NewGate(srv.URL, session.NewKVStore(blobs), logger)
	sess, err := gate.Login(ctx, "shop@acme.test", "s3cret")
	require.NoError(t, err)

	carts := cart.NewStore(blobs)
	require.NoError(t, carts.AddItem(ctx, cart.LineItem{
		ProductID: products[0].ID, Name: products[0].Name, UnitPrice: products[0].Price, Quantity: 2,
	}))
	require.NoError(t, carts.AddItem(ctx, cart.LineItem{
		ProductID: products[1].ID, Name: products[1].Name, UnitPrice: products[1].Price, Quantity: 1,
	}))
	total, err := carts.TotalAmount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 160.0, total)

	submitter := order.NewSubmitter(carts, srv.URL, order.Pricing{}, logger)
	conf, err := submitter.PlaceOrder(ctx, *sess)
	require.NoError(t, err)
	assert.Equal(t, 160.0, conf.TotalAmount)

	orders := fx.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, "u7", orders[0].UserID)
	left, err := carts.Items(ctx)
	require.NoError(t, err)
	assert.Empty(t, left, "cart is cleared after the acknowledged order")
}
