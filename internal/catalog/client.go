// Package catalog reads the purchasable product list from the PharmaTrade
// backend (or the fixture server standing in for it).
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
)

// Product is an immutable snapshot of one catalog entry for the duration of
// a fetch. The reader never revalidates it afterwards.
type Product struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Brand         string  `json:"brand,omitempty"`
	Manufacturer  string  `json:"manufacturer,omitempty"`
	BatchNo       string  `json:"batchNo,omitempty"`
	Expiry        string  `json:"expiry,omitempty"`
	Price         float64 `json:"price"`
	StockQuantity int     `json:"stockQuantity"`
}

// FetchError reports a failed catalog read. Callers keep whatever product
// list they already had and surface the message as a non-fatal banner.
type FetchError struct {
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("catalog fetch failed: status %d", e.StatusCode)
	}
	return fmt.Sprintf("catalog fetch failed: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

type Client struct {
	baseURL    string
	httpClient *http.Client
	sfg        singleflight.Group // collapses concurrent fetches onto one request
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// ListProducts fetches the full product list. No pagination and no caching
// across calls; concurrent callers share a single in-flight request. The
// shared fetch runs on a context detached from the leader's cancellation so
// one canceled caller cannot fail the whole flight; the deadline comes from
// the http client's timeout.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{Err: err}
	}

	v, err, _ := c.sfg.Do("products", func() (interface{}, error) {
		return c.fetchProducts(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	return v.([]Product), nil
}

func (c *Client) fetchProducts(ctx context.Context) ([]Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/products", nil)
	if err != nil {
		return nil, &FetchError{Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{StatusCode: resp.StatusCode}
	}

	var products []Product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, &FetchError{Err: fmt.Errorf("decode products: %w", err)}
	}
	return products, nil
}
