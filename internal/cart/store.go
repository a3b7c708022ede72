package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rishabhkhetan/pharma-trade-connect/internal/kv"
)

// StorageKey is the blob key the cart lives under. The two prototypes used
// different keys; the versioned one wins.
const StorageKey = "pt_cart_v1"

// Store persists the cart as a JSON-encoded line-item list under a single
// blob key. Every mutation is a full read-modify-rewrite of the list, so a
// subsequent read never observes a partial update. One store instance
// assumes it is the only writer; concurrent stores over the same blob race
// last-writer-wins.
type Store struct {
	blobs kv.Store
	key   string
}

func NewStore(blobs kv.Store) *Store {
	return &Store{blobs: blobs, key: StorageKey}
}

// Items returns the current cart. A missing key or a corrupt blob is an
// empty cart, never an error: bad local state must not lock the user out of
// shopping. Any other backend failure is returned as-is so callers never
// mistake a transient read error for an empty cart.
func (s *Store) Items(ctx context.Context) ([]LineItem, error) {
	raw, err := s.blobs.Get(ctx, s.key)
	if errors.Is(err, kv.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}

	var items []LineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, nil
	}
	return items, nil
}

// AddItem merges the quantity into an existing line item with the same
// product id, or appends a new one preserving insertion order. A
// non-positive quantity adds a single unit.
func (s *Store) AddItem(ctx context.Context, item LineItem) error {
	if item.Quantity < 1 {
		item.Quantity = 1
	}

	items, err := s.Items(ctx)
	if err != nil {
		return err
	}

	merged := false
	for i := range items {
		if items[i].ProductID == item.ProductID {
			items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		items = append(items, item)
	}

	return s.write(ctx, items)
}

// UpdateQuantity sets the line item's quantity. A quantity of zero or less
// removes the line item entirely; decrementing to zero and Remove are
// equivalent.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	items, err := s.Items(ctx)
	if err != nil {
		return err
	}

	updated := items[:0]
	for _, item := range items {
		if item.ProductID == productID {
			if quantity <= 0 {
				continue
			}
			item.Quantity = quantity
		}
		updated = append(updated, item)
	}

	return s.write(ctx, updated)
}

// Remove deletes the line item with this product id; absent ids are a no-op.
func (s *Store) Remove(ctx context.Context, productID string) error {
	items, err := s.Items(ctx)
	if err != nil {
		return err
	}

	kept := items[:0]
	for _, item := range items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}

	return s.write(ctx, kept)
}

// Clear empties the cart and removes the persisted blob.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.blobs.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// TotalAmount recomputes the cart total from storage. No caching: other
// entry points may have mutated the blob since the last read.
func (s *Store) TotalAmount(ctx context.Context) (float64, error) {
	items, err := s.Items(ctx)
	if err != nil {
		return 0, err
	}
	return TotalAmount(items), nil
}

// TotalCount recomputes the badge count from storage.
func (s *Store) TotalCount(ctx context.Context) (int, error) {
	items, err := s.Items(ctx)
	if err != nil {
		return 0, err
	}
	return TotalCount(items), nil
}

func (s *Store) write(ctx context.Context, items []LineItem) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	if err := s.blobs.Set(ctx, s.key, raw); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}
