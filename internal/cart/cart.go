// Package cart holds the client-side shopping cart: the line-item model,
// the blob-backed store, and the pure aggregations over it.
package cart

// LineItem is one product-and-quantity entry within a cart. Name and
// UnitPrice are snapshots taken when the item was added; they are not
// refreshed against the live catalog.
type LineItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name,omitempty"`
	UnitPrice float64 `json:"unitPrice,omitempty"`
	Quantity  int     `json:"qty"`
}

// TotalAmount sums unit price times quantity over all line items. A missing
// unit price counts as zero.
func TotalAmount(items []LineItem) float64 {
	var total float64
	for _, item := range items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	return total
}

// TotalCount sums quantities over all line items, the number shown on the
// cart badge. Distinct from the number of distinct products.
func TotalCount(items []LineItem) int {
	var count int
	for _, item := range items {
		count += item.Quantity
	}
	return count
}
