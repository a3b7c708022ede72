// Package order turns the current cart into a submitted order.
package order

import (
	"errors"
	"fmt"
	"time"
)

const StatusPending = "PENDING"

var ErrEmptyCart = errors.New("cart is empty, nothing to submit")

// SubmissionError reports a failed order POST. The cart is left untouched
// so the user may retry; Message is safe to show as-is.
type SubmissionError struct {
	Message    string
	StatusCode int
	Err        error
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// PayloadItem is one line of the order as it goes over the wire.
type PayloadItem struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// Payload is the order creation request body, in the snake_case shape the
// PharmaTrade backend and the fixture server both accept.
type Payload struct {
	UserID      string        `json:"user_id"`
	TotalAmount float64       `json:"total_amount"`
	Status      string        `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	Items       []PayloadItem `json:"items"`
}

// Confirmation is what the caller gets back on an acknowledged submission.
type Confirmation struct {
	OrderID     string
	TotalAmount float64
	PlacedAt    time.Time
}

// Pricing names the pricing rules applied on top of the plain line-item sum.
// The two prototypes disagreed on whether a fixed delivery surcharge
// applies; it is a configuration knob here, zero by default.
type Pricing struct {
	DeliveryFee float64
}

// Total applies the pricing rules to a line-item subtotal.
func (p Pricing) Total(subtotal float64) float64 {
	return subtotal + p.DeliveryFee
}
