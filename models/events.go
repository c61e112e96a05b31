package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderPlacedEvent is published after a successful order placement.
type OrderPlacedEvent struct {
	EventType     string    `json:"event_type"`
	OrderID       uuid.UUID `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	UserID        string    `json:"user_id,omitempty"`
	TotalAmount   float64   `json:"total_amount"`
	PaymentMethod string    `json:"payment_method"`
	CouponCode    string    `json:"coupon_code,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// PaymentConfirmedEvent is published after a payment callback transitions an
// order to paid.
type PaymentConfirmedEvent struct {
	EventType   string    `json:"event_type"`
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Amount      float64   `json:"amount"`
	Timestamp   time.Time `json:"timestamp"`
}
