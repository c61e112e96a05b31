package models

import (
	"time"

	"github.com/google/uuid"
)

// GuestOwner marks a cart held only by the client, not tied to an identity.
const GuestOwner = "guest"

// CartItem is one (variant, quantity) pair. A cart holds at most one entry
// per variant; adding the same variant again sums quantities.
type CartItem struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	VariantID uuid.UUID `json:"variant_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

type Cart struct {
	Owner     string     `json:"owner"` // user id, or "guest"
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// FindItem returns the index of the entry for the given variant, or -1.
func (c *Cart) FindItem(variantID uuid.UUID) int {
	for i, item := range c.Items {
		if item.VariantID == variantID {
			return i
		}
	}
	return -1
}

// CartLine is a cart entry priced at the variant's current effective price.
type CartLine struct {
	CartItem
	ProductName string  `json:"product_name"`
	Size        string  `json:"size"`
	Color       string  `json:"color"`
	UnitPrice   float64 `json:"unit_price"`
	LineTotal   float64 `json:"line_total"`
	InStock     bool    `json:"in_stock"`
}

// CartView is a cart priced at read time. A price change between add and
// checkout changes the displayed subtotal.
type CartView struct {
	Owner    string     `json:"owner"`
	Lines    []CartLine `json:"lines"`
	Subtotal float64    `json:"subtotal"`
}
