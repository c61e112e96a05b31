package models

import (
	"time"

	"github.com/google/uuid"
)

// Variant is a purchasable size/color SKU of a product. Stock is tracked
// per variant and only ever decremented by order placement.
type Variant struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID     uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	ProductName   string    `gorm:"not null" json:"product_name"`
	Size          string    `gorm:"type:varchar(20)" json:"size"`
	Color         string    `gorm:"type:varchar(40)" json:"color"`
	Price         float64   `gorm:"not null" json:"price"`
	DiscountPrice *float64  `json:"discount_price,omitempty"`
	StockQuantity int       `gorm:"not null;default:0" json:"stock_quantity"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// EffectivePrice returns the discount price when one is set and lower than
// the list price, otherwise the list price.
func (v *Variant) EffectivePrice() float64 {
	if v.DiscountPrice != nil && *v.DiscountPrice > 0 && *v.DiscountPrice < v.Price {
		return *v.DiscountPrice
	}
	return v.Price
}
