package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order status values. An order is created as pending and moves to confirmed
// when its online payment is verified.
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Payment status values. pending -> paid is the only transition performed by
// this service; it happens exactly once per order.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// Payment methods accepted at checkout.
const (
	PaymentMethodOnline = "online"
	PaymentMethodCOD    = "cod"
)

type Order struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderNumber string     `gorm:"uniqueIndex;not null" json:"order_number"`
	UserID      *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"` // nil for guest orders

	Status        string `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	PaymentMethod string `gorm:"type:varchar(20);not null" json:"payment_method"`
	PaymentStatus string `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`

	Subtotal       float64 `gorm:"not null" json:"subtotal"`
	DiscountAmount float64 `gorm:"not null;default:0" json:"discount_amount"`
	DeliveryFee    float64 `gorm:"not null;default:0" json:"delivery_fee"`
	TotalAmount    float64 `gorm:"not null" json:"total_amount"`

	CustomerName  string `gorm:"not null" json:"customer_name"`
	CustomerEmail string `gorm:"index" json:"customer_email"`
	CustomerPhone string `gorm:"index" json:"customer_phone"`

	ShippingLine1      string `gorm:"not null" json:"shipping_line1"`
	ShippingLine2      string `json:"shipping_line2,omitempty"`
	ShippingCity       string `gorm:"not null" json:"shipping_city"`
	ShippingState      string `gorm:"not null" json:"shipping_state"`
	ShippingPostalCode string `gorm:"not null" json:"shipping_postal_code"`

	CouponCode *string `gorm:"type:varchar(64)" json:"coupon_code,omitempty"`

	// Gateway identifiers are internal and never serialized to clients.
	GatewayOrderID   string `gorm:"index" json:"-"`
	GatewayPaymentID string `json:"-"`

	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeliveredAt *time.Time     `json:"delivered_at,omitempty"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	OrderItems []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order_items"`
}

// OrderItem is an immutable snapshot of catalog data at purchase time, so
// later catalog edits never alter historical orders.
type OrderItem struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID   *uuid.UUID `gorm:"type:uuid" json:"product_id,omitempty"`
	VariantID   *uuid.UUID `gorm:"type:uuid" json:"variant_id,omitempty"`
	ProductName string     `gorm:"not null" json:"product_name"`
	Size        string     `gorm:"type:varchar(20)" json:"size"`
	Color       string     `gorm:"type:varchar(40)" json:"color"`
	Quantity    int        `gorm:"not null" json:"quantity"`
	UnitPrice   float64    `gorm:"not null" json:"unit_price"`
	TotalPrice  float64    `gorm:"not null" json:"total_price"`
}

// OrderSummary is the sanitized projection returned by the guest lookup
// endpoint: no internal or gateway identifiers.
type OrderSummary struct {
	OrderNumber    string      `json:"order_number"`
	Status         string      `json:"status"`
	PaymentMethod  string      `json:"payment_method"`
	PaymentStatus  string      `json:"payment_status"`
	Subtotal       float64     `json:"subtotal"`
	DiscountAmount float64     `json:"discount_amount"`
	DeliveryFee    float64     `json:"delivery_fee"`
	TotalAmount    float64     `json:"total_amount"`
	CustomerName   string      `json:"customer_name"`
	Items          []OrderItem `json:"items"`
	CreatedAt      time.Time   `json:"created_at"`
	DeliveredAt    *time.Time  `json:"delivered_at,omitempty"`
}

// Summary strips internal identifiers from an order for guest-facing lookup.
func (o *Order) Summary() *OrderSummary {
	return &OrderSummary{
		OrderNumber:    o.OrderNumber,
		Status:         o.Status,
		PaymentMethod:  o.PaymentMethod,
		PaymentStatus:  o.PaymentStatus,
		Subtotal:       o.Subtotal,
		DiscountAmount: o.DiscountAmount,
		DeliveryFee:    o.DeliveryFee,
		TotalAmount:    o.TotalAmount,
		CustomerName:   o.CustomerName,
		Items:          o.OrderItems,
		CreatedAt:      o.CreatedAt,
		DeliveredAt:    o.DeliveredAt,
	}
}
