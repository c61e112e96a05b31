package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"storefront/gateway"
	"storefront/kafka"
	"storefront/models"
	"storefront/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CustomerInfo struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone" binding:"required"`
}

type ShippingAddress struct {
	Line1      string `json:"line1" binding:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state" binding:"required"`
	PostalCode string `json:"postal_code" binding:"required"`
}

type PlaceOrderItem struct {
	ProductID uuid.UUID `json:"product_id"`
	VariantID uuid.UUID `json:"variant_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

type PlaceOrderRequest struct {
	Customer        CustomerInfo     `json:"customer" binding:"required"`
	ShippingAddress ShippingAddress  `json:"shipping_address" binding:"required"`
	PaymentMethod   string           `json:"payment_method" binding:"required"`
	Items           []PlaceOrderItem `json:"items" binding:"required,dive"`
	CouponCode      string           `json:"coupon_code"`
}

type PlaceOrderResponse struct {
	OrderID        uuid.UUID `json:"order_id"`
	OrderNumber    string    `json:"order_number"`
	TotalAmount    float64   `json:"total_amount"`
	PaymentMethod  string    `json:"payment_method"`
	GatewayOrderID string    `json:"gateway_order_id,omitempty"` // for the client to start the online payment
}

type LookupOrderRequest struct {
	OrderNumber string `json:"order_number" binding:"required"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
}

// OrderServiceConfig carries the checkout policy knobs.
type OrderServiceConfig struct {
	DeliveryFee         float64
	FreeDeliveryMin     float64
	Currency            string
	ClearCartAfterOrder bool
}

// OrderService assembles orders from checkout requests and guards order
// lookups. Placement is a multi-step workflow over a store without ambient
// transactions, so every step after the first mutation has a compensating
// action.
type OrderService struct {
	orders   repository.OrderRepository
	variants repository.VariantRepository
	coupons  CouponService
	gateway  gateway.PaymentGateway
	carts    CartStorage
	producer kafka.ProducerAPI
	cfg      OrderServiceConfig
	logger   *zap.Logger
}

func NewOrderService(
	orders repository.OrderRepository,
	variants repository.VariantRepository,
	coupons CouponService,
	gw gateway.PaymentGateway,
	carts CartStorage,
	producer kafka.ProducerAPI,
	cfg OrderServiceConfig,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orders:   orders,
		variants: variants,
		coupons:  coupons,
		gateway:  gw,
		carts:    carts,
		producer: producer,
		cfg:      cfg,
		logger:   logger,
	}
}

// reservation tracks a successful stock decrement so failures later in the
// workflow can return it.
type reservation struct {
	variantID uuid.UUID
	quantity  int
}

// PlaceOrder validates the checkout request, reserves stock, creates the
// order with its item snapshots, and records coupon usage. Any failure after
// the first stock decrement releases every reservation made so far and
// deletes the partially created order.
func (s *OrderService) PlaceOrder(ctx context.Context, userID string, req *PlaceOrderRequest) (*PlaceOrderResponse, *ServiceError) {
	if svcErr := validatePlaceOrder(req); svcErr != nil {
		return nil, svcErr
	}

	// Load variants and snapshot catalog data before touching anything.
	// Stock is pre-checked here for early feedback; the authoritative check
	// is the conditional decrement below.
	variants := make([]*models.Variant, len(req.Items))
	var subtotal float64
	for i, item := range req.Items {
		variant, err := s.variants.FindByID(ctx, item.VariantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, validationError("Variant not found")
			}
			s.logger.Error("Failed to load variant", zap.Error(err))
			return nil, internalError("Failed to place order")
		}
		if variant.StockQuantity < item.Quantity {
			return nil, stockError(variant.ProductName, variant.StockQuantity, item.Quantity)
		}
		variants[i] = variant
		subtotal += variant.EffectivePrice() * float64(item.Quantity)
	}

	if subtotal <= 0 {
		return nil, validationError("Order subtotal must be positive")
	}

	var discount float64
	if req.CouponCode != "" {
		var svcErr *ServiceError
		discount, svcErr = s.coupons.Validate(ctx, req.CouponCode, subtotal)
		if svcErr != nil {
			return nil, svcErr
		}
	}

	deliveryFee := s.cfg.DeliveryFee
	if s.cfg.FreeDeliveryMin > 0 && subtotal >= s.cfg.FreeDeliveryMin {
		deliveryFee = 0
	}
	totalAmount := subtotal - discount + deliveryFee
	if totalAmount <= 0 {
		return nil, validationError("Order total must be positive")
	}

	orderNumber := generateOrderNumber()

	// Reserve stock for every item. The conditional decrement is the only
	// thing standing between two concurrent checkouts of the last unit, so
	// a failed item releases everything reserved before it.
	reserved := make([]reservation, 0, len(req.Items))
	for i, item := range req.Items {
		if err := s.variants.Reserve(ctx, item.VariantID, item.Quantity); err != nil {
			s.releaseReservations(ctx, reserved)
			if errors.Is(err, repository.ErrInsufficientStock) {
				available, stockErr := s.variants.GetStock(ctx, item.VariantID)
				if stockErr != nil {
					available = 0
				}
				return nil, stockError(variants[i].ProductName, available, item.Quantity)
			}
			s.logger.Error("Stock reservation failed", zap.Error(err))
			return nil, internalError("Failed to place order")
		}
		reserved = append(reserved, reservation{variantID: item.VariantID, quantity: item.Quantity})
	}

	var gatewayOrderID string
	if req.PaymentMethod == models.PaymentMethodOnline {
		amountMinor := int64(math.Round(totalAmount * 100))
		id, err := s.gateway.CreateOrder(ctx, amountMinor, s.cfg.Currency, orderNumber)
		if err != nil {
			s.releaseReservations(ctx, reserved)
			s.logger.Error("Gateway order creation failed", zap.Error(err))
			return nil, &ServiceError{
				StatusCode: http.StatusBadGateway,
				Kind:       KindOrderCreation,
				Message:    "Payment gateway unavailable",
			}
		}
		gatewayOrderID = id
	}

	order := s.buildOrder(userID, req, orderNumber, gatewayOrderID, subtotal, discount, deliveryFee, totalAmount)
	if err := s.orders.Create(ctx, order); err != nil {
		s.releaseReservations(ctx, reserved)
		s.logger.Error("Order creation failed", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Kind: KindOrderCreation, Message: "Failed to create order"}
	}

	items := buildOrderItems(order.ID, req.Items, variants)
	if err := s.orders.CreateItems(ctx, items); err != nil {
		// Compensate: the order without its items must not survive.
		s.deleteOrderBestEffort(ctx, order.ID)
		s.releaseReservations(ctx, reserved)
		s.logger.Error("Order item creation failed", zap.String("order_number", orderNumber), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Kind: KindOrderCreation, Message: "Failed to create order"}
	}

	if req.CouponCode != "" {
		if svcErr := s.coupons.RecordUsage(ctx, req.CouponCode); svcErr != nil {
			// Validation and usage raced another redemption; unwind the order.
			s.deleteOrderBestEffort(ctx, order.ID)
			s.releaseReservations(ctx, reserved)
			return nil, svcErr
		}
	}

	if s.cfg.ClearCartAfterOrder && userID != "" && s.carts != nil {
		if err := s.carts.DeleteCart(ctx, userID); err != nil {
			s.logger.Warn("Failed to clear cart after order", zap.String("user_id", userID), zap.Error(err))
		}
	}

	s.publishOrderPlaced(ctx, order, userID)

	s.logger.Info("Order placed",
		zap.String("order_number", orderNumber),
		zap.Float64("total_amount", totalAmount),
		zap.String("payment_method", req.PaymentMethod))

	return &PlaceOrderResponse{
		OrderID:        order.ID,
		OrderNumber:    orderNumber,
		TotalAmount:    totalAmount,
		PaymentMethod:  req.PaymentMethod,
		GatewayOrderID: gatewayOrderID,
	}, nil
}

// GetOrder resolves an order by id and enforces visibility: an owned order is
// visible only to its owner; a guest order carries no owner, so the link
// itself is the credential.
func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID, callerUserID string) (*models.Order, *ServiceError) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ServiceError{StatusCode: 404, Kind: KindOrderNotFound, Message: "Order not found"}
		}
		s.logger.Error("Failed to fetch order", zap.Error(err))
		return nil, internalError("Failed to fetch order")
	}

	if order.UserID != nil && order.UserID.String() != callerUserID {
		return nil, &ServiceError{StatusCode: 403, Kind: KindAccessDenied, Message: "Access denied"}
	}

	return order, nil
}

// LookupOrder resolves an order by its human-facing number plus a matching
// contact, returning a sanitized projection with no internal identifiers.
func (s *OrderService) LookupOrder(ctx context.Context, req *LookupOrderRequest) (*models.OrderSummary, *ServiceError) {
	if req.OrderNumber == "" {
		return nil, validationError("Order number is required")
	}
	if req.Email == "" && req.Phone == "" {
		return nil, validationError("Email or phone is required")
	}

	order, err := s.orders.FindByNumberAndContact(ctx, req.OrderNumber, req.Email, req.Phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ServiceError{StatusCode: 404, Kind: KindOrderNotFound, Message: "Order not found"}
		}
		s.logger.Error("Order lookup failed", zap.Error(err))
		return nil, internalError("Failed to look up order")
	}

	return order.Summary(), nil
}

// GetUserOrders retrieves paginated orders for a specific user.
func (s *OrderService) GetUserOrders(ctx context.Context, userID string, page, limit int) ([]models.Order, int64, *ServiceError) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, 0, validationError("Invalid user ID format")
	}

	orders, total, err := s.orders.FindByUserID(ctx, userUUID, page, limit)
	if err != nil {
		s.logger.Error("Failed to fetch orders", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, internalError("Failed to fetch orders")
	}
	return orders, total, nil
}

func validatePlaceOrder(req *PlaceOrderRequest) *ServiceError {
	if len(req.Items) == 0 {
		return validationError("At least one item is required")
	}
	if req.PaymentMethod != models.PaymentMethodOnline && req.PaymentMethod != models.PaymentMethodCOD {
		return validationError("Payment method must be online or cod")
	}
	if req.Customer.Name == "" || (req.Customer.Email == "" && req.Customer.Phone == "") {
		return validationError("Customer name and a contact are required")
	}
	addr := req.ShippingAddress
	if addr.Line1 == "" || addr.City == "" || addr.State == "" || addr.PostalCode == "" {
		return validationError("Shipping address is incomplete")
	}
	for _, item := range req.Items {
		if item.VariantID == uuid.Nil {
			return validationError("Item variant is required")
		}
		if item.Quantity <= 0 {
			return validationError("Item quantity must be positive")
		}
	}
	return nil
}

func (s *OrderService) buildOrder(userID string, req *PlaceOrderRequest, orderNumber, gatewayOrderID string, subtotal, discount, deliveryFee, totalAmount float64) *models.Order {
	order := &models.Order{
		ID:                 uuid.New(),
		OrderNumber:        orderNumber,
		Status:             models.OrderStatusPending,
		PaymentMethod:      req.PaymentMethod,
		PaymentStatus:      models.PaymentStatusPending,
		Subtotal:           subtotal,
		DiscountAmount:     discount,
		DeliveryFee:        deliveryFee,
		TotalAmount:        totalAmount,
		CustomerName:       req.Customer.Name,
		CustomerEmail:      req.Customer.Email,
		CustomerPhone:      req.Customer.Phone,
		ShippingLine1:      req.ShippingAddress.Line1,
		ShippingLine2:      req.ShippingAddress.Line2,
		ShippingCity:       req.ShippingAddress.City,
		ShippingState:      req.ShippingAddress.State,
		ShippingPostalCode: req.ShippingAddress.PostalCode,
		GatewayOrderID:     gatewayOrderID,
	}
	if userID != "" {
		if parsed, err := uuid.Parse(userID); err == nil {
			order.UserID = &parsed
		}
	}
	if req.CouponCode != "" {
		code := strings.ToUpper(req.CouponCode)
		order.CouponCode = &code
	}
	return order
}

func buildOrderItems(orderID uuid.UUID, items []PlaceOrderItem, variants []*models.Variant) []models.OrderItem {
	out := make([]models.OrderItem, 0, len(items))
	for i, item := range items {
		variant := variants[i]
		productID := variant.ProductID
		variantID := variant.ID
		unit := variant.EffectivePrice()
		out = append(out, models.OrderItem{
			OrderID:     orderID,
			ProductID:   &productID,
			VariantID:   &variantID,
			ProductName: variant.ProductName,
			Size:        variant.Size,
			Color:       variant.Color,
			Quantity:    item.Quantity,
			UnitPrice:   unit,
			TotalPrice:  unit * float64(item.Quantity),
		})
	}
	return out
}

func (s *OrderService) releaseReservations(ctx context.Context, reserved []reservation) {
	for _, r := range reserved {
		if err := s.variants.Release(ctx, r.variantID, r.quantity); err != nil {
			s.logger.Error("Failed to release reserved stock",
				zap.String("variant_id", r.variantID.String()),
				zap.Int("quantity", r.quantity),
				zap.Error(err))
		}
	}
}

func (s *OrderService) deleteOrderBestEffort(ctx context.Context, orderID uuid.UUID) {
	if err := s.orders.Delete(ctx, orderID); err != nil {
		s.logger.Error("Failed to delete partially created order",
			zap.String("order_id", orderID.String()),
			zap.Error(err))
	}
}

func (s *OrderService) publishOrderPlaced(ctx context.Context, order *models.Order, userID string) {
	if s.producer == nil {
		return
	}
	event := models.OrderPlacedEvent{
		EventType:     "order.placed",
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		UserID:        userID,
		TotalAmount:   order.TotalAmount,
		PaymentMethod: order.PaymentMethod,
		Timestamp:     time.Now().UTC(),
	}
	if order.CouponCode != nil {
		event.CouponCode = *order.CouponCode
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := s.producer.Publish(ctx, []byte(order.OrderNumber), data); err != nil {
		// Best-effort; the order stands regardless.
		s.logger.Warn("Failed to publish order.placed event", zap.Error(err))
	}
}

// generateOrderNumber produces a human-facing order number with a
// high-entropy suffix so concurrent checkouts cannot collide.
func generateOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", time.Now().UTC().Format("20060102"), suffix)
}
