package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"storefront/gateway"
	"storefront/kafka"
	"storefront/models"
	"storefront/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ConfirmPaymentRequest struct {
	GatewayOrderID   string    `json:"gateway_order_id" binding:"required"`
	GatewayPaymentID string    `json:"gateway_payment_id" binding:"required"`
	Signature        string    `json:"signature" binding:"required"`
	OrderID          uuid.UUID `json:"order_id" binding:"required"`
}

type ConfirmPaymentResponse struct {
	OrderID          uuid.UUID `json:"order_id"`
	OrderNumber      string    `json:"order_number"`
	Status           string    `json:"status"`
	PaymentStatus    string    `json:"payment_status"`
	AlreadyConfirmed bool      `json:"already_confirmed"`
}

// PaymentService verifies the payment gateway's signed callback and
// transitions an order's payment fields exactly once. The gateway retries
// callbacks, so every path here must tolerate at-least-once delivery.
type PaymentService struct {
	orders   repository.OrderRepository
	gateway  gateway.PaymentGateway
	producer kafka.ProducerAPI
	logger   *zap.Logger
}

func NewPaymentService(orders repository.OrderRepository, gw gateway.PaymentGateway, producer kafka.ProducerAPI, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		orders:   orders,
		gateway:  gw,
		producer: producer,
		logger:   logger,
	}
}

// ConfirmPayment authenticates the callback by its HMAC signature, then moves
// the order from pending to paid. A retried callback for an already-paid
// order succeeds without mutating anything.
func (s *PaymentService) ConfirmPayment(ctx context.Context, req *ConfirmPaymentRequest) (*ConfirmPaymentResponse, *ServiceError) {
	if !s.gateway.VerifySignature(req.GatewayOrderID, req.GatewayPaymentID, req.Signature) {
		s.logger.Warn("Payment callback signature verification failed",
			zap.String("gateway_order_id", req.GatewayOrderID),
			zap.String("order_id", req.OrderID.String()))
		return nil, &ServiceError{
			StatusCode: 400,
			Kind:       KindInvalidSignature,
			Message:    "Invalid payment signature",
		}
	}

	order, err := s.orders.FindByID(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ServiceError{StatusCode: 404, Kind: KindOrderNotFound, Message: "Order not found"}
		}
		s.logger.Error("Failed to fetch order for payment confirmation", zap.Error(err))
		return nil, internalError("Failed to confirm payment")
	}

	// The signature binds the callback to one gateway order. A valid triple
	// replayed against a different order's id must not confirm that order.
	if order.GatewayOrderID != req.GatewayOrderID {
		s.logger.Warn("Payment callback gateway order mismatch",
			zap.String("order_id", req.OrderID.String()),
			zap.String("gateway_order_id", req.GatewayOrderID))
		return nil, &ServiceError{
			StatusCode: 400,
			Kind:       KindInvalidSignature,
			Message:    "Invalid payment signature",
		}
	}

	if order.PaymentStatus == models.PaymentStatusPaid {
		return &ConfirmPaymentResponse{
			OrderID:          order.ID,
			OrderNumber:      order.OrderNumber,
			Status:           order.Status,
			PaymentStatus:    order.PaymentStatus,
			AlreadyConfirmed: true,
		}, nil
	}

	affected, err := s.orders.MarkPaid(ctx, req.OrderID, req.GatewayPaymentID)
	if err != nil {
		s.logger.Error("Failed to mark order paid", zap.String("order_id", req.OrderID.String()), zap.Error(err))
		return nil, internalError("Failed to confirm payment")
	}

	if affected == 0 {
		// Either a concurrent callback won the transition, or the order
		// vanished between the read and the update.
		current, refetchErr := s.orders.FindByID(ctx, req.OrderID)
		if refetchErr == nil && current.PaymentStatus == models.PaymentStatusPaid {
			return &ConfirmPaymentResponse{
				OrderID:          current.ID,
				OrderNumber:      current.OrderNumber,
				Status:           current.Status,
				PaymentStatus:    current.PaymentStatus,
				AlreadyConfirmed: true,
			}, nil
		}
		return nil, &ServiceError{StatusCode: 404, Kind: KindOrderNotFound, Message: "Order not found"}
	}

	s.logger.Info("Payment confirmed",
		zap.String("order_number", order.OrderNumber),
		zap.Float64("amount", order.TotalAmount))

	s.publishPaymentConfirmed(ctx, order)

	return &ConfirmPaymentResponse{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Status:        models.OrderStatusConfirmed,
		PaymentStatus: models.PaymentStatusPaid,
	}, nil
}

func (s *PaymentService) publishPaymentConfirmed(ctx context.Context, order *models.Order) {
	if s.producer == nil {
		return
	}
	event := models.PaymentConfirmedEvent{
		EventType:   "payment.confirmed",
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Amount:      order.TotalAmount,
		Timestamp:   time.Now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := s.producer.Publish(ctx, []byte(order.OrderNumber), data); err != nil {
		s.logger.Warn("Failed to publish payment.confirmed event", zap.Error(err))
	}
}
