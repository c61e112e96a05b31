package services_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"testing"
	"time"

	"storefront/gateway"
	"storefront/models"
	"storefront/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const testGatewaySecret = "test_secret"

func signCallback(gatewayOrderID, gatewayPaymentID string) string {
	mac := hmac.New(sha256.New, []byte(testGatewaySecret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func newPaymentFixture() (*services.PaymentService, *mockOrderRepo, *mockProducer) {
	orders := newMockOrderRepo()
	producer := &mockProducer{}
	gw := gateway.NewClient("http://localhost:0", "key_id", testGatewaySecret, time.Second)
	svc := services.NewPaymentService(orders, gw, producer, zap.NewNop())
	return svc, orders, producer
}

func pendingOnlineOrder(gatewayOrderID string) *models.Order {
	return &models.Order{
		ID:             uuid.New(),
		OrderNumber:    "ORD-20260831-FFFF6666",
		Status:         models.OrderStatusPending,
		PaymentMethod:  models.PaymentMethodOnline,
		PaymentStatus:  models.PaymentStatusPending,
		TotalAmount:    550,
		GatewayOrderID: gatewayOrderID,
	}
}

func TestPaymentService_ConfirmPayment_Success(t *testing.T) {
	svc, orders, producer := newPaymentFixture()
	order := pendingOnlineOrder("gw_order_1")
	_ = orders.Create(context.Background(), order)

	resp, svcErr := svc.ConfirmPayment(context.Background(), &services.ConfirmPaymentRequest{
		GatewayOrderID:   "gw_order_1",
		GatewayPaymentID: "gw_pay_1",
		Signature:        signCallback("gw_order_1", "gw_pay_1"),
		OrderID:          order.ID,
	})

	assert.Nil(t, svcErr)
	assert.False(t, resp.AlreadyConfirmed)
	assert.Equal(t, models.OrderStatusConfirmed, resp.Status)
	assert.Equal(t, models.PaymentStatusPaid, resp.PaymentStatus)
	assert.Len(t, producer.published, 1)

	updated, err := orders.FindByID(context.Background(), order.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, updated.PaymentStatus)
	assert.Equal(t, "gw_pay_1", updated.GatewayPaymentID)
}

func TestPaymentService_ConfirmPayment_InvalidSignature(t *testing.T) {
	svc, orders, producer := newPaymentFixture()
	order := pendingOnlineOrder("gw_order_2")
	_ = orders.Create(context.Background(), order)

	_, svcErr := svc.ConfirmPayment(context.Background(), &services.ConfirmPaymentRequest{
		GatewayOrderID:   "gw_order_2",
		GatewayPaymentID: "gw_pay_2",
		Signature:        "deadbeef",
		OrderID:          order.ID,
	})

	assert.NotNil(t, svcErr)
	assert.Equal(t, 400, svcErr.StatusCode)
	assert.Equal(t, services.KindInvalidSignature, svcErr.Kind)
	assert.Empty(t, producer.published)

	unchanged, err := orders.FindByID(context.Background(), order.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, unchanged.PaymentStatus)
}

func TestPaymentService_ConfirmPayment_TamperedPaymentID(t *testing.T) {
	svc, orders, _ := newPaymentFixture()
	order := pendingOnlineOrder("gw_order_3")
	_ = orders.Create(context.Background(), order)

	// Signature is valid for a different payment id.
	_, svcErr := svc.ConfirmPayment(context.Background(), &services.ConfirmPaymentRequest{
		GatewayOrderID:   "gw_order_3",
		GatewayPaymentID: "gw_pay_tampered",
		Signature:        signCallback("gw_order_3", "gw_pay_original"),
		OrderID:          order.ID,
	})

	assert.NotNil(t, svcErr)
	assert.Equal(t, services.KindInvalidSignature, svcErr.Kind)
}

func TestPaymentService_ConfirmPayment_SignatureForDifferentOrderRejected(t *testing.T) {
	svc, orders, producer := newPaymentFixture()
	order := pendingOnlineOrder("gw_order_expensive")
	_ = orders.Create(context.Background(), order)

	// A signature captured from another, legitimate payment must not confirm
	// this order.
	_, svcErr := svc.ConfirmPayment(context.Background(), &services.ConfirmPaymentRequest{
		GatewayOrderID:   "gw_order_cheap",
		GatewayPaymentID: "gw_pay_cheap",
		Signature:        signCallback("gw_order_cheap", "gw_pay_cheap"),
		OrderID:          order.ID,
	})

	assert.NotNil(t, svcErr)
	assert.Equal(t, 400, svcErr.StatusCode)
	assert.Equal(t, services.KindInvalidSignature, svcErr.Kind)
	assert.Equal(t, 0, orders.paidCount)
	assert.Empty(t, producer.published)

	unchanged, err := orders.FindByID(context.Background(), order.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, unchanged.PaymentStatus)
}

func TestPaymentService_ConfirmPayment_OrderNotFound(t *testing.T) {
	svc, _, _ := newPaymentFixture()

	_, svcErr := svc.ConfirmPayment(context.Background(), &services.ConfirmPaymentRequest{
		GatewayOrderID:   "gw_order_4",
		GatewayPaymentID: "gw_pay_4",
		Signature:        signCallback("gw_order_4", "gw_pay_4"),
		OrderID:          uuid.New(),
	})

	assert.NotNil(t, svcErr)
	assert.Equal(t, 404, svcErr.StatusCode)
	assert.Equal(t, services.KindOrderNotFound, svcErr.Kind)
}

func TestPaymentService_ConfirmPayment_RetriedCallbackIsIdempotent(t *testing.T) {
	svc, orders, producer := newPaymentFixture()
	order := pendingOnlineOrder("gw_order_5")
	_ = orders.Create(context.Background(), order)

	req := &services.ConfirmPaymentRequest{
		GatewayOrderID:   "gw_order_5",
		GatewayPaymentID: "gw_pay_5",
		Signature:        signCallback("gw_order_5", "gw_pay_5"),
		OrderID:          order.ID,
	}

	first, svcErr := svc.ConfirmPayment(context.Background(), req)
	assert.Nil(t, svcErr)
	assert.False(t, first.AlreadyConfirmed)

	second, svcErr := svc.ConfirmPayment(context.Background(), req)
	assert.Nil(t, svcErr)
	assert.True(t, second.AlreadyConfirmed)
	assert.Equal(t, models.PaymentStatusPaid, second.PaymentStatus)

	// The pending->paid transition ran exactly once.
	assert.Equal(t, 1, orders.paidCount)
	assert.Len(t, producer.published, 1)
}

func TestPaymentService_ConfirmPayment_ConcurrentCallbacks(t *testing.T) {
	svc, orders, _ := newPaymentFixture()
	order := pendingOnlineOrder("gw_order_6")
	_ = orders.Create(context.Background(), order)

	req := &services.ConfirmPaymentRequest{
		GatewayOrderID:   "gw_order_6",
		GatewayPaymentID: "gw_pay_6",
		Signature:        signCallback("gw_order_6", "gw_pay_6"),
		OrderID:          order.ID,
	}

	var wg sync.WaitGroup
	errs := make([]*services.ServiceError, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.ConfirmPayment(context.Background(), req)
		}(i)
	}
	wg.Wait()

	for _, svcErr := range errs {
		assert.Nil(t, svcErr)
	}
	assert.Equal(t, 1, orders.paidCount)
}
