package services_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"storefront/models"
	"storefront/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- Mock Variant Repository ---

// mockVariantRepo mirrors the conditional-decrement semantics of the real
// repository so concurrency tests exercise the same guarantees.
type mockVariantRepo struct {
	mu       sync.Mutex
	variants map[uuid.UUID]*models.Variant
}

func newMockVariantRepo() *mockVariantRepo {
	return &mockVariantRepo{variants: make(map[uuid.UUID]*models.Variant)}
}

func (m *mockVariantRepo) add(v *models.Variant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	m.variants[v.ID] = v
}

func (m *mockVariantRepo) FindByID(_ context.Context, variantID uuid.UUID) (*models.Variant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.variants[variantID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *v
	return &copied, nil
}

func (m *mockVariantRepo) GetStock(_ context.Context, variantID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.variants[variantID]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	return v.StockQuantity, nil
}

func (m *mockVariantRepo) Reserve(_ context.Context, variantID uuid.UUID, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.variants[variantID]
	if !ok || v.StockQuantity < quantity {
		return repository.ErrInsufficientStock
	}
	v.StockQuantity -= quantity
	return nil
}

func (m *mockVariantRepo) Release(_ context.Context, variantID uuid.UUID, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.variants[variantID]; ok {
		v.StockQuantity += quantity
	}
	return nil
}

func (m *mockVariantRepo) stock(variantID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.variants[variantID].StockQuantity
}

// --- Mock Order Repository ---

type mockOrderRepo struct {
	mu             sync.Mutex
	orders         map[uuid.UUID]*models.Order
	items          map[uuid.UUID][]models.OrderItem
	createItemsErr error
	paidCount      int
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{
		orders: make(map[uuid.UUID]*models.Order),
		items:  make(map[uuid.UUID][]models.OrderItem),
	}
}

func (m *mockOrderRepo) Create(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	copied := *order
	m.orders[order.ID] = &copied
	return nil
}

func (m *mockOrderRepo) CreateItems(_ context.Context, items []models.OrderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createItemsErr != nil {
		return m.createItemsErr
	}
	for _, item := range items {
		m.items[item.OrderID] = append(m.items[item.OrderID], item)
	}
	return nil
}

func (m *mockOrderRepo) Delete(_ context.Context, orderID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.orders, orderID)
	delete(m.items, orderID)
	return nil
}

func (m *mockOrderRepo) FindByID(_ context.Context, orderID uuid.UUID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	copied.OrderItems = append([]models.OrderItem(nil), m.items[orderID]...)
	return &copied, nil
}

func (m *mockOrderRepo) FindByNumberAndContact(_ context.Context, orderNumber, email, phone string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, order := range m.orders {
		if order.OrderNumber != orderNumber {
			continue
		}
		if (email != "" && order.CustomerEmail == email) || (phone != "" && order.CustomerPhone == phone) {
			copied := *order
			copied.OrderItems = append([]models.OrderItem(nil), m.items[id]...)
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockOrderRepo) FindByUserID(_ context.Context, userID uuid.UUID, _, _ int) ([]models.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, order := range m.orders {
		if order.UserID != nil && *order.UserID == userID {
			out = append(out, *order)
		}
	}
	return out, int64(len(out)), nil
}

func (m *mockOrderRepo) MarkPaid(_ context.Context, orderID uuid.UUID, gatewayPaymentID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[orderID]
	if !ok || order.PaymentStatus != models.PaymentStatusPending {
		return 0, nil
	}
	order.PaymentStatus = models.PaymentStatusPaid
	order.Status = models.OrderStatusConfirmed
	order.GatewayPaymentID = gatewayPaymentID
	m.paidCount++
	return 1, nil
}

func (m *mockOrderRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

// --- Mock Coupon Repository ---

type mockCouponRepo struct {
	mu      sync.Mutex
	coupons map[string]*models.Coupon
}

func newMockCouponRepo() *mockCouponRepo {
	return &mockCouponRepo{coupons: make(map[string]*models.Coupon)}
}

func (m *mockCouponRepo) Create(_ context.Context, coupon *models.Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if coupon.ID == uuid.Nil {
		coupon.ID = uuid.New()
	}
	m.coupons[strings.ToUpper(coupon.Code)] = coupon
	return nil
}

func (m *mockCouponRepo) FindByCode(_ context.Context, code string) (*models.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.coupons[strings.ToUpper(code)]
	if !ok || !c.Active {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *c
	return &copied, nil
}

func (m *mockCouponRepo) TryIncrementUsedCount(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.coupons[strings.ToUpper(code)]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return repository.ErrUsageLimitReached
	}
	c.UsedCount++
	return nil
}

func (m *mockCouponRepo) Deactivate(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.coupons[strings.ToUpper(code)]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.Active = false
	return nil
}

func (m *mockCouponRepo) FindAll(_ context.Context, _, _ int) ([]models.Coupon, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.Coupon
	for _, c := range m.coupons {
		result = append(result, *c)
	}
	return result, int64(len(result)), nil
}

func (m *mockCouponRepo) usedCount(code string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.coupons[strings.ToUpper(code)].UsedCount
}

// --- Mock Cart Storage ---

type mockCartStorage struct {
	mu           sync.Mutex
	carts        map[string]*models.Cart
	fences       map[string]bool
	saveFailures int
}

func newMockCartStorage() *mockCartStorage {
	return &mockCartStorage{
		carts:  make(map[string]*models.Cart),
		fences: make(map[string]bool),
	}
}

func (m *mockCartStorage) GetCart(_ context.Context, userID string) (*models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[userID]
	if !ok {
		return nil, nil
	}
	copied := *cart
	copied.Items = append([]models.CartItem(nil), cart.Items...)
	return &copied, nil
}

func (m *mockCartStorage) SaveCart(_ context.Context, cart *models.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveFailures > 0 {
		m.saveFailures--
		return errors.New("save failed")
	}
	copied := *cart
	copied.Items = append([]models.CartItem(nil), cart.Items...)
	m.carts[cart.Owner] = &copied
	return nil
}

func (m *mockCartStorage) DeleteCart(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, userID)
	return nil
}

func (m *mockCartStorage) TryAcquireMergeFence(_ context.Context, userID string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fences[userID] {
		return false, nil
	}
	m.fences[userID] = true
	return true, nil
}

func (m *mockCartStorage) ReleaseMergeFence(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.fences, userID)
	return nil
}

// --- Mock Payment Gateway ---

type mockGateway struct {
	mu        sync.Mutex
	orderID   string
	createErr error
	validSig  bool
	created   int
}

func (m *mockGateway) CreateOrder(_ context.Context, _ int64, _, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return "", m.createErr
	}
	m.created++
	if m.orderID != "" {
		return m.orderID, nil
	}
	return "gw_order_" + uuid.NewString()[:8], nil
}

func (m *mockGateway) VerifySignature(_, _, _ string) bool {
	return m.validSig
}

// --- Mock Producer ---

type mockProducer struct {
	mu        sync.Mutex
	published [][]byte
}

func (m *mockProducer) Publish(_ context.Context, _, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, value)
	return nil
}
