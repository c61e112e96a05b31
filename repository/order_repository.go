package repository

import (
	"context"

	"storefront/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	CreateItems(ctx context.Context, items []models.OrderItem) error
	Delete(ctx context.Context, orderID uuid.UUID) error
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindByNumberAndContact(ctx context.Context, orderNumber, email, phone string) (*models.Order, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Order, int64, error)
	MarkPaid(ctx context.Context, orderID uuid.UUID, gatewayPaymentID string) (int64, error)
}

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new instance of GormOrderRepository.
func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

// Create inserts the order row alone; items follow in CreateItems so the
// caller can compensate if the batch fails.
func (r *GormOrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("OrderItems").Create(order).Error
}

// CreateItems inserts the order's line items in one batch.
func (r *GormOrderRepository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

// Delete removes an order and its items. Used only as the compensating action
// when a multi-step placement fails partway.
func (r *GormOrderRepository) Delete(ctx context.Context, orderID uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Unscoped().
		Where("id = ?", orderID).
		Delete(&models.Order{}).Error
}

// FindByID retrieves an order with its items.
func (r *GormOrderRepository) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("OrderItems").
		First(&order, "id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByNumberAndContact retrieves an order by its human-facing number plus a
// matching contact email or phone.
func (r *GormOrderRepository) FindByNumberAndContact(ctx context.Context, orderNumber, email, phone string) (*models.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("OrderItems").
		Where("order_number = ?", orderNumber)

	switch {
	case email != "" && phone != "":
		query = query.Where("customer_email = ? OR customer_phone = ?", email, phone)
	case email != "":
		query = query.Where("customer_email = ?", email)
	default:
		query = query.Where("customer_phone = ?", phone)
	}

	var order models.Order
	if err := query.First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByUserID retrieves orders for a specific user with pagination.
func (r *GormOrderRepository) FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Preload("OrderItems").
		Offset(offset).
		Limit(limit).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// MarkPaid transitions payment_status from pending to paid. The guard on the
// current status makes retried gateway callbacks a no-op: the affected-row
// count tells the caller whether this call performed the transition.
func (r *GormOrderRepository) MarkPaid(ctx context.Context, orderID uuid.UUID, gatewayPaymentID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", orderID, models.PaymentStatusPending).
		Updates(map[string]interface{}{
			"payment_status":     models.PaymentStatusPaid,
			"status":             models.OrderStatusConfirmed,
			"gateway_payment_id": gatewayPaymentID,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
