package repository

import (
	"context"
	"errors"

	"storefront/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrInsufficientStock is returned when a conditional stock decrement affects
// zero rows because the variant's remaining stock is below the requested
// quantity.
var ErrInsufficientStock = errors.New("insufficient stock")

// VariantRepository defines the interface for variant and stock data access.
type VariantRepository interface {
	FindByID(ctx context.Context, variantID uuid.UUID) (*models.Variant, error)
	GetStock(ctx context.Context, variantID uuid.UUID) (int, error)
	Reserve(ctx context.Context, variantID uuid.UUID, quantity int) error
	Release(ctx context.Context, variantID uuid.UUID, quantity int) error
}

// GormVariantRepository implements VariantRepository using GORM.
type GormVariantRepository struct {
	db *gorm.DB
}

// NewGormVariantRepository creates a new GormVariantRepository.
func NewGormVariantRepository(db *gorm.DB) VariantRepository {
	return &GormVariantRepository{db: db}
}

// FindByID retrieves a variant by id.
func (r *GormVariantRepository) FindByID(ctx context.Context, variantID uuid.UUID) (*models.Variant, error) {
	var variant models.Variant
	if err := r.db.WithContext(ctx).First(&variant, "id = ?", variantID).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

// GetStock is a point read of the latest committed stock counter.
func (r *GormVariantRepository) GetStock(ctx context.Context, variantID uuid.UUID) (int, error) {
	var variant models.Variant
	if err := r.db.WithContext(ctx).Select("stock_quantity").First(&variant, "id = ?", variantID).Error; err != nil {
		return 0, err
	}
	return variant.StockQuantity, nil
}

// Reserve claims stock for an order with a single conditional decrement. Two
// concurrent reservations of the last unit cannot both succeed: the guard
// `stock_quantity >= quantity` rejects the loser with zero affected rows.
func (r *GormVariantRepository) Reserve(ctx context.Context, variantID uuid.UUID, quantity int) error {
	result := r.db.WithContext(ctx).
		Model(&models.Variant{}).
		Where("id = ? AND stock_quantity >= ?", variantID, quantity).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// Release returns previously reserved stock. Only compensation paths call
// this; the storefront never restocks otherwise.
func (r *GormVariantRepository) Release(ctx context.Context, variantID uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.Variant{}).
		Where("id = ?", variantID).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", quantity)).
		Error
}
