package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/models"
	"storefront/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CouponService defines the interface for coupon business logic. Validate and
// RecordUsage are consumed by order placement; the remaining operations back
// the admin coupon screens.
type CouponService interface {
	Validate(ctx context.Context, code string, orderAmount float64) (float64, *ServiceError)
	RecordUsage(ctx context.Context, code string) *ServiceError
	CreateCoupon(ctx context.Context, req *models.CreateCouponRequest) (*models.Coupon, *ServiceError)
	DeactivateCoupon(ctx context.Context, code string) *ServiceError
	ListCoupons(ctx context.Context, page, limit int) ([]models.Coupon, int64, *ServiceError)
}

type couponServiceImpl struct {
	repo   repository.CouponRepository
	logger *zap.Logger
}

// NewCouponService creates a new CouponService.
func NewCouponService(repo repository.CouponRepository, logger *zap.Logger) CouponService {
	return &couponServiceImpl{
		repo:   repo,
		logger: logger,
	}
}

// Validate checks a coupon against an order amount and returns the discount
// it would grant. It performs no mutation; the usage counter moves only when
// RecordUsage is called after a successful order.
func (s *couponServiceImpl) Validate(ctx context.Context, code string, orderAmount float64) (float64, *ServiceError) {
	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return 0, couponError(CouponReasonExpiredOrInactive, "Coupon not found or inactive")
	}

	if coupon.ExpiresAt != nil && time.Now().After(*coupon.ExpiresAt) {
		return 0, couponError(CouponReasonExpiredOrInactive, "Coupon has expired")
	}

	if coupon.UsageLimit > 0 && coupon.UsedCount >= coupon.UsageLimit {
		return 0, couponError(CouponReasonUsageLimitReached, "Coupon usage limit reached")
	}

	if orderAmount < coupon.MinOrderAmount {
		return 0, couponError(CouponReasonBelowMinimum,
			fmt.Sprintf("Minimum order amount of %.2f required", coupon.MinOrderAmount))
	}

	var discount float64
	switch coupon.Type {
	case models.CouponTypePercentage:
		discount = orderAmount * (coupon.Value / 100)
		if coupon.MaxDiscountAmount != nil && discount > *coupon.MaxDiscountAmount {
			discount = *coupon.MaxDiscountAmount
		}
	case models.CouponTypeFixed:
		discount = coupon.Value
		if discount > orderAmount {
			discount = orderAmount
		}
	default:
		return 0, internalError("Unknown coupon type")
	}

	return discount, nil
}

// RecordUsage increments the coupon's used count. The repository guard keeps
// the counter at or below the usage limit even when two redemptions of the
// same code validate concurrently.
func (s *couponServiceImpl) RecordUsage(ctx context.Context, code string) *ServiceError {
	if err := s.repo.TryIncrementUsedCount(ctx, code); err != nil {
		if errors.Is(err, repository.ErrUsageLimitReached) {
			return couponError(CouponReasonUsageLimitReached, "Coupon usage limit reached")
		}
		s.logger.Error("Failed to record coupon usage", zap.String("code", code), zap.Error(err))
		return internalError("Failed to apply coupon")
	}
	return nil
}

// CreateCoupon creates a new coupon.
func (s *couponServiceImpl) CreateCoupon(ctx context.Context, req *models.CreateCouponRequest) (*models.Coupon, *ServiceError) {
	if req.ExpiresAt != nil && req.ExpiresAt.Before(time.Now()) {
		return nil, validationError("Expiry date must be in the future")
	}

	if req.Type == models.CouponTypePercentage && req.Value > 100 {
		return nil, validationError("Percentage discount cannot exceed 100")
	}

	coupon := &models.Coupon{
		Code:              strings.ToUpper(req.Code),
		Type:              req.Type,
		Value:             req.Value,
		MinOrderAmount:    req.MinOrderAmount,
		MaxDiscountAmount: req.MaxDiscountAmount,
		UsageLimit:        req.UsageLimit,
		ExpiresAt:         req.ExpiresAt,
		Active:            true,
	}

	if err := s.repo.Create(ctx, coupon); err != nil {
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "unique") {
			return nil, &ServiceError{StatusCode: 409, Kind: KindValidation, Message: "Coupon code already exists"}
		}
		s.logger.Error("Failed to create coupon", zap.Error(err))
		return nil, internalError("Failed to create coupon")
	}

	s.logger.Info("Coupon created", zap.String("code", coupon.Code), zap.String("type", string(coupon.Type)))
	return coupon, nil
}

// DeactivateCoupon deactivates a coupon by code.
func (s *couponServiceImpl) DeactivateCoupon(ctx context.Context, code string) *ServiceError {
	if err := s.repo.Deactivate(ctx, code); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ServiceError{StatusCode: 404, Kind: KindValidation, Message: "Coupon not found"}
		}
		s.logger.Error("Failed to deactivate coupon", zap.String("code", code), zap.Error(err))
		return internalError("Failed to deactivate coupon")
	}

	s.logger.Info("Coupon deactivated", zap.String("code", code))
	return nil
}

// ListCoupons returns paginated coupons.
func (s *couponServiceImpl) ListCoupons(ctx context.Context, page, limit int) ([]models.Coupon, int64, *ServiceError) {
	coupons, total, err := s.repo.FindAll(ctx, page, limit)
	if err != nil {
		s.logger.Error("Failed to list coupons", zap.Error(err))
		return nil, 0, internalError("Failed to list coupons")
	}
	return coupons, total, nil
}
