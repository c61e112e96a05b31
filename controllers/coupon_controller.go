package controllers

import (
	"net/http"

	"storefront/models"
	"storefront/services"

	"github.com/gin-gonic/gin"
)

// CouponController handles HTTP requests for coupon operations.
type CouponController struct {
	couponService services.CouponService
}

func NewCouponController(couponService services.CouponService) *CouponController {
	return &CouponController{couponService: couponService}
}

// ValidateCoupon handles POST /coupons/validate, called by the checkout page
// to preview a discount. It never mutates the usage counter.
func (cc *CouponController) ValidateCoupon(ctx *gin.Context) {
	var req models.ValidateCouponRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	discount, svcErr := cc.couponService.Validate(ctx.Request.Context(), req.Code, req.OrderAmount)
	if svcErr != nil {
		if svcErr.Kind == services.KindCoupon {
			ctx.JSON(http.StatusOK, models.ValidateCouponResponse{
				Valid:   false,
				Code:    req.Code,
				Message: svcErr.Message,
			})
			return
		}
		renderError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, models.ValidateCouponResponse{
		Valid:          true,
		Code:           req.Code,
		DiscountAmount: discount,
		Message:        "Coupon applied successfully",
	})
}

// CreateCoupon handles POST /admin/coupons (admin only).
func (cc *CouponController) CreateCoupon(ctx *gin.Context) {
	var req models.CreateCouponRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	coupon, svcErr := cc.couponService.CreateCoupon(ctx.Request.Context(), &req)
	if svcErr != nil {
		renderError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"coupon": coupon})
}

// DeactivateCoupon handles DELETE /admin/coupons/:code (admin only).
func (cc *CouponController) DeactivateCoupon(ctx *gin.Context) {
	code := ctx.Param("code")
	if code == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Coupon code is required"})
		return
	}

	if svcErr := cc.couponService.DeactivateCoupon(ctx.Request.Context(), code); svcErr != nil {
		renderError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Coupon deactivated"})
}

// ListCoupons handles GET /admin/coupons (admin only).
func (cc *CouponController) ListCoupons(ctx *gin.Context) {
	page, limit := parsePaginationParams(ctx)

	coupons, total, svcErr := cc.couponService.ListCoupons(ctx.Request.Context(), page, limit)
	if svcErr != nil {
		renderError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"coupons": coupons, "total": total})
}
