package services

import "net/http"

// Stable machine-readable error kinds surfaced to clients alongside the
// human-readable message.
const (
	KindValidation       = "validation_error"
	KindStock            = "stock_error"
	KindCoupon           = "coupon_error"
	KindInvalidSignature = "invalid_signature"
	KindAccessDenied     = "access_denied"
	KindOrderNotFound    = "order_not_found"
	KindOrderCreation    = "order_creation_error"
	KindInternal         = "internal_error"
)

// Coupon rejection reasons carried in ServiceError.Details["reason"].
const (
	CouponReasonExpiredOrInactive = "expired_or_inactive"
	CouponReasonBelowMinimum      = "below_minimum"
	CouponReasonUsageLimitReached = "usage_limit_reached"
)

// ServiceError represents a typed error with an HTTP status code and a stable
// machine-readable kind.
type ServiceError struct {
	StatusCode int
	Kind       string
	Message    string
	Details    map[string]interface{}
}

func (e *ServiceError) Error() string {
	return e.Message
}

func validationError(message string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusBadRequest, Kind: KindValidation, Message: message}
}

// stockError carries the available/requested counts so the client can adjust
// quantities instead of guessing.
func stockError(productName string, available, requested int) *ServiceError {
	return &ServiceError{
		StatusCode: http.StatusBadRequest,
		Kind:       KindStock,
		Message:    "Insufficient stock for " + productName,
		Details: map[string]interface{}{
			"product_name": productName,
			"available":    available,
			"requested":    requested,
		},
	}
}

func couponError(reason, message string) *ServiceError {
	return &ServiceError{
		StatusCode: http.StatusBadRequest,
		Kind:       KindCoupon,
		Message:    message,
		Details:    map[string]interface{}{"reason": reason},
	}
}

func internalError(message string) *ServiceError {
	return &ServiceError{StatusCode: http.StatusInternalServerError, Kind: KindInternal, Message: message}
}
