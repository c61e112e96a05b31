package controllers

import (
	"net/http"

	"storefront/services"

	"github.com/gin-gonic/gin"
)

type PaymentController struct {
	paymentService *services.PaymentService
}

func NewPaymentController(paymentService *services.PaymentService) *PaymentController {
	return &PaymentController{paymentService: paymentService}
}

// VerifyPayment handles POST /payment/verify, the gateway's signed callback.
// The gateway delivers it at least once; retries are answered idempotently.
func (pc *PaymentController) VerifyPayment(ctx *gin.Context) {
	var req services.ConfirmPaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	resp, svcErr := pc.paymentService.ConfirmPayment(ctx.Request.Context(), &req)
	if svcErr != nil {
		renderError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
