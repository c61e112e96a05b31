package controllers

import (
	"github.com/gin-gonic/gin"

	"storefront/services"
)

// renderError maps a service error onto the response, carrying the stable
// machine-readable kind alongside the message.
func renderError(ctx *gin.Context, svcErr *services.ServiceError) {
	body := gin.H{"error": svcErr.Message, "kind": svcErr.Kind}
	if len(svcErr.Details) > 0 {
		body["details"] = svcErr.Details
	}
	ctx.JSON(svcErr.StatusCode, body)
}
