package controllers

import (
	"net/http"

	"storefront/middleware"
	"storefront/models"
	"storefront/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CartController handles HTTP requests for cart operations. Guest requests
// carry their cart in the body and receive the mutated cart back; signed-in
// requests operate on the persisted cart.
type CartController struct {
	cartService *services.CartService
}

func NewCartController(cartService *services.CartService) *CartController {
	return &CartController{cartService: cartService}
}

type cartMutationRequest struct {
	ProductID uuid.UUID         `json:"product_id"`
	VariantID uuid.UUID         `json:"variant_id" binding:"required"`
	Quantity  int               `json:"quantity"`
	Items     []models.CartItem `json:"items"` // guest cart state, ignored for signed-in users
}

type cartViewRequest struct {
	Items []models.CartItem `json:"items"`
}

type mergeCartRequest struct {
	Items []models.CartItem `json:"items" binding:"required"`
}

// GetCart handles GET /cart for signed-in users.
func (cc *CartController) GetCart(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	store := cc.cartService.StoreFor(userID, nil)
	view, svcErr := cc.cartService.View(ctx.Request.Context(), store)
	if svcErr != nil {
		renderError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, view)
}

// PriceCart handles POST /cart/view: prices a guest cart sent in the body.
func (cc *CartController) PriceCart(ctx *gin.Context) {
	var req cartViewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	store := cc.cartService.StoreFor(middleware.CallerID(ctx), req.Items)
	view, svcErr := cc.cartService.View(ctx.Request.Context(), store)
	if svcErr != nil {
		renderError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, view)
}

// AddItem handles POST /cart/items.
func (cc *CartController) AddItem(ctx *gin.Context) {
	var req cartMutationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	store := cc.cartService.StoreFor(middleware.CallerID(ctx), req.Items)
	cart, svcErr := cc.cartService.AddItem(ctx.Request.Context(), store, models.CartItem{
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
	})
	if svcErr != nil {
		renderError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, cart)
}

// UpdateItem handles PUT /cart/items/:variant_id.
func (cc *CartController) UpdateItem(ctx *gin.Context) {
	variantID, err := uuid.Parse(ctx.Param("variant_id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid variant ID"})
		return
	}

	var req cartMutationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	store := cc.cartService.StoreFor(middleware.CallerID(ctx), req.Items)
	cart, svcErr := cc.cartService.SetQuantity(ctx.Request.Context(), store, variantID, req.Quantity)
	if svcErr != nil {
		renderError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, cart)
}

// RemoveItem handles DELETE /cart/items/:variant_id for signed-in users.
func (cc *CartController) RemoveItem(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	variantID, parseErr := uuid.Parse(ctx.Param("variant_id"))
	if parseErr != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid variant ID"})
		return
	}

	store := cc.cartService.StoreFor(userID, nil)
	cart, svcErr := cc.cartService.RemoveItem(ctx.Request.Context(), store, variantID)
	if svcErr != nil {
		renderError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, cart)
}

// ClearCart handles DELETE /cart for signed-in users.
func (cc *CartController) ClearCart(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	store := cc.cartService.StoreFor(userID, nil)
	if svcErr := cc.cartService.Clear(ctx.Request.Context(), store); svcErr != nil {
		renderError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "cart cleared"})
}

// MergeCart handles POST /cart/merge, triggered once when a guest signs in.
func (cc *CartController) MergeCart(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req mergeCartRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	cart, svcErr := cc.cartService.MergeGuestCart(ctx.Request.Context(), userID, req.Items)
	if svcErr != nil {
		renderError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, cart)
}
