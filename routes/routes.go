package routes

import (
	"storefront/controllers"
	"storefront/middleware"

	"github.com/gin-gonic/gin"
)

func Register(
	r *gin.Engine,
	cart *controllers.CartController,
	order *controllers.OrderController,
	payment *controllers.PaymentController,
	coupon *controllers.CouponController,
) {
	r.Use(middleware.Identity())

	cartRoutes := r.Group("/cart")
	cartRoutes.GET("/", cart.GetCart)
	cartRoutes.POST("/view", cart.PriceCart)
	cartRoutes.POST("/items", cart.AddItem)
	cartRoutes.PUT("/items/:variant_id", cart.UpdateItem)
	cartRoutes.DELETE("/items/:variant_id", cart.RemoveItem)
	cartRoutes.DELETE("/", cart.ClearCart)
	cartRoutes.POST("/merge", middleware.RequireAuth(), cart.MergeCart)

	orderRoutes := r.Group("/orders")
	orderRoutes.POST("/", order.PlaceOrder)
	orderRoutes.GET("/", middleware.RequireAuth(), order.GetOrders)
	orderRoutes.GET("/:id", order.GetOrderByID)
	orderRoutes.POST("/lookup", order.LookupOrder)

	r.POST("/payment/verify", payment.VerifyPayment)

	r.POST("/coupons/validate", coupon.ValidateCoupon)

	adminRoutes := r.Group("/admin", middleware.RequireAuth(), middleware.RequireAdmin())
	adminRoutes.POST("/coupons", coupon.CreateCoupon)
	adminRoutes.DELETE("/coupons/:code", coupon.DeactivateCoupon)
	adminRoutes.GET("/coupons", coupon.ListCoupons)
}
