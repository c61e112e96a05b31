package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"storefront/controllers"
	"storefront/database"
	"storefront/gateway"
	"storefront/kafka"
	"storefront/repository"
	"storefront/routes"
	"storefront/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	cfg, err := LoadConfig()
	if err != nil {
		logger.Fatal("Config load failed", zap.Error(err))
	}

	// --- Database ---
	if err := database.Connect(logger); err != nil {
		logger.Fatal("DB connection failed", zap.Error(err))
	}

	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		logger.Fatal("Redis connection failed", zap.Error(err))
	}

	// --- Event producer (optional) ---
	var producer kafka.ProducerAPI
	var kafkaProducer *kafka.Producer
	if cfg.KafkaBrokers != "" {
		kafkaProducer = kafka.NewProducer(strings.Split(cfg.KafkaBrokers, ","), cfg.KafkaTopic)
		producer = kafkaProducer
		defer kafkaProducer.Close()
	} else {
		logger.Warn("KAFKA_BROKERS not set, order events disabled")
	}

	gatewayClient := gateway.NewClient(cfg.GatewayBaseURL, cfg.GatewayKeyID, cfg.GatewayKeySecret, cfg.GatewayTimeout)

	// --- HTTP router ---
	r := gin.New()
	r.Use(gin.Recovery())

	// Structured HTTP request logging
	r.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}
		switch {
		case status >= 500:
			logger.Error("http_request", fields...)
		case status >= 400:
			logger.Warn("http_request", fields...)
		default:
			logger.Info("http_request", fields...)
		}
	})

	// Request timeout middleware
	r.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	// --- Dependency injection ---
	variantRepo := repository.NewGormVariantRepository(database.DB)
	couponRepo := repository.NewGormCouponRepository(database.DB)
	orderRepo := repository.NewGormOrderRepository(database.DB)
	cartRepo := repository.NewCartRepository(redisClient, cfg.CartTTL)

	couponService := services.NewCouponService(couponRepo, logger)
	cartService := services.NewCartService(cartRepo, variantRepo, cfg.MergeFenceTTL, logger)
	orderService := services.NewOrderService(
		orderRepo,
		variantRepo,
		couponService,
		gatewayClient,
		cartRepo,
		producer,
		services.OrderServiceConfig{
			DeliveryFee:         cfg.DeliveryFee,
			FreeDeliveryMin:     cfg.FreeDeliveryMin,
			Currency:            cfg.Currency,
			ClearCartAfterOrder: cfg.ClearCartAfterOrder,
		},
		logger,
	)
	paymentService := services.NewPaymentService(orderRepo, gatewayClient, producer, logger)

	cartController := controllers.NewCartController(cartService)
	orderController := controllers.NewOrderController(orderService)
	paymentController := controllers.NewPaymentController(paymentService)
	couponController := controllers.NewCouponController(couponService)

	routes.Register(r, cartController, orderController, paymentController, couponController)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": "storefront"})
	})

	// --- HTTP server ---
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Info("Storefront started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Initiating graceful shutdown...")
	httpShutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(httpShutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	if err := database.Close(); err != nil {
		logger.Error("Database close error", zap.Error(err))
	}

	log.Println("Storefront stopped gracefully")
}
