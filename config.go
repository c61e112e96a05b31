package main

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	RedisURL string

	KafkaBrokers string
	KafkaTopic   string

	GatewayBaseURL   string
	GatewayKeyID     string
	GatewayKeySecret string
	GatewayTimeout   time.Duration

	Currency        string
	DeliveryFee     float64
	FreeDeliveryMin float64

	// ClearCartAfterOrder controls whether a successful placement empties the
	// user's persisted cart. Off by default so a failed payment retains the
	// cart for another attempt.
	ClearCartAfterOrder bool

	CartTTL       time.Duration
	MergeFenceTTL time.Duration
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		RedisURL:            getEnv("REDIS_URL", "redis://localhost:6379"),
		KafkaBrokers:        os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:          getEnv("KAFKA_TOPIC", "order.events"),
		GatewayBaseURL:      os.Getenv("GATEWAY_BASE_URL"),
		GatewayKeyID:        os.Getenv("GATEWAY_KEY_ID"),
		GatewayKeySecret:    os.Getenv("GATEWAY_KEY_SECRET"),
		GatewayTimeout:      getEnvDuration("GATEWAY_TIMEOUT", 10*time.Second),
		Currency:            getEnv("CURRENCY", "INR"),
		DeliveryFee:         getEnvFloat("DELIVERY_FEE", 50),
		FreeDeliveryMin:     getEnvFloat("FREE_DELIVERY_MIN", 1000),
		ClearCartAfterOrder: getEnv("CLEAR_CART_AFTER_ORDER", "false") == "true",
		CartTTL:             getEnvDuration("CART_TTL", 7*24*time.Hour),
		MergeFenceTTL:       getEnvDuration("MERGE_FENCE_TTL", 24*time.Hour),
	}

	if cfg.GatewayKeySecret == "" {
		return nil, fmt.Errorf("GATEWAY_KEY_SECRET is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
