// Package config loads the service configuration from environment
// variables. Defaults match the demo deployment; validation rejects values
// outside the ranges the pipeline is defined for.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port      int
	JWTSecret string
	JWTExpiry time.Duration

	CacheTTL  time.Duration
	RedisAddr string // empty selects the in-memory cache

	PaymentSuccessRate    float64
	StockSuccessRate      float64
	PaymentMaxRetries     int
	PaymentRetryBaseDelay time.Duration

	KafkaBrokers []string // empty disables the event mirror
	KafkaTopic   string
}

func Load() (*Config, error) {
	cfg := &Config{
		JWTSecret:  getEnv("JWT_SECRET", "marketplace-secret-key-change-in-production"),
		RedisAddr:  os.Getenv("REDIS_ADDR"),
		KafkaTopic: getEnv("KAFKA_TOPIC", "order-events"),
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	var err error
	if cfg.Port, err = intEnv("PORT", 3000); err != nil {
		return nil, err
	}
	if cfg.JWTExpiry, err = durationEnv("JWT_EXPIRES_IN", 24*time.Hour); err != nil {
		return nil, err
	}

	ttlSeconds, err := intEnv("CACHE_TTL_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	if ttlSeconds < 0 {
		return nil, fmt.Errorf("CACHE_TTL_SECONDS must be >= 0, got %d", ttlSeconds)
	}
	cfg.CacheTTL = time.Duration(ttlSeconds) * time.Second

	if cfg.PaymentSuccessRate, err = rateEnv("PAYMENT_SUCCESS_RATE", 0.7); err != nil {
		return nil, err
	}
	if cfg.StockSuccessRate, err = rateEnv("STOCK_SUCCESS_RATE", 0.8); err != nil {
		return nil, err
	}

	if cfg.PaymentMaxRetries, err = intEnv("PAYMENT_MAX_RETRIES", 3); err != nil {
		return nil, err
	}
	if cfg.PaymentMaxRetries < 1 {
		return nil, fmt.Errorf("PAYMENT_MAX_RETRIES must be >= 1, got %d", cfg.PaymentMaxRetries)
	}

	delayMs, err := intEnv("PAYMENT_RETRY_BASE_DELAY_MS", 1000)
	if err != nil {
		return nil, err
	}
	if delayMs < 0 {
		return nil, fmt.Errorf("PAYMENT_RETRY_BASE_DELAY_MS must be >= 0, got %d", delayMs)
	}
	cfg.PaymentRetryBaseDelay = time.Duration(delayMs) * time.Millisecond

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, raw)
	}
	return value, nil
}

func rateEnv(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", key, raw)
	}
	if value < 0 || value > 1 {
		return 0, fmt.Errorf("%s must be between 0 and 1, got %v", key, value)
	}
	return value, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like \"24h\", got %q", key, raw)
	}
	return value, nil
}
