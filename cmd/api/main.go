package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/example/marketplace-orders/internal/api"
	"github.com/example/marketplace-orders/internal/auth"
	"github.com/example/marketplace-orders/internal/bus"
	"github.com/example/marketplace-orders/internal/cache"
	"github.com/example/marketplace-orders/internal/config"
	kafkamirror "github.com/example/marketplace-orders/internal/messaging/kafka"
	"github.com/example/marketplace-orders/internal/orchestrator"
	"github.com/example/marketplace-orders/internal/order"
	"github.com/example/marketplace-orders/internal/service"
	"github.com/example/marketplace-orders/internal/stage"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	// Read cache: Redis when configured, otherwise in-process.
	var orderCache cache.Cache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(context.Background()).Err(); err != nil {
			logger.Fatal("failed to connect to redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		defer client.Close()
		orderCache = cache.NewRedis(client, logger)
		logger.Info("using redis cache", zap.String("addr", cfg.RedisAddr))
	} else {
		orderCache = cache.NewMemory(logger)
	}

	store := order.NewMemoryStore(logger)
	cachedStore := order.NewCachedStore(store, orderCache, cfg.CacheTTL, logger)

	// Event mirror: Kafka when brokers are configured, otherwise the bus's
	// default no-op publisher.
	var busOpts []bus.Option
	if len(cfg.KafkaBrokers) > 0 {
		kp := kafkamirror.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		busOpts = append(busOpts, bus.WithMirror(kp))
		logger.Info("mirroring events to kafka",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.KafkaTopic),
		)
	}
	eventBus := bus.New(logger, busOpts...)

	// Fulfillment stages react to events; the orchestrator is the only
	// writer of order status.
	stage.NewPayment(eventBus, stage.PaymentConfig{
		SuccessRate:    cfg.PaymentSuccessRate,
		MaxRetries:     cfg.PaymentMaxRetries,
		RetryBaseDelay: cfg.PaymentRetryBaseDelay,
	}, logger).Register()
	stage.NewStock(eventBus, stage.StockConfig{
		SuccessRate: cfg.StockSuccessRate,
	}, logger).Register()
	stage.NewDelivery(eventBus, logger).Register()
	orchestrator.New(eventBus, cachedStore, logger).Register()

	orderService := service.NewOrderService(cachedStore, eventBus, logger)

	users := auth.NewUserDirectory()
	if err := users.SeedDemoUsers(); err != nil {
		logger.Fatal("failed to seed demo users", zap.Error(err))
	}
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTExpiry, 7*24*time.Hour)

	router := api.NewRouter(api.RouterConfig{
		Handlers:     api.NewHandlers(orderService),
		AuthHandlers: api.NewAuthHandlers(users, jwtService),
		JWTService:   jwtService,
		Logger:       logger,
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	go func() {
		logger.Info("server started", zap.Int("port", cfg.Port))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown incomplete", zap.Error(err))
	}

	// Detach handlers and let in-flight pipelines finish.
	orderService.Shutdown()
	logger.Info("shutdown complete")
}
