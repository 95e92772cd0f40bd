package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/marketplace-orders/internal/api/middleware"
	"github.com/example/marketplace-orders/internal/auth"
)

type RouterConfig struct {
	Handlers     *Handlers
	AuthHandlers *AuthHandlers
	JWTService   *auth.JWTService
	Logger       *zap.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(cfg.Logger))

	r.Get("/health", cfg.Handlers.Health)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", cfg.AuthHandlers.Login)
		r.Post("/refresh", cfg.AuthHandlers.Refresh)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTService))
		// Only customers place orders; other roles just read them.
		r.With(middleware.RequireRole(auth.RoleCustomer)).Post("/", cfg.Handlers.CreateOrder)
		r.Get("/", cfg.Handlers.ListOrders)
		r.Get("/{id}", cfg.Handlers.GetOrder)
	})

	return r
}
