package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/marketplace-orders/internal/api/middleware"
	"github.com/example/marketplace-orders/internal/auth"
	"github.com/example/marketplace-orders/internal/order"
	"github.com/example/marketplace-orders/internal/service"
)

type Handlers struct {
	orders *service.OrderService
}

func NewHandlers(orders *service.OrderService) *Handlers {
	return &Handlers{orders: orders}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"error": message})
}

type createOrderRequest struct {
	Items []order.Item `json:"items"`
}

// CreateOrder handles POST /orders. The customer id always comes from the
// authenticated claims, never from the request body.
func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	for _, item := range req.Items {
		if item.ProductID == "" {
			respondError(w, "productId is required", http.StatusBadRequest)
			return
		}
	}

	o, err := h.orders.CreateOrder(r.Context(), claims.UserID, req.Items, middleware.GetRequestID(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, order.ErrEmptyOrder), errors.Is(err, order.ErrInvalidQuantity):
			respondError(w, err.Error(), http.StatusBadRequest)
		default:
			respondError(w, "failed to create order", http.StatusInternalServerError)
		}
		return
	}

	respondJSON(w, http.StatusCreated, o)
}

// ListOrders handles GET /orders with role-based visibility: admins see
// everything, brands see orders containing their products, customers see
// their own orders.
func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var (
		orders []*order.Order
		err    error
	)
	switch claims.Role {
	case auth.RoleAdmin:
		orders, err = h.orders.ListOrders(r.Context(), nil)
	case auth.RoleBrand:
		orders, err = h.orders.ListOrders(r.Context(), brandFilter(claims.BrandID))
	default:
		orders, err = h.orders.ListOrdersByCustomer(r.Context(), claims.UserID)
	}
	if err != nil {
		respondError(w, "failed to list orders", http.StatusInternalServerError)
		return
	}

	if orders == nil {
		orders = []*order.Order{}
	}
	respondJSON(w, http.StatusOK, orders)
}

// GetOrder handles GET /orders/{id}. Orders the caller may not see are
// reported as not found rather than forbidden.
func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id := chi.URLParam(r, "id")
	o, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			respondError(w, "order not found", http.StatusNotFound)
			return
		}
		respondError(w, "failed to get order", http.StatusInternalServerError)
		return
	}

	if !canAccessOrder(claims, o) {
		respondError(w, "order not found", http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, o)
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func brandFilter(brandID string) func(*order.Order) bool {
	return func(o *order.Order) bool {
		for _, item := range o.Items {
			if strings.HasPrefix(item.ProductID, brandID) {
				return true
			}
		}
		return false
	}
}

func canAccessOrder(claims *auth.Claims, o *order.Order) bool {
	switch claims.Role {
	case auth.RoleAdmin:
		return true
	case auth.RoleBrand:
		return brandFilter(claims.BrandID)(o)
	default:
		return o.CustomerID == claims.UserID
	}
}
