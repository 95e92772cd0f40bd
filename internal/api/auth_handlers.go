package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/example/marketplace-orders/internal/auth"
)

type AuthHandlers struct {
	users *auth.UserDirectory
	jwt   *auth.JWTService
}

func NewAuthHandlers(users *auth.UserDirectory, jwt *auth.JWTService) *AuthHandlers {
	return &AuthHandlers{users: users, jwt: jwt}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresAt    string `json:"expires_at"`
}

// Login handles POST /auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, "email and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.users.Authenticate(req.Email, req.Password)
	if err != nil {
		respondError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	accessToken, expiresAt, err := h.jwt.GenerateAccessToken(user)
	if err != nil {
		respondError(w, "failed to generate token", http.StatusInternalServerError)
		return
	}
	refreshToken, _, err := h.jwt.GenerateRefreshToken(user.ID)
	if err != nil {
		respondError(w, "failed to generate token", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt.UTC().Format(time.RFC3339),
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh handles POST /auth/refresh.
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	userID, err := h.jwt.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		respondError(w, "invalid refresh token", http.StatusUnauthorized)
		return
	}

	user, ok := h.users.FindByID(userID)
	if !ok {
		respondError(w, "invalid refresh token", http.StatusUnauthorized)
		return
	}

	accessToken, expiresAt, err := h.jwt.GenerateAccessToken(user)
	if err != nil {
		respondError(w, "failed to generate token", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, tokenResponse{
		AccessToken: accessToken,
		ExpiresAt:   expiresAt.UTC().Format(time.RFC3339),
	})
}
