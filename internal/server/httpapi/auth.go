package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/rishabhkhetan/pharma-trade-connect/internal/server/domain"
	"github.com/rishabhkhetan/pharma-trade-connect/internal/server/postgres"
)

const bcryptCost = 14

type ctxKey int

const (
	ctxKeyUserID ctxKey = iota
	ctxKeyRole
)

func userIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyUserID).(string)
	return id
}

func roleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(ctxKeyRole).(string)
	return role
}

type signupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	CompanyName string `json:"company_name"`
	LicenseURL  string `json:"license_url"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup registers a new account in the approval queue. Accounts stay
// blocked until an admin approves them.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}
	if req.Role == "" {
		req.Role = "RETAILER"
	}
	if req.Role != "RETAILER" && req.Role != "CLINIC" {
		h.respondError(w, http.StatusBadRequest, "invalid_role", "role must be RETAILER or CLINIC")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "internal", "failed to process password")
		return
	}

	user := &domain.User{
		Email:       req.Email,
		Name:        req.Name,
		Role:        req.Role,
		IsApproved:  false,
		CompanyName: req.CompanyName,
		LicenseURL:  req.LicenseURL,
	}
	if err := h.store.CreateUser(r.Context(), user, string(hashed)); err != nil {
		if errors.Is(err, postgres.ErrEmailTaken) {
			h.respondError(w, http.StatusConflict, "email_taken", "email already exists")
			return
		}
		h.logger.Error("signup failed", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal", "failed to create account")
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]string{
		"message": "Signup successful. Wait for admin approval.",
	})
}

// Login verifies credentials and issues a signed token. Non-admin accounts
// must be approved first.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	user, storedHash, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			h.respondError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
			return
		}
		h.logger.Error("login lookup failed", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal", "login failed")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(req.Password)); err != nil {
		h.respondError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
		return
	}

	if user.Role != "ADMIN" && !user.IsApproved {
		h.respondError(w, http.StatusForbidden, "pending_approval", "account pending approval from admin")
		return
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"role":    user.Role,
		"exp":     time.Now().Add(h.tokenTTL).Unix(),
	})
	signed, err := token.SignedString(h.jwtSecret)
	if err != nil {
		h.logger.Error("token signing failed", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal", "login failed")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{
		"token": signed,
		"role":  user.Role,
	})
}

// Authenticate rejects requests without a valid bearer token and puts the
// token's user id and role on the request context.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if raw == "" {
			h.respondError(w, http.StatusUnauthorized, "unauthorized", "missing token")
			return
		}

		token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return h.jwtSecret, nil
		})
		if err != nil || !token.Valid {
			h.respondError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			h.respondError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}
		userID, _ := claims["user_id"].(string)
		role, _ := claims["role"].(string)

		ctx := context.WithValue(r.Context(), ctxKeyUserID, userID)
		ctx = context.WithValue(ctx, ctxKeyRole, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminOnly guards the admin surface. Must run inside Authenticate.
func (h *Handler) AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if roleFromContext(r.Context()) != "ADMIN" {
			h.respondError(w, http.StatusForbidden, "forbidden", "admin only access")
			return
		}
		next.ServeHTTP(w, r)
	})
}
