package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"atmbank/models"
	"atmbank/services"
)

type contextKey string

const (
	userIDKey contextKey = "user_id"
	roleKey   contextKey = "role"
)

// AuthMiddleware verifies the Bearer access token and stores the caller's
// identity in the request context.
func AuthMiddleware(tokens *services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := r.Header.Get("Authorization")
			if tokenString == "" {
				http.Error(w, "Authorization header is required", http.StatusUnauthorized)
				return
			}
			tokenString = strings.TrimPrefix(tokenString, "Bearer ")

			claims, err := tokens.VerifyToken(tokenString, services.TokenTypeAccess)
			if err != nil {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			userID, err := claims.UserID()
			if err != nil {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, userIDKey, userID)
			ctx = context.WithValue(ctx, roleKey, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects callers whose token does not carry the admin role.
// It must run after AuthMiddleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := r.Context().Value(roleKey).(models.Role)
		if !ok || role != models.RoleAdmin {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUserFromContext returns the authenticated caller's id and role.
func GetUserFromContext(r *http.Request) (uint, models.Role, error) {
	userID, ok := r.Context().Value(userIDKey).(uint)
	if !ok {
		return 0, "", fmt.Errorf("user_id not found in context")
	}

	role, ok := r.Context().Value(roleKey).(models.Role)
	if !ok {
		return 0, "", fmt.Errorf("role not found in context")
	}

	return userID, role, nil
}
