package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"butcher-shop/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	UserRoleKey contextKey = "user_role"
)

// TokenValidator turns a bearer token into its claims
type TokenValidator interface {
	ValidateToken(tokenString string) (*service.Claims, error)
}

// AuthMiddleware validates JWT access tokens and puts the user into the request context
func AuthMiddleware(tokens TokenValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug("Missing authorization header")
				RespondWithError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				logger.Debug("Invalid authorization header format")
				RespondWithError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			claims, err := tokens.ValidateToken(parts[1])
			if err != nil {
				logger.Debug("Token validation failed", zap.Error(err))
				if errors.Is(err, service.ErrTokenExpired) {
					RespondWithError(w, http.StatusUnauthorized, "token expired")
				} else {
					RespondWithError(w, http.StatusUnauthorized, "invalid token")
				}
				return
			}

			if claims.UserID == uuid.Nil || claims.Role == "" {
				logger.Warn("Token without user or role claims")
				RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			logger.Debug("User authenticated",
				zap.String("user_id", claims.UserID.String()),
				zap.String("role", claims.Role),
			)

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claims.UserID, claims.Role)))
		})
	}
}

// WithUser returns a context carrying the authenticated user
func WithUser(ctx context.Context, userID uuid.UUID, role string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, UserRoleKey, role)
}

// GetUserID extracts user ID from request context
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetUserRole extracts user role from request context
func GetUserRole(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(UserRoleKey).(string)
	return role, ok
}
