package middleware

import (
	"net/http"

	"butcher-shop/internal/domain"

	"go.uber.org/zap"
)

// RequireAdmin guards the /api/admin routes. It must run after AuthMiddleware;
// customers and anonymous callers get 403.
func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if role, _ := GetUserRole(r.Context()); role != domain.RoleAdmin {
				userID, _ := GetUserID(r.Context())
				logger.Warn("Admin route denied",
					zap.String("user_id", userID.String()),
					zap.String("role", role),
					zap.String("path", r.URL.Path),
				)
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
