package middleware

import (
	"context"
	"net/http"
	"strings"

	"vision_gateway/internal/auth"
	"vision_gateway/internal/config"
	"vision_gateway/internal/utils"
)

// ContextKey is the type used for request context values set by middleware.
type ContextKey string

// AdminUserKey stores the authenticated admin username.
const AdminUserKey ContextKey = "adminUser"

// AdminJWTMiddleware validates admin JWT tokens on analytics endpoints
func AdminJWTMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := r.Header.Get("Authorization")
			if tokenString == "" {
				utils.RespondWithError(w, http.StatusUnauthorized, "Missing authentication token")
				return
			}

			// Remove "Bearer " prefix if present
			tokenString = strings.TrimPrefix(tokenString, "Bearer ")

			username, err := auth.ValidateJWT(tokenString, cfg)
			if err != nil {
				utils.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), AdminUserKey, username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAdminUser retrieves the admin username from the request context
func GetAdminUser(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(AdminUserKey).(string)
	return username, ok
}
