package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/seasky/seasky-api/internal/pkg/jwt"
	"github.com/seasky/seasky-api/internal/pkg/response"
)

type contextKey string

const (
	ActorIDKey contextKey = "actor_id"
	RoleKey    contextKey = "role"
)

// Role names understood by the routing layer. The ledger core itself never
// branches on roles; ownership checks stay in the calling layer.
const (
	RoleAdmin    = "admin"
	RoleAgent    = "agent"
	RoleCourier  = "courier"
	RoleSupplier = "supplier"
)

// Auth returns middleware that validates JWT and stores actor identity
func Auth(jwtService *jwt.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "Missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				response.Unauthorized(w, "Invalid authorization header format")
				return
			}

			claims, err := jwtService.ValidateAccessToken(parts[1])
			if err != nil {
				if err == jwt.ErrExpiredToken {
					response.Unauthorized(w, "Token expired")
				} else {
					response.Unauthorized(w, "Invalid token")
				}
				return
			}

			ctx := context.WithValue(r.Context(), ActorIDKey, claims.ActorID)
			ctx = context.WithValue(ctx, RoleKey, claims.Role)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetActorID extracts the authenticated actor id from context, 0 when absent
func GetActorID(ctx context.Context) int64 {
	if id, ok := ctx.Value(ActorIDKey).(int64); ok {
		return id
	}
	return 0
}

// GetRole extracts role from context
func GetRole(ctx context.Context) string {
	if role, ok := ctx.Value(RoleKey).(string); ok {
		return role
	}
	return ""
}

// RequireRole returns middleware that checks actor role
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actorRole := GetRole(r.Context())

			for _, role := range roles {
				if actorRole == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			response.Forbidden(w, "Insufficient permissions")
		})
	}
}

// RequireAdmin returns middleware that requires admin role
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireRole(RoleAdmin)
}

// RequireAgent returns middleware that requires agent or admin role
func RequireAgent() func(http.Handler) http.Handler {
	return RequireRole(RoleAgent, RoleAdmin)
}
