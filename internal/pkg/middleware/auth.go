package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/roomdesk/service-booking/internal/pkg/auth"
	"github.com/roomdesk/service-booking/internal/pkg/response"
)

const (
	ctxPrincipalKey = "principal"
	ctxRoleKey      = "user_role"
)

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(h[len("Bearer "):])
}

// OptionalAuthMiddleware resolves a principal when a bearer token is present.
// Requests without a token continue anonymously; a bad token is rejected.
func OptionalAuthMiddleware(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}
		claims, err := jwtManager.ValidateToken(token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			return
		}
		c.Set(ctxPrincipalKey, claims.Subject)
		c.Set(ctxRoleKey, claims.Role)
		c.Next()
	}
}

// AuthMiddleware requires a valid bearer token.
func AuthMiddleware(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.Unauthorized(c, "access token required")
			return
		}
		claims, err := jwtManager.ValidateToken(token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			return
		}
		c.Set(ctxPrincipalKey, claims.Subject)
		c.Set(ctxRoleKey, claims.Role)
		c.Next()
	}
}

// RequireRole must run after AuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetUserRole(c)
		if !ok {
			response.Unauthorized(c, "unauthorized")
			return
		}
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		response.Forbidden(c, "insufficient permissions")
	}
}

// GetPrincipal returns the authenticated principal id, or nil for anonymous requests.
func GetPrincipal(c *gin.Context) *string {
	v, ok := c.Get(ctxPrincipalKey)
	if !ok {
		return nil
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}

// GetUserRole returns the role claim.
func GetUserRole(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxRoleKey)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
