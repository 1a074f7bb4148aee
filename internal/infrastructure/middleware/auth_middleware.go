package middleware

import (
	"net/http"
	"strings"

	"signalmesh/internal/core/domain"
	"signalmesh/internal/core/services"

	"github.com/gin-gonic/gin"
)

// IdentityKey is the gin context key under which the authenticated agent
// identity is stored.
const IdentityKey = "identity"

func AuthMiddleware(authService services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		c.Set(IdentityKey, claims.Identity)
		c.Next()
	}
}

func OptionalAuthMiddleware(authService services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			if claims, err := authService.ValidateToken(parts[1]); err == nil {
				c.Set(IdentityKey, claims.Identity)
			}
		}

		c.Next()
	}
}

// IdentityFromContext returns the authenticated identity set by
// AuthMiddleware.
func IdentityFromContext(c *gin.Context) (domain.Identity, bool) {
	val, exists := c.Get(IdentityKey)
	if !exists {
		return "", false
	}
	identity, ok := val.(domain.Identity)
	return identity, ok
}
