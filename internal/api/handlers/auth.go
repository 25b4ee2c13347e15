package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/playmatatu/slamdunk/internal/auth"
	"github.com/playmatatu/slamdunk/internal/config"
)

const claimsKey = "table_claims"

// AuthMiddleware validates the bearer table token for the :token route
// parameter and stores its claims in the context. With hostOnly set, viewer
// tokens are rejected.
func AuthMiddleware(cfg *config.Config, hostOnly bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")

		claims, err := auth.ParseTableToken(cfg.JWTSecret, c.Param("token"), raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if hostOnly && !claims.IsHost() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "host token required"})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}
