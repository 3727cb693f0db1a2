package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sortline/sortline/api/infrastructure/logger"
	"github.com/sortline/sortline/api/infrastructure/security"
	"go.uber.org/zap"
)

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(verifier security.TokenVerifier, logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthenticated",
				"message": "missing bearer token",
			})
			return
		}

		if err := verifier.Verify(token); err != nil {
			logger.Warn("rejected bearer token", zap.String("ip", c.ClientIP()), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthenticated",
				"message": "invalid token",
			})
			return
		}

		c.Next()
	}
}

// RequireFeedAuth authenticates SSE subscriptions. EventSource clients
// cannot set headers at connect time, so the token rides a query
// parameter and is checked once, before any frame is sent.
func RequireFeedAuth(verifier security.TokenVerifier, logger *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthenticated",
				"message": "missing feed token",
			})
			return
		}

		if err := verifier.Verify(token); err != nil {
			logger.Warn("rejected feed token", zap.String("ip", c.ClientIP()), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthenticated",
				"message": "invalid feed token",
			})
			return
		}

		c.Next()
	}
}
