package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/recipebook/backend/internal/auth"
	"github.com/recipebook/backend/internal/logging"
	"go.uber.org/zap"
)

const (
	userIDKey = "user_id"
	emailKey  = "email"
)

// TokenValidator is an interface for validating access tokens
type TokenValidator interface {
	ValidateToken(token string) (*auth.TokenClaims, error)
}

// AuthMiddleware creates a middleware that validates bearer access tokens
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(emailKey, claims.Email)

		ctx := c.Request.Context()
		log := logging.FromContext(ctx, nil).With(zap.String("user_id", claims.UserID))
		c.Request = c.Request.WithContext(logging.WithContext(ctx, log))
		c.Next()
	}
}

// UserID returns the authenticated user of the request, or "".
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
