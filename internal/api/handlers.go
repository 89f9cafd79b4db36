// Package api exposes the recipe, favorite, profile, image and auth flows
// over HTTP under /api/v1.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/recipebook/backend/internal/logging"
	"github.com/recipebook/backend/internal/middleware"
	"github.com/recipebook/backend/internal/service"
	"go.uber.org/zap"
)

// Deps carries the services behind the HTTP API. Images and RateLimiter may be nil.
type Deps struct {
	Auth        AuthService
	Tokens      middleware.TokenValidator
	Recipes     RecipeService
	Profiles    ProfileService
	Images      service.ImageUploader
	RateLimiter *middleware.RateLimiter
	Health      func(ctx context.Context) error
}

// HealthCheck returns the health status of the API
func HealthCheck(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			if err := check(c.Request.Context()); err != nil {
				logging.FromContext(c.Request.Context(), nil).Warn("health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	}
}

// RegisterRoutes registers all API routes
func RegisterRoutes(router *gin.Engine, deps Deps) {
	router.GET("/health", HealthCheck(deps.Health))

	authorize := middleware.AuthMiddleware(deps.Tokens)
	v1 := router.Group("/api/v1")
	v1.GET("/health", HealthCheck(deps.Health))

	NewAuthHandler(deps.Auth).RegisterRoutes(v1)
	NewRecipeHandler(deps.Recipes, authorize, deps.RateLimiter).RegisterRoutes(v1)
	NewProfileHandler(deps.Profiles, authorize).RegisterRoutes(v1)
	if deps.Images != nil {
		NewImageHandler(deps.Images, authorize, deps.RateLimiter).RegisterRoutes(v1)
	}
}
