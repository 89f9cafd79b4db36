// Package router assembles the gin engine: global middleware first, then the
// API routes.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/recipebook/backend/config"
	"github.com/recipebook/backend/internal/api"
	"github.com/recipebook/backend/internal/middleware"
	"go.uber.org/zap"
)

// SetupRouter configures the application routes
func SetupRouter(cfg *config.Config, log *zap.Logger, deps api.Deps) *gin.Engine {
	if cfg.Environment.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		middleware.RequestLogger(log),
		middleware.ErrorHandler(log),
		middleware.CORS(cfg.CORSOrigins),
	)

	api.RegisterRoutes(router, deps)
	return router
}
