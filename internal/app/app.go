// Package app wires configuration into the database, caches, auth backend,
// repositories and services shared by the binaries.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/recipebook/backend/config"
	"github.com/recipebook/backend/internal/api"
	"github.com/recipebook/backend/internal/auth"
	"github.com/recipebook/backend/internal/database"
	"github.com/recipebook/backend/internal/logging"
	"github.com/recipebook/backend/internal/middleware"
	"github.com/recipebook/backend/internal/notification"
	"github.com/recipebook/backend/internal/repository"
	"github.com/recipebook/backend/internal/router"
	"github.com/recipebook/backend/internal/service"
	"github.com/recipebook/backend/internal/session"
	"github.com/recipebook/backend/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds the application's dependencies.
type App struct {
	cfg   *config.Config
	log   *zap.Logger
	DB    *gorm.DB
	Redis *redis.Client

	Auth     *auth.Service
	Recipes  *repository.RecipeRepository
	Profiles *repository.ProfileRepository
	Notifier *notification.Notifier
	Images   *storage.ImageStore

	RecipeService  *service.RecipeService
	ProfileService *service.ProfileService
}

// New connects to the configured backends and builds the services. Redis and
// object storage are optional: when they are unreachable the app falls back to
// in-memory token revocation, log notifications and no image uploads.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	log = logging.OrNop(log)
	db, err := database.Open(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.Migrate(ctx, db, log); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	a := &App{cfg: cfg, log: log, DB: db}

	a.Redis, err = database.NewRedisClient(cfg, log)
	if err != nil {
		log.Warn("redis unavailable, continuing without it", zap.Error(err))
		a.Redis = nil
	}

	var revoked auth.RevocationStore = auth.NewMemoryRevocationStore()
	if a.Redis != nil {
		revoked = auth.NewRedisRevocationStore(a.Redis)
	}
	a.Auth = auth.NewService(db, auth.Options{
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	}, revoked, log.Named("auth"))

	a.Recipes = repository.NewRecipeRepository(db, log.Named("recipes"))
	a.Profiles = repository.NewProfileRepository(db, log.Named("profiles"))
	a.Notifier = notification.New(a.dispatcher(), log.Named("notifications"))
	a.Images = a.imageStore(ctx)

	var uploader service.ImageUploader
	if a.Images != nil {
		uploader = a.Images
	}
	a.RecipeService = service.NewRecipeService(a.Recipes, uploader, a.Notifier, log.Named("recipe-service"))
	a.ProfileService = service.NewProfileService(a.Profiles, a.Notifier, log.Named("profile-service"))
	return a, nil
}

func (a *App) dispatcher() notification.Dispatcher {
	if a.cfg.Notification.Provider == "redis" {
		if a.Redis != nil {
			return notification.NewRedisDispatcher(a.Redis, a.cfg.Notification.ChannelPrefix)
		}
		a.log.Warn("redis notifications requested but redis is unavailable, logging instead")
	}
	return notification.NewLogDispatcher(a.log.Named("dispatch"))
}

func (a *App) imageStore(ctx context.Context) *storage.ImageStore {
	backend, err := storage.NewBackend(ctx, a.cfg.Storage)
	if err != nil {
		a.log.Warn("object storage unavailable, image uploads disabled", zap.Error(err))
		return nil
	}
	if err := backend.EnsureBucket(ctx); err != nil {
		a.log.Warn("failed to prepare image bucket", zap.String("bucket", backend.Bucket()), zap.Error(err))
	}
	return storage.NewImageStore(backend, a.log.Named("images"))
}

// Handler builds the HTTP API.
func (a *App) Handler() *gin.Engine {
	deps := api.Deps{
		Auth:     a.Auth,
		Tokens:   a.Auth,
		Recipes:  a.RecipeService,
		Profiles: a.ProfileService,
		Health: func(ctx context.Context) error {
			return database.HealthCheck(ctx, a.DB)
		},
	}
	if a.Images != nil {
		deps.Images = a.Images
	}
	if a.Redis != nil {
		deps.RateLimiter = middleware.NewRecipeWriteRateLimiter(a.Redis)
	}
	return router.SetupRouter(a.cfg, a.log, deps)
}

// AuthClient returns a client of the auth backend whose session is persisted
// under storageKey, in Redis when available.
func (a *App) AuthClient(storageKey string) *auth.Client {
	var store auth.SessionStorage = auth.NewMemorySessionStorage()
	if a.Redis != nil {
		store = auth.NewRedisSessionStorage(a.Redis, a.cfg.RefreshTokenTTL)
	}
	return auth.NewClient(a.Auth, store,
		auth.WithStorageKey(storageKey),
		auth.WithClientLogger(a.log.Named("auth-client")))
}

const sessionRefreshInterval = 30 * time.Second

// Session returns a session context backed by a new auth client that
// refreshes its tokens in the background once started.
func (a *App) Session(storageKey string) *session.Context {
	return session.New(a.AuthClient(storageKey), a.Profiles,
		session.WithLogger(a.log.Named("session")),
		session.WithNotifier(a.Notifier),
		session.WithAutoRefresh(sessionRefreshInterval))
}

// Close waits for pending notifications and releases connections.
func (a *App) Close() {
	a.Notifier.Close()
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.log.Warn("failed to close redis", zap.Error(err))
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.log.Warn("failed to close database", zap.Error(err))
		}
	}
}
