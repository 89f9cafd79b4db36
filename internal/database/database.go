// Package database opens the relational store, applies the schema and
// connects to Redis.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/recipebook/backend/config"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the database selected by cfg.DBDriver.
func Open(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		log.Info("connecting to database",
			zap.String("host", cfg.DBHost),
			zap.String("port", cfg.DBPort),
			zap.String("user", cfg.DBUser),
			zap.String("name", cfg.DBName))
		dialector = postgres.Open(cfg.DSN())
	case "sqlite":
		log.Info("opening sqlite database", zap.String("path", cfg.DBPath))
		dialector = sqlite.Open(cfg.DBPath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}

	gormLogLevel := logger.Warn
	if cfg.Environment.IsProduction() {
		gormLogLevel = logger.Error
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   logger.Default.LogMode(gormLogLevel),
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: cfg.DBDriver == "sqlite",
	})
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("error getting database handle: %w", err)
	}
	if cfg.DBDriver == "sqlite" {
		// A single writer keeps sqlite from reporting "database is locked".
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(25)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	log.Info("successfully connected to database", zap.String("driver", cfg.DBDriver))
	return db, nil
}

// HealthCheck checks if the database is accessible
func HealthCheck(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
