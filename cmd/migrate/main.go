package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	"github.com/recipebook/backend/config"
	"github.com/recipebook/backend/internal/database"
	"github.com/recipebook/backend/internal/logging"
	"go.uber.org/zap"
)

func main() {
	rollback := flag.Bool("rollback", false, "Rollback the last migration")
	flag.Parse()

	log, err := logging.New("info", "console")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatal("DATABASE_URL is not set and configuration failed to load", zap.Error(err))
		}
		dsn = cfg.DSN()
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	ctx := context.Background()
	if *rollback {
		name, err := database.Rollback(ctx, db, log)
		if err != nil {
			log.Fatal("rollback failed", zap.Error(err))
		}
		log.Info("rolled back migration", zap.String("name", name))
		return
	}

	if err := database.RunMigrations(ctx, db, log); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}
	log.Info("migrations applied")
}
