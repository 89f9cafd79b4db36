package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/recipebook/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// ErrNoMigrations is returned by Rollback when nothing has been applied.
var ErrNoMigrations = errors.New("no migrations to rollback")

// Migration is one versioned schema change with its rollback script.
type Migration struct {
	Name string
	Up   string
	Down string
}

// sqliteProfileTrigger mirrors the Postgres handle_new_user trigger.
const sqliteProfileTrigger = `
CREATE TRIGGER IF NOT EXISTS on_user_created AFTER INSERT ON users
BEGIN
	INSERT OR IGNORE INTO profiles (id, user_id, name, email, user_type, created_at, updated_at)
	VALUES (lower(hex(randomblob(16))), NEW.id, COALESCE(NEW.name, ''), NEW.email, 'comum', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);
END;`

// Migrations returns the embedded Postgres migrations ordered by name.
func Migrations() ([]Migration, error) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	byName := map[string]*Migration{}
	for _, entry := range entries {
		file := entry.Name()
		var name, direction string
		switch {
		case strings.HasSuffix(file, ".up.sql"):
			name, direction = strings.TrimSuffix(file, ".up.sql"), "up"
		case strings.HasSuffix(file, ".down.sql"):
			name, direction = strings.TrimSuffix(file, ".down.sql"), "down"
		default:
			continue
		}

		content, err := fs.ReadFile(migrationFS, "migrations/"+file)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", file, err)
		}

		m, ok := byName[name]
		if !ok {
			m = &Migration{Name: name}
			byName[name] = m
		}
		if direction == "up" {
			m.Up = string(content)
		} else {
			m.Down = string(content)
		}
	}

	out := make([]Migration, 0, len(byName))
	for _, m := range byName {
		if m.Up == "" {
			return nil, fmt.Errorf("migration %s has no up script", m.Name)
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Migrate brings the schema of db up to date. Postgres runs the versioned
// SQL migrations; sqlite is auto-migrated from the models.
func Migrate(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
	if db.Dialector.Name() == "sqlite" {
		return AutoMigrateSQLite(db)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return RunMigrations(ctx, sqlDB, log)
}

// AutoMigrateSQLite creates the tables and the profile trigger on sqlite.
func AutoMigrateSQLite(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Recipe{},
		&models.Favorite{},
	); err != nil {
		return fmt.Errorf("failed to auto-migrate: %w", err)
	}
	if err := db.Exec(sqliteProfileTrigger).Error; err != nil {
		return fmt.Errorf("failed to create profile trigger: %w", err)
	}
	return nil
}

// RunMigrations applies every pending migration in order and records it in
// schema_migrations.
func RunMigrations(ctx context.Context, db *sql.DB, log *zap.Logger) error {
	migrations, err := Migrations()
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, m := range migrations {
		var count int
		if err := db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM schema_migrations WHERE name = $1", m.Name,
		).Scan(&count); err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if count > 0 {
			log.Debug("skipping migration (already applied)", zap.String("migration", m.Name))
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction for %s: %w", m.Name, err)
		}
		if _, err := tx.ExecContext(ctx, m.Up); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to execute migration %s: %w", m.Name, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (name) VALUES ($1)", m.Name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %s: %w", m.Name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", m.Name, err)
		}

		log.Info("applied migration", zap.String("migration", m.Name))
	}

	return nil
}

// Rollback reverts the most recently applied migration and returns its name.
func Rollback(ctx context.Context, db *sql.DB, log *zap.Logger) (string, error) {
	var last string
	err := db.QueryRowContext(ctx,
		"SELECT name FROM schema_migrations ORDER BY applied_at DESC, name DESC LIMIT 1",
	).Scan(&last)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoMigrations
	}
	if err != nil {
		return "", fmt.Errorf("failed to get last migration: %w", err)
	}

	migrations, err := Migrations()
	if err != nil {
		return "", err
	}
	var down string
	for _, m := range migrations {
		if m.Name == last {
			down = m.Down
		}
	}
	if down == "" {
		return "", fmt.Errorf("rollback script not found for %s", last)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	if _, err := tx.ExecContext(ctx, down); err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("failed to roll back %s: %w", last, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM schema_migrations WHERE name = $1", last); err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("failed to remove migration record %s: %w", last, err)
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}

	log.Info("rolled back migration", zap.String("migration", last))
	return last, nil
}
