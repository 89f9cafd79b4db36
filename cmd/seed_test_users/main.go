package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/recipebook/backend/config"
	"github.com/recipebook/backend/internal/app"
	"github.com/recipebook/backend/internal/auth"
	"github.com/recipebook/backend/internal/logging"
	"github.com/recipebook/backend/internal/models"
	"go.uber.org/zap"
)

var testUsers = []struct {
	name     string
	email    string
	userType models.UserType
}{
	{"João Silva", "joao.silva@example.com", models.UserTypeOrdinary},
	{"Maria Souza", "maria.souza@example.com", models.UserTypeOrdinary},
	{"Pedro Santos", "pedro.santos@example.com", models.UserTypeOrdinary},
	{"Ana Oliveira", "ana.oliveira@example.com", models.UserTypeOrdinary},
	{"Administrador", "admin@example.com", models.UserTypeAdmin},
}

func main() {
	password := flag.String("password", "testpassword123", "Password of every seeded user")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log, err := logging.New(cfg.LogLevel, "console")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to initialize application", zap.Error(err))
	}
	defer a.Close()

	created := 0
	for _, u := range testUsers {
		user, err := a.Auth.Register(ctx, u.email, *password, u.name)
		if errors.Is(err, auth.ErrUserAlreadyExists) {
			log.Info("user already exists, skipping", zap.String("email", u.email))
			continue
		}
		if err != nil {
			log.Error("failed to create user", zap.String("email", u.email), zap.Error(err))
			continue
		}

		if u.userType != models.UserTypeOrdinary {
			userType := u.userType
			if _, err := a.Profiles.UpdateProfile(ctx, user.ID, models.ProfileUpdate{UserType: &userType}); err != nil {
				log.Error("failed to set user type", zap.String("email", u.email), zap.Error(err))
			}
		}
		created++
		log.Info("created user", zap.String("email", u.email), zap.String("user_type", string(u.userType)))
	}

	log.Info("test users seeded", zap.Int("created", created), zap.String("password", *password))
}
