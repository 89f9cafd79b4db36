package service

import (
	"context"
	"strings"

	"github.com/recipebook/backend/internal/models"
	"github.com/recipebook/backend/internal/repository"
	"go.uber.org/zap"
)

// ProfileStore is the profile repository.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID string, update models.ProfileUpdate) (*models.Profile, error)
}

// ProfileNotifier is told about profile changes.
type ProfileNotifier interface {
	NotifyProfileUpdated(ctx context.Context, userID string)
}

// ProfileService handles user profile operations
type ProfileService struct {
	profiles ProfileStore
	notifier ProfileNotifier
	log      *zap.Logger
}

// NewProfileService creates a new ProfileService instance
func NewProfileService(profiles ProfileStore, notifier ProfileNotifier, log *zap.Logger) *ProfileService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProfileService{profiles: profiles, notifier: notifier, log: log}
}

// GetProfile retrieves a user's profile
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, repository.ErrNotFound
	}
	return profile, nil
}

// UpdateProfile applies a partial update to the caller's own profile. Only an
// administrator may change a user type.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, update models.ProfileUpdate) (*models.Profile, error) {
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, &ValidationError{Field: "name", Message: "O nome não pode ficar em branco."}
		}
		update.Name = &name
	}
	if update.UserType != nil {
		if !update.UserType.Valid() {
			return nil, &ValidationError{Field: "user_type", Message: "Tipo de usuário inválido."}
		}
		current, err := s.GetProfile(ctx, userID)
		if err != nil {
			return nil, err
		}
		if current.UserType != models.UserTypeAdmin && *update.UserType != current.UserType {
			return nil, ErrUserTypeForbidden
		}
	}

	profile, err := s.profiles.UpdateProfile(ctx, userID, update)
	if err != nil {
		return nil, err
	}
	s.log.Info("profile updated", zap.String("user_id", userID))
	if s.notifier != nil {
		s.notifier.NotifyProfileUpdated(ctx, userID)
	}
	return profile, nil
}
