package repository

import (
	"context"
	"errors"
	"time"

	"github.com/recipebook/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileRepository reads and writes user profiles.
type ProfileRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(db *gorm.DB, log *zap.Logger) *ProfileRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProfileRepository{db: db, log: log}
}

// GetProfile returns nil without an error when the user has no profile yet.
func (r *ProfileRepository) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("get profile", err)
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpsertProfile inserts the profile or overwrites the one stored for the same user.
func (r *ProfileRepository) UpsertProfile(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	if profile.UserID == "" {
		return nil, ErrMissingOwner
	}
	if profile.UserType == "" {
		profile.UserType = models.UserTypeOrdinary
	}
	profile.UpdatedAt = time.Now()

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "avatar_url", "bio", "user_type", "updated_at"}),
	}).Create(profile).Error
	if err != nil {
		return nil, wrap("upsert profile", err)
	}

	stored, err := r.GetProfile(ctx, profile.UserID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, ErrNotFound
	}
	return stored, nil
}

// UpdateProfile applies the set fields and stamps updated_at.
func (r *ProfileRepository) UpdateProfile(ctx context.Context, userID string, update models.ProfileUpdate) (*models.Profile, error) {
	cols := update.Columns()
	cols["updated_at"] = time.Now()

	res := r.db.WithContext(ctx).Model(&models.Profile{}).Where("user_id = ?", userID).Updates(cols)
	if res.Error != nil {
		return nil, wrap("update profile", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	profile, err := r.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrNotFound
	}
	r.log.Debug("profile updated", zap.String("user_id", userID))
	return profile, nil
}
