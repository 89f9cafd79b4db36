package service

import (
	"context"
	"testing"

	"github.com/recipebook/backend/internal/mocks"
	"github.com/recipebook/backend/internal/models"
	"github.com/recipebook/backend/internal/repository"
	"github.com/recipebook/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProfileService(t *testing.T) {
	db := testhelpers.SetupSQLiteDatabase(t)
	profiles := repository.NewProfileRepository(db, nil)
	notifier := new(mocks.MockNotifier)
	svc := NewProfileService(profiles, notifier, nil)
	ctx := context.Background()
	user := testhelpers.CreateTestUser(t, db, "Ana")

	t.Run("get", func(t *testing.T) {
		profile, err := svc.GetProfile(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ana", profile.Name)
		assert.Equal(t, models.UserTypeOrdinary, profile.UserType)

		_, err = svc.GetProfile(ctx, "missing")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("update", func(t *testing.T) {
		notifier.On("NotifyProfileUpdated", mock.Anything, user.ID).Return().Once()
		name := "  Ana Maria "
		bio := "Confeiteira"

		profile, err := svc.UpdateProfile(ctx, user.ID, models.ProfileUpdate{Name: &name, Bio: &bio})
		require.NoError(t, err)
		assert.Equal(t, "Ana Maria", profile.Name)
		require.NotNil(t, profile.Bio)
		assert.Equal(t, bio, *profile.Bio)
		notifier.AssertExpectations(t)
	})

	t.Run("blank name", func(t *testing.T) {
		blank := " "
		_, err := svc.UpdateProfile(ctx, user.ID, models.ProfileUpdate{Name: &blank})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "name", verr.Field)
	})

	t.Run("self promotion is forbidden", func(t *testing.T) {
		admin := models.UserTypeAdmin
		_, err := svc.UpdateProfile(ctx, user.ID, models.ProfileUpdate{UserType: &admin})
		assert.ErrorIs(t, err, ErrUserTypeForbidden)
		assert.NotErrorIs(t, err, ErrForbidden)

		profile, err := svc.GetProfile(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, models.UserTypeOrdinary, profile.UserType)
	})

	t.Run("admin may change type", func(t *testing.T) {
		boss := testhelpers.CreateTestUser(t, db, "Chefe")
		require.NoError(t, db.Model(&models.Profile{}).Where("user_id = ?", boss.ID).
			Update("user_type", models.UserTypeAdmin).Error)
		notifier.On("NotifyProfileUpdated", mock.Anything, boss.ID).Return().Once()

		ordinary := models.UserTypeOrdinary
		profile, err := svc.UpdateProfile(ctx, boss.ID, models.ProfileUpdate{UserType: &ordinary})
		require.NoError(t, err)
		assert.Equal(t, models.UserTypeOrdinary, profile.UserType)
	})

	t.Run("unknown user", func(t *testing.T) {
		name := "Ghost"
		_, err := svc.UpdateProfile(ctx, "missing", models.ProfileUpdate{Name: &name})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}
