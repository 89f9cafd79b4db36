// Package testhelpers provides databases and fixtures for package tests.
package testhelpers

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/recipebook/backend/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plain-text password of users made by CreateTestUser.
const TestPassword = "testpassword123"

// CreateTestUser inserts an auth identity. The profile row is created by the
// database trigger.
func CreateTestUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := &models.User{
		Email:        fmt.Sprintf("user+%s@example.com", uuid.NewString()[:8]),
		Name:         name,
		PasswordHash: string(hash),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// RecipeDraft returns a valid draft owned by userID.
func RecipeDraft(userID, title string) models.RecipeDraft {
	return models.RecipeDraft{
		Title:        title,
		Description:  "Uma receita de teste",
		Ingredients:  []string{"2 ovos", "1 xícara de farinha"},
		Instructions: []string{"Misture tudo", "Asse por 30 minutos"},
		UserID:       userID,
		PrepTime:     10,
		CookTime:     30,
		Servings:     4,
		Difficulty:   models.DifficultyEasy,
		Category:     "Sobremesa",
	}
}

// CreateTestRecipe inserts a recipe owned by userID.
func CreateTestRecipe(t *testing.T, db *gorm.DB, userID, title string) *models.Recipe {
	t.Helper()

	recipe := RecipeDraft(userID, title).Recipe()
	if err := db.Omit("Owner").Create(recipe).Error; err != nil {
		t.Fatalf("failed to create test recipe: %v", err)
	}
	return recipe
}
