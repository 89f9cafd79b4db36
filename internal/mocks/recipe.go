// Package mocks provides testify mocks of the interfaces consumed by the
// service and API layers.
package mocks

import (
	"context"

	"github.com/recipebook/backend/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockRecipeStore is a mock implementation of the recipe repository
type MockRecipeStore struct {
	mock.Mock
}

func (m *MockRecipeStore) recipe(args mock.Arguments) (*models.Recipe, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recipe), args.Error(1)
}

func (m *MockRecipeStore) recipes(args mock.Arguments) ([]models.Recipe, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Recipe), args.Error(1)
}

func (m *MockRecipeStore) ListAll(ctx context.Context) ([]models.Recipe, error) {
	return m.recipes(m.Called(ctx))
}

func (m *MockRecipeStore) ListByOwner(ctx context.Context, userID string) ([]models.Recipe, error) {
	return m.recipes(m.Called(ctx, userID))
}

func (m *MockRecipeStore) GetByID(ctx context.Context, id string) (*models.Recipe, error) {
	return m.recipe(m.Called(ctx, id))
}

func (m *MockRecipeStore) Create(ctx context.Context, draft models.RecipeDraft) (*models.Recipe, error) {
	return m.recipe(m.Called(ctx, draft))
}

func (m *MockRecipeStore) Update(ctx context.Context, id string, update models.RecipeUpdate) (*models.Recipe, error) {
	return m.recipe(m.Called(ctx, id, update))
}

func (m *MockRecipeStore) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRecipeStore) Search(ctx context.Context, query string) ([]models.Recipe, error) {
	return m.recipes(m.Called(ctx, query))
}

func (m *MockRecipeStore) AddFavorite(ctx context.Context, userID, recipeID string) (*models.Favorite, error) {
	args := m.Called(ctx, userID, recipeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Favorite), args.Error(1)
}

func (m *MockRecipeStore) RemoveFavorite(ctx context.Context, userID, recipeID string) error {
	return m.Called(ctx, userID, recipeID).Error(0)
}

func (m *MockRecipeStore) ListFavoriteIDs(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockRecipeStore) ListFavoriteRecipes(ctx context.Context, userID string) ([]models.Recipe, error) {
	return m.recipes(m.Called(ctx, userID))
}

func (m *MockRecipeStore) IsFavorite(ctx context.Context, userID, recipeID string) (bool, error) {
	args := m.Called(ctx, userID, recipeID)
	return args.Bool(0), args.Error(1)
}
