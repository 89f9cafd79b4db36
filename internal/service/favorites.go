package service

import (
	"context"

	"github.com/recipebook/backend/internal/models"
	"go.uber.org/zap"
)

// Favorite marks a recipe as favorite and notifies the user.
func (s *RecipeService) Favorite(ctx context.Context, userID, recipeID string) error {
	recipe, err := s.recipes.GetByID(ctx, recipeID)
	if err != nil {
		return err
	}
	if _, err := s.recipes.AddFavorite(ctx, userID, recipeID); err != nil {
		return err
	}
	s.log.Debug("recipe favorited", zap.String("recipe_id", recipeID), zap.String("user_id", userID))
	if s.notifier != nil {
		s.notifier.NotifyRecipeFavorited(ctx, userID, recipe.Title)
	}
	return nil
}

func (s *RecipeService) Unfavorite(ctx context.Context, userID, recipeID string) error {
	return s.recipes.RemoveFavorite(ctx, userID, recipeID)
}

// ToggleFavorite flips the favorite state and returns the new state.
func (s *RecipeService) ToggleFavorite(ctx context.Context, userID, recipeID string) (bool, error) {
	favorited, err := s.recipes.IsFavorite(ctx, userID, recipeID)
	if err != nil {
		return false, err
	}
	if favorited {
		return false, s.Unfavorite(ctx, userID, recipeID)
	}
	return true, s.Favorite(ctx, userID, recipeID)
}

func (s *RecipeService) IsFavorite(ctx context.Context, userID, recipeID string) (bool, error) {
	return s.recipes.IsFavorite(ctx, userID, recipeID)
}

func (s *RecipeService) FavoriteIDs(ctx context.Context, userID string) ([]string, error) {
	return s.recipes.ListFavoriteIDs(ctx, userID)
}

func (s *RecipeService) FavoriteRecipes(ctx context.Context, userID string) ([]models.Recipe, error) {
	return s.recipes.ListFavoriteRecipes(ctx, userID)
}
