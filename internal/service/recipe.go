// Package service implements the recipe flows used by the HTTP API: saving
// from the editor, browsing, favorites and ownership-checked changes.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/recipebook/backend/internal/models"
	"go.uber.org/zap"
)

// ErrForbidden is returned when a user changes a recipe they do not own.
var ErrForbidden = errors.New("you can only modify your own recipes")

// ErrUserTypeForbidden is returned when a non-administrator changes a user type.
var ErrUserTypeForbidden = errors.New("only administrators can change a user type")

// ValidationError reports invalid editor input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

const msgRequiredFields = "Por favor, preencha todos os campos obrigatórios."

// RecipeStore is the recipe repository.
type RecipeStore interface {
	ListAll(ctx context.Context) ([]models.Recipe, error)
	ListByOwner(ctx context.Context, userID string) ([]models.Recipe, error)
	GetByID(ctx context.Context, id string) (*models.Recipe, error)
	Create(ctx context.Context, draft models.RecipeDraft) (*models.Recipe, error)
	Update(ctx context.Context, id string, update models.RecipeUpdate) (*models.Recipe, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query string) ([]models.Recipe, error)
	AddFavorite(ctx context.Context, userID, recipeID string) (*models.Favorite, error)
	RemoveFavorite(ctx context.Context, userID, recipeID string) error
	ListFavoriteIDs(ctx context.Context, userID string) ([]string, error)
	ListFavoriteRecipes(ctx context.Context, userID string) ([]models.Recipe, error)
	IsFavorite(ctx context.Context, userID, recipeID string) (bool, error)
}

// ImageUploader stores recipe images.
type ImageUploader interface {
	UploadRecipeImage(ctx context.Context, userID, fileExt string, r io.Reader, size int64) (path, url string, err error)
}

// RecipeNotifier receives best-effort notifications about recipe changes.
type RecipeNotifier interface {
	NotifyRecipeCreated(ctx context.Context, userID, recipeName string)
	NotifyRecipeUpdated(ctx context.Context, userID, recipeName string)
	NotifyRecipeFavorited(ctx context.Context, userID, recipeName string)
}

// RecipeInput is the editor form. Ingredients and Instructions hold one
// entry per line.
type RecipeInput struct {
	Title        string            `json:"title" form:"title"`
	Description  string            `json:"description" form:"description"`
	Ingredients  string            `json:"ingredients" form:"ingredients"`
	Instructions string            `json:"instructions" form:"instructions"`
	PrepTime     int               `json:"prep_time" form:"prep_time"`
	CookTime     int               `json:"cook_time" form:"cook_time"`
	Servings     int               `json:"servings" form:"servings"`
	Difficulty   models.Difficulty `json:"difficulty" form:"difficulty"`
	Category     string            `json:"category" form:"category"`
	ImageURL     *string           `json:"image_url" form:"image_url"`
}

// ImageUpload is an image picked in the editor.
type ImageUpload struct {
	Ext    string
	Reader io.Reader
	Size   int64
}

// RecipeService handles recipe operations
type RecipeService struct {
	recipes  RecipeStore
	images   ImageUploader
	notifier RecipeNotifier
	log      *zap.Logger
}

// NewRecipeService creates a new RecipeService instance. images and notifier
// may be nil.
func NewRecipeService(recipes RecipeStore, images ImageUploader, notifier RecipeNotifier, log *zap.Logger) *RecipeService {
	if log == nil {
		log = zap.NewNop()
	}
	return &RecipeService{recipes: recipes, images: images, notifier: notifier, log: log}
}

// Save creates a recipe, or updates recipeID when it is set. The image, when
// given, is uploaded first and replaces the recipe's image URL.
func (s *RecipeService) Save(ctx context.Context, userID, recipeID string, in RecipeInput, img *ImageUpload) (*models.Recipe, error) {
	if userID == "" {
		return nil, &ValidationError{Field: "user_id", Message: "Você precisa estar logado para criar uma receita."}
	}
	fields, err := parseInput(in)
	if err != nil {
		return nil, err
	}

	if recipeID != "" {
		if err := s.checkOwner(ctx, userID, recipeID); err != nil {
			return nil, err
		}
	}

	if img != nil {
		if s.images == nil {
			return nil, errors.New("image uploads are not configured")
		}
		_, url, err := s.images.UploadRecipeImage(ctx, userID, img.Ext, img.Reader, img.Size)
		if err != nil {
			return nil, fmt.Errorf("Erro ao fazer upload da imagem: %w", err)
		}
		fields.ImageURL = &url
	}

	if recipeID != "" {
		recipe, err := s.recipes.Update(ctx, recipeID, models.RecipeUpdate{
			Title:        &fields.Title,
			Description:  &fields.Description,
			Ingredients:  fields.Ingredients,
			Instructions: fields.Instructions,
			ImageURL:     fields.ImageURL,
			PrepTime:     &fields.PrepTime,
			CookTime:     &fields.CookTime,
			Servings:     &fields.Servings,
			Difficulty:   &fields.Difficulty,
			Category:     &fields.Category,
		})
		if err != nil {
			return nil, err
		}
		s.log.Info("recipe updated", zap.String("recipe_id", recipe.ID), zap.String("user_id", userID))
		if s.notifier != nil {
			s.notifier.NotifyRecipeUpdated(ctx, userID, recipe.Title)
		}
		return recipe, nil
	}

	fields.UserID = userID
	recipe, err := s.recipes.Create(ctx, fields)
	if err != nil {
		return nil, err
	}
	s.log.Info("recipe created", zap.String("recipe_id", recipe.ID), zap.String("user_id", userID))
	if s.notifier != nil {
		s.notifier.NotifyRecipeCreated(ctx, userID, recipe.Title)
	}
	return recipe, nil
}

// parseInput trims the form, splits the multi-line fields and checks the
// required values.
func parseInput(in RecipeInput) (models.RecipeDraft, error) {
	d := models.RecipeDraft{
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Ingredients:  splitLines(in.Ingredients),
		Instructions: splitLines(in.Instructions),
		ImageURL:     in.ImageURL,
		PrepTime:     in.PrepTime,
		CookTime:     in.CookTime,
		Servings:     in.Servings,
		Difficulty:   in.Difficulty,
		Category:     strings.TrimSpace(in.Category),
	}

	switch {
	case d.Title == "":
		return d, &ValidationError{Field: "title", Message: msgRequiredFields}
	case d.Description == "":
		return d, &ValidationError{Field: "description", Message: msgRequiredFields}
	case len(d.Ingredients) == 0:
		return d, &ValidationError{Field: "ingredients", Message: msgRequiredFields}
	case len(d.Instructions) == 0:
		return d, &ValidationError{Field: "instructions", Message: msgRequiredFields}
	case d.Category == "":
		return d, &ValidationError{Field: "category", Message: msgRequiredFields}
	case d.PrepTime < 0:
		return d, &ValidationError{Field: "prep_time", Message: "O tempo de preparo não pode ser negativo."}
	case d.CookTime < 0:
		return d, &ValidationError{Field: "cook_time", Message: "O tempo de cozimento não pode ser negativo."}
	case d.Servings < 1:
		return d, &ValidationError{Field: "servings", Message: "A receita deve servir pelo menos 1 porção."}
	case !d.Difficulty.Valid():
		return d, &ValidationError{Field: "difficulty", Message: "Dificuldade inválida."}
	}
	return d, nil
}

func splitLines(text string) []string {
	lines := []string{}
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Browse lists every recipe for a blank query and searches otherwise.
func (s *RecipeService) Browse(ctx context.Context, query string) ([]models.Recipe, error) {
	if strings.TrimSpace(query) == "" {
		return s.recipes.ListAll(ctx)
	}
	return s.recipes.Search(ctx, query)
}

// GetRecipe retrieves a recipe by ID
func (s *RecipeService) GetRecipe(ctx context.Context, id string) (*models.Recipe, error) {
	return s.recipes.GetByID(ctx, id)
}

// ListByOwner returns the recipes of one user.
func (s *RecipeService) ListByOwner(ctx context.Context, userID string) ([]models.Recipe, error) {
	return s.recipes.ListByOwner(ctx, userID)
}

// Delete removes a recipe owned by userID.
func (s *RecipeService) Delete(ctx context.Context, userID, recipeID string) error {
	if err := s.checkOwner(ctx, userID, recipeID); err != nil {
		return err
	}
	if err := s.recipes.Delete(ctx, recipeID); err != nil {
		return err
	}
	s.log.Info("recipe deleted", zap.String("recipe_id", recipeID), zap.String("user_id", userID))
	return nil
}

func (s *RecipeService) checkOwner(ctx context.Context, userID, recipeID string) error {
	recipe, err := s.recipes.GetByID(ctx, recipeID)
	if err != nil {
		return err
	}
	if recipe.UserID != userID {
		s.log.Warn("rejected change to foreign recipe",
			zap.String("recipe_id", recipeID),
			zap.String("user_id", userID))
		return ErrForbidden
	}
	return nil
}
