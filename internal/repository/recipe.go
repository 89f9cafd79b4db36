// Package repository translates recipe, favorite and profile operations into
// database queries and validates every row it hands back.
package repository

import (
	"context"
	"strings"
	"time"

	"github.com/recipebook/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecipeRepository reads and writes recipes and favorites. It performs no
// ownership checks.
type RecipeRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewRecipeRepository creates a new RecipeRepository
func NewRecipeRepository(db *gorm.DB, log *zap.Logger) *RecipeRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &RecipeRepository{db: db, log: log}
}

func (r *RecipeRepository) recipes(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Recipe{}).Preload("Owner")
}

// ListAll returns every recipe, newest first.
func (r *RecipeRepository) ListAll(ctx context.Context) ([]models.Recipe, error) {
	var rows []models.Recipe
	if err := r.recipes(ctx).Order("recipes.created_at DESC").Find(&rows).Error; err != nil {
		return nil, wrap("list recipes", err)
	}
	return r.valid("list recipes", rows), nil
}

// ListByOwner returns the recipes of one user, newest first.
func (r *RecipeRepository) ListByOwner(ctx context.Context, userID string) ([]models.Recipe, error) {
	var rows []models.Recipe
	err := r.recipes(ctx).
		Where("recipes.user_id = ?", userID).
		Order("recipes.created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, wrap("list recipes by owner", err)
	}
	return r.valid("list recipes by owner", rows), nil
}

// GetByID returns ErrNotFound when no recipe has the given id.
func (r *RecipeRepository) GetByID(ctx context.Context, id string) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := r.recipes(ctx).Where("recipes.id = ?", id).Take(&recipe).Error; err != nil {
		return nil, wrap("get recipe", err)
	}
	if err := recipe.Validate(); err != nil {
		return nil, err
	}
	return &recipe, nil
}

// Create inserts a recipe and returns the persisted row.
func (r *RecipeRepository) Create(ctx context.Context, draft models.RecipeDraft) (*models.Recipe, error) {
	if draft.UserID == "" {
		return nil, ErrMissingOwner
	}

	recipe := draft.Recipe()
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(recipe).Error; err != nil {
		return nil, wrap("create recipe", err)
	}
	return r.GetByID(ctx, recipe.ID)
}

// Update applies the set fields, stamps updated_at and returns the persisted row.
func (r *RecipeRepository) Update(ctx context.Context, id string, update models.RecipeUpdate) (*models.Recipe, error) {
	cols := update.Columns()
	cols["updated_at"] = time.Now()

	res := r.db.WithContext(ctx).Model(&models.Recipe{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return nil, wrap("update recipe", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete removes a recipe and its favorites. Deleting a missing id succeeds.
func (r *RecipeRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Recipe{}).Error
	})
	return wrap("delete recipe", err)
}

// Search matches title, description and category case-insensitively.
// A blank query matches every recipe.
func (r *RecipeRepository) Search(ctx context.Context, query string) ([]models.Recipe, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return r.ListAll(ctx)
	}
	if r.db.Dialector.Name() != "postgres" {
		return r.searchInMemory(ctx, query)
	}

	pattern := "%" + escapeLike(query) + "%"
	var rows []models.Recipe
	err := r.recipes(ctx).
		Where(`recipes.title ILIKE ? ESCAPE '\' OR recipes.description ILIKE ? ESCAPE '\' OR recipes.category ILIKE ? ESCAPE '\'`,
			pattern, pattern, pattern).
		Order("recipes.created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, wrap("search recipes", err)
	}
	return r.valid("search recipes", rows), nil
}

// searchInMemory filters every recipe with Unicode case folding. SQLite's
// LOWER and LIKE only fold ASCII letters.
func (r *RecipeRepository) searchInMemory(ctx context.Context, query string) ([]models.Recipe, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(query)
	matches := make([]models.Recipe, 0, len(all))
	for _, recipe := range all {
		if containsFolded(recipe.Title, needle) ||
			containsFolded(recipe.Description, needle) ||
			containsFolded(recipe.Category, needle) {
			matches = append(matches, recipe)
		}
	}
	return matches, nil
}

func containsFolded(s, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(s), lowerNeedle)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// AddFavorite marks a recipe as favorite. Adding an existing favorite returns
// the row already stored.
func (r *RecipeRepository) AddFavorite(ctx context.Context, userID, recipeID string) (*models.Favorite, error) {
	if userID == "" {
		return nil, ErrMissingOwner
	}

	db := r.db.WithContext(ctx)
	fav := &models.Favorite{UserID: userID, RecipeID: recipeID}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "recipe_id"}},
		DoNothing: true,
	}).Create(fav).Error
	if err != nil {
		return nil, wrap("add favorite", err)
	}

	var stored models.Favorite
	if err := db.Where("user_id = ? AND recipe_id = ?", userID, recipeID).Take(&stored).Error; err != nil {
		return nil, wrap("add favorite", err)
	}
	return &stored, nil
}

func (r *RecipeRepository) RemoveFavorite(ctx context.Context, userID, recipeID string) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&models.Favorite{}).Error
	return wrap("remove favorite", err)
}

// ListFavoriteIDs returns the ids of the recipes a user favorited, newest first.
func (r *RecipeRepository) ListFavoriteIDs(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	err := r.db.WithContext(ctx).Model(&models.Favorite{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Pluck("recipe_id", &ids).Error
	if err != nil {
		return nil, wrap("list favorite ids", err)
	}
	return ids, nil
}

// ListFavoriteRecipes returns the favorited recipes that still exist, most
// recently favorited first.
func (r *RecipeRepository) ListFavoriteRecipes(ctx context.Context, userID string) ([]models.Recipe, error) {
	var rows []models.Recipe
	err := r.recipes(ctx).
		Select("recipes.*").
		Joins("JOIN favorites ON favorites.recipe_id = recipes.id").
		Where("favorites.user_id = ?", userID).
		Order("favorites.created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, wrap("list favorite recipes", err)
	}
	return r.valid("list favorite recipes", rows), nil
}

// IsFavorite reports whether the pair exists; a missing row is false, not an error.
func (r *RecipeRepository) IsFavorite(ctx context.Context, userID, recipeID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Favorite{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error
	if err != nil {
		return false, wrap("is favorite", err)
	}
	return count > 0, nil
}

// valid drops rows that fail schema validation.
func (r *RecipeRepository) valid(op string, rows []models.Recipe) []models.Recipe {
	out := make([]models.Recipe, 0, len(rows))
	for i := range rows {
		if err := rows[i].Validate(); err != nil {
			r.log.Warn("dropping malformed recipe row", zap.String("op", op), zap.Error(err))
			continue
		}
		out = append(out, rows[i])
	}
	return out
}
