package repository

import (
	"context"
	"testing"
	"time"

	"github.com/recipebook/backend/internal/models"
	"github.com/recipebook/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupRecipes(t *testing.T) (*RecipeRepository, *gorm.DB, *models.User) {
	db := testhelpers.SetupSQLiteDatabase(t)
	user := testhelpers.CreateTestUser(t, db, "Chef")
	return NewRecipeRepository(db, nil), db, user
}

func backdate(t *testing.T, db *gorm.DB, id string, ago time.Duration) {
	t.Helper()
	require.NoError(t, db.Model(&models.Recipe{}).Where("id = ?", id).
		UpdateColumn("created_at", time.Now().Add(-ago)).Error)
}

func TestCreateThenGetByID(t *testing.T) {
	repo, _, user := setupRecipes(t)
	ctx := context.Background()

	draft := testhelpers.RecipeDraft(user.ID, "Bolo de cenoura")
	img := "https://cdn.example.com/public/bolo.jpg"
	draft.ImageURL = &img

	created, err := repo.Create(ctx, draft)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.False(t, created.UpdatedAt.IsZero())

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, draft.Title, got.Title)
	assert.Equal(t, draft.Description, got.Description)
	assert.Equal(t, models.JSONBStringArray(draft.Ingredients), got.Ingredients)
	assert.Equal(t, models.JSONBStringArray(draft.Instructions), got.Instructions)
	assert.Equal(t, draft.ImageURL, got.ImageURL)
	assert.Equal(t, draft.UserID, got.UserID)
	assert.Equal(t, draft.PrepTime, got.PrepTime)
	assert.Equal(t, draft.CookTime, got.CookTime)
	assert.Equal(t, draft.Servings, got.Servings)
	assert.Equal(t, draft.Difficulty, got.Difficulty)
	assert.Equal(t, draft.Category, got.Category)

	require.NotNil(t, got.Owner)
	assert.Equal(t, "Chef", got.Owner.Name)
}

func TestCreateRequiresOwner(t *testing.T) {
	repo, _, _ := setupRecipes(t)

	_, err := repo.Create(context.Background(), testhelpers.RecipeDraft("", "Sem dono"))
	assert.ErrorIs(t, err, ErrMissingOwner)
}

func TestGetByIDNotFound(t *testing.T) {
	repo, _, _ := setupRecipes(t)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteThenGetByID(t *testing.T) {
	repo, db, user := setupRecipes(t)
	ctx := context.Background()
	recipe := testhelpers.CreateTestRecipe(t, db, user.ID, "Pudim")
	_, err := repo.AddFavorite(ctx, user.ID, recipe.ID)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, recipe.ID))

	_, err = repo.GetByID(ctx, recipe.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	ids, err := repo.ListFavoriteIDs(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	// Deleting again is still a success.
	assert.NoError(t, repo.Delete(ctx, recipe.ID))
}

func TestUpdateChangesOnlyGivenFields(t *testing.T) {
	repo, db, user := setupRecipes(t)
	ctx := context.Background()
	recipe := testhelpers.CreateTestRecipe(t, db, user.ID, "Pão")
	before, err := repo.GetByID(ctx, recipe.ID)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	title := "X"
	after, err := repo.Update(ctx, recipe.ID, models.RecipeUpdate{Title: &title})
	require.NoError(t, err)

	assert.Equal(t, "X", after.Title)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))

	after.Title = before.Title
	after.UpdatedAt = before.UpdatedAt
	assert.Equal(t, before.Description, after.Description)
	assert.Equal(t, before.Ingredients, after.Ingredients)
	assert.Equal(t, before.Instructions, after.Instructions)
	assert.Equal(t, before.Servings, after.Servings)
	assert.Equal(t, before.Difficulty, after.Difficulty)
	assert.Equal(t, before.Category, after.Category)
	assert.True(t, before.CreatedAt.Equal(after.CreatedAt))
}

func TestUpdateMissingRecipe(t *testing.T) {
	repo, _, _ := setupRecipes(t)
	title := "X"

	_, err := repo.Update(context.Background(), "missing", models.RecipeUpdate{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAllNewestFirst(t *testing.T) {
	repo, db, user := setupRecipes(t)
	other := testhelpers.CreateTestUser(t, db, "Outra")

	oldest := testhelpers.CreateTestRecipe(t, db, user.ID, "Velha")
	middle := testhelpers.CreateTestRecipe(t, db, other.ID, "Média")
	newest := testhelpers.CreateTestRecipe(t, db, user.ID, "Nova")
	backdate(t, db, oldest.ID, 2*time.Hour)
	backdate(t, db, middle.ID, time.Hour)

	all, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{newest.ID, middle.ID, oldest.ID}, recipeIDs(all))
	assert.Equal(t, "Outra", all[1].Owner.Name)

	mine, err := repo.ListByOwner(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{newest.ID, oldest.ID}, recipeIDs(mine))
}

func TestListDropsMalformedRows(t *testing.T) {
	repo, db, user := setupRecipes(t)
	good := testhelpers.CreateTestRecipe(t, db, user.ID, "Boa")
	bad := testhelpers.CreateTestRecipe(t, db, user.ID, "Ruim")
	require.NoError(t, db.Model(&models.Recipe{}).Where("id = ?", bad.ID).
		UpdateColumn("difficulty", "Extreme").Error)

	all, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{good.ID}, recipeIDs(all))

	_, err = repo.GetByID(context.Background(), bad.ID)
	assert.ErrorIs(t, err, models.ErrMalformedRow)
}

func TestSearch(t *testing.T) {
	repo, db, user := setupRecipes(t)
	ctx := context.Background()

	byTitle := testhelpers.CreateTestRecipe(t, db, user.ID, "Bolo de Cenoura")
	byDescription := testhelpers.CreateTestRecipe(t, db, user.ID, "Torta")
	require.NoError(t, db.Model(&models.Recipe{}).Where("id = ?", byDescription.ID).
		UpdateColumn("description", "Melhor que BOLO").Error)
	byCategory := testhelpers.CreateTestRecipe(t, db, user.ID, "Fubá cremoso")
	require.NoError(t, db.Model(&models.Recipe{}).Where("id = ?", byCategory.ID).
		UpdateColumn("category", "Bolos").Error)
	testhelpers.CreateTestRecipe(t, db, user.ID, "Feijoada")
	backdate(t, db, byTitle.ID, time.Hour)

	found, err := repo.Search(ctx, "bolo")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{byTitle.ID, byDescription.ID, byCategory.ID}, recipeIDs(found))
	assert.Equal(t, byTitle.ID, found[len(found)-1].ID)

	none, err := repo.Search(ctx, "lasanha")
	require.NoError(t, err)
	assert.Empty(t, none)

	all, err := repo.Search(ctx, "   ")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestSearchFoldsNonASCII(t *testing.T) {
	repo, db, user := setupRecipes(t)
	ctx := context.Background()
	pao := testhelpers.CreateTestRecipe(t, db, user.ID, "PÃO DE QUEIJO")
	testhelpers.CreateTestRecipe(t, db, user.ID, "Feijoada")

	for _, query := range []string{"pão", "PÃO", "Pão de Queijo", "ão de"} {
		found, err := repo.Search(ctx, query)
		require.NoError(t, err, query)
		assert.Equal(t, []string{pao.ID}, recipeIDs(found), query)
	}
}

func TestSearchPostgres(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	user := testhelpers.CreateTestUser(t, db, "Chef")
	repo := NewRecipeRepository(db, nil)
	ctx := context.Background()

	pao := testhelpers.CreateTestRecipe(t, db, user.ID, "Pão de queijo")
	pct := testhelpers.CreateTestRecipe(t, db, user.ID, "Suco 100% fruta")

	found, err := repo.Search(ctx, "PÃO de")
	require.NoError(t, err)
	assert.Equal(t, []string{pao.ID}, recipeIDs(found))

	found, err = repo.Search(ctx, "pão")
	require.NoError(t, err)
	assert.Equal(t, []string{pao.ID}, recipeIDs(found))

	found, err = repo.Search(ctx, "%")
	require.NoError(t, err)
	assert.Equal(t, []string{pct.ID}, recipeIDs(found))
}

func TestSearchEscapesWildcards(t *testing.T) {
	repo, db, user := setupRecipes(t)
	testhelpers.CreateTestRecipe(t, db, user.ID, "Suco natural")
	pct := testhelpers.CreateTestRecipe(t, db, user.ID, "Suco 100% fruta")

	found, err := repo.Search(context.Background(), "100%")
	require.NoError(t, err)
	assert.Equal(t, []string{pct.ID}, recipeIDs(found))

	found, err = repo.Search(context.Background(), "%")
	require.NoError(t, err)
	assert.Equal(t, []string{pct.ID}, recipeIDs(found))
}

func TestFavorites(t *testing.T) {
	repo, db, user := setupRecipes(t)
	ctx := context.Background()
	first := testhelpers.CreateTestRecipe(t, db, user.ID, "Brigadeiro")
	second := testhelpers.CreateTestRecipe(t, db, user.ID, "Beijinho")

	ok, err := repo.IsFavorite(ctx, user.ID, first.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	fav, err := repo.AddFavorite(ctx, user.ID, first.ID)
	require.NoError(t, err)
	again, err := repo.AddFavorite(ctx, user.ID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, fav.ID, again.ID)

	ids, err := repo.ListFavoriteIDs(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID}, ids)

	ok, err = repo.IsFavorite(ctx, user.ID, first.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = repo.AddFavorite(ctx, user.ID, second.ID)
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Favorite{}).Where("recipe_id = ?", first.ID).
		UpdateColumn("created_at", time.Now().Add(-time.Hour)).Error)

	recipes, err := repo.ListFavoriteRecipes(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{second.ID, first.ID}, recipeIDs(recipes))
	require.NotNil(t, recipes[0].Owner)

	require.NoError(t, repo.RemoveFavorite(ctx, user.ID, first.ID))
	ids, err = repo.ListFavoriteIDs(ctx, user.ID)
	require.NoError(t, err)
	assert.NotContains(t, ids, first.ID)
}

func TestListFavoriteRecipesSkipsMissingRecipes(t *testing.T) {
	repo, db, user := setupRecipes(t)
	ctx := context.Background()
	kept := testhelpers.CreateTestRecipe(t, db, user.ID, "Quindim")

	_, err := repo.AddFavorite(ctx, user.ID, kept.ID)
	require.NoError(t, err)
	_, err = repo.AddFavorite(ctx, user.ID, "gone")
	require.NoError(t, err)

	recipes, err := repo.ListFavoriteRecipes(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{kept.ID}, recipeIDs(recipes))
}

func recipeIDs(recipes []models.Recipe) []string {
	ids := make([]string, len(recipes))
	for i, r := range recipes {
		ids[i] = r.ID
	}
	return ids
}
