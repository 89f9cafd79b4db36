package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/recipebook/backend/internal/mocks"
	"github.com/recipebook/backend/internal/models"
	"github.com/recipebook/backend/internal/repository"
	"github.com/recipebook/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recipeFixture struct {
	db       *gorm.DB
	svc      *RecipeService
	images   *mocks.MockImageUploader
	notifier *mocks.MockNotifier
}

func newRecipeFixture(t *testing.T) *recipeFixture {
	t.Helper()
	db := testhelpers.SetupSQLiteDatabase(t)
	images := new(mocks.MockImageUploader)
	notifier := new(mocks.MockNotifier)
	svc := NewRecipeService(repository.NewRecipeRepository(db, nil), images, notifier, nil)
	return &recipeFixture{db: db, svc: svc, images: images, notifier: notifier}
}

func validInput() RecipeInput {
	return RecipeInput{
		Title:        "  Bolo de Cenoura ",
		Description:  "Bolo fofinho",
		Ingredients:  "3 cenouras\n\n  2 xícaras de farinha  \n",
		Instructions: "Bata tudo\nAsse",
		PrepTime:     20,
		CookTime:     40,
		Servings:     8,
		Difficulty:   models.DifficultyMedium,
		Category:     "Sobremesa",
	}
}

func TestSaveCreatesRecipe(t *testing.T) {
	f := newRecipeFixture(t)
	user := testhelpers.CreateTestUser(t, f.db, "Ana")
	f.notifier.On("NotifyRecipeCreated", mock.Anything, user.ID, "Bolo de Cenoura").Return()

	recipe, err := f.svc.Save(context.Background(), user.ID, "", validInput(), nil)
	require.NoError(t, err)

	assert.NotEmpty(t, recipe.ID)
	assert.Equal(t, "Bolo de Cenoura", recipe.Title)
	assert.Equal(t, models.JSONBStringArray{"3 cenouras", "2 xícaras de farinha"}, recipe.Ingredients)
	assert.Equal(t, models.JSONBStringArray{"Bata tudo", "Asse"}, recipe.Instructions)
	assert.Equal(t, user.ID, recipe.UserID)
	assert.Nil(t, recipe.ImageURL)
	f.notifier.AssertExpectations(t)
}

func TestSaveUploadsImage(t *testing.T) {
	f := newRecipeFixture(t)
	user := testhelpers.CreateTestUser(t, f.db, "Ana")
	url := "https://cdn.example.com/public/img.png"
	f.images.On("UploadRecipeImage", mock.Anything, user.ID, "png", mock.Anything, int64(3)).
		Return("public/img.png", url, nil)
	f.notifier.On("NotifyRecipeCreated", mock.Anything, user.ID, mock.Anything).Return()

	recipe, err := f.svc.Save(context.Background(), user.ID, "", validInput(),
		&ImageUpload{Ext: "png", Reader: bytes.NewReader([]byte("abc")), Size: 3})
	require.NoError(t, err)
	require.NotNil(t, recipe.ImageURL)
	assert.Equal(t, url, *recipe.ImageURL)
	f.images.AssertExpectations(t)
}

func TestSaveImageFailureAbortsSave(t *testing.T) {
	f := newRecipeFixture(t)
	user := testhelpers.CreateTestUser(t, f.db, "Ana")
	f.images.On("UploadRecipeImage", mock.Anything, user.ID, "png", mock.Anything, int64(1)).
		Return("", "", errors.New("bucket unavailable"))

	_, err := f.svc.Save(context.Background(), user.ID, "", validInput(),
		&ImageUpload{Ext: "png", Reader: bytes.NewReader([]byte("a")), Size: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Erro ao fazer upload da imagem")

	all, err := f.svc.Browse(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, all)
	f.notifier.AssertNotCalled(t, "NotifyRecipeCreated", mock.Anything, mock.Anything, mock.Anything)
}

func TestSaveValidation(t *testing.T) {
	f := newRecipeFixture(t)
	user := testhelpers.CreateTestUser(t, f.db, "Ana")

	tests := []struct {
		name   string
		mutate func(*RecipeInput)
		field  string
	}{
		{"blank title", func(in *RecipeInput) { in.Title = "   " }, "title"},
		{"blank description", func(in *RecipeInput) { in.Description = "" }, "description"},
		{"only blank ingredient lines", func(in *RecipeInput) { in.Ingredients = "\n \n" }, "ingredients"},
		{"no instructions", func(in *RecipeInput) { in.Instructions = "" }, "instructions"},
		{"no category", func(in *RecipeInput) { in.Category = "" }, "category"},
		{"negative prep time", func(in *RecipeInput) { in.PrepTime = -1 }, "prep_time"},
		{"zero servings", func(in *RecipeInput) { in.Servings = 0 }, "servings"},
		{"unknown difficulty", func(in *RecipeInput) { in.Difficulty = "Impossível" }, "difficulty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, err := f.svc.Save(context.Background(), user.ID, "", in, nil)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	_, err := f.svc.Save(context.Background(), "", "", validInput(), nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "user_id", verr.Field)
}

func TestSaveUpdatesOwnRecipe(t *testing.T) {
	f := newRecipeFixture(t)
	user := testhelpers.CreateTestUser(t, f.db, "Ana")
	existing := testhelpers.CreateTestRecipe(t, f.db, user.ID, "Pudim")
	f.notifier.On("NotifyRecipeUpdated", mock.Anything, user.ID, "Bolo de Cenoura").Return()

	updated, err := f.svc.Save(context.Background(), user.ID, existing.ID, validInput(), nil)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, updated.ID)
	assert.Equal(t, "Bolo de Cenoura", updated.Title)
	assert.Equal(t, 8, updated.Servings)
	f.notifier.AssertExpectations(t)
}

func TestSaveRejectsForeignRecipe(t *testing.T) {
	f := newRecipeFixture(t)
	owner := testhelpers.CreateTestUser(t, f.db, "Ana")
	other := testhelpers.CreateTestUser(t, f.db, "Bruno")
	existing := testhelpers.CreateTestRecipe(t, f.db, owner.ID, "Pudim")

	_, err := f.svc.Save(context.Background(), other.ID, existing.ID, validInput(), nil)
	assert.ErrorIs(t, err, ErrForbidden)

	stored, err := f.svc.GetRecipe(context.Background(), existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pudim", stored.Title)
}

func TestSaveUnknownRecipe(t *testing.T) {
	f := newRecipeFixture(t)
	user := testhelpers.CreateTestUser(t, f.db, "Ana")

	_, err := f.svc.Save(context.Background(), user.ID, "missing", validInput(), nil)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestBrowse(t *testing.T) {
	f := newRecipeFixture(t)
	user := testhelpers.CreateTestUser(t, f.db, "Ana")
	testhelpers.CreateTestRecipe(t, f.db, user.ID, "Bolo de Chocolate")
	testhelpers.CreateTestRecipe(t, f.db, user.ID, "Feijoada")

	all, err := f.svc.Browse(context.Background(), "  ")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	found, err := f.svc.Browse(context.Background(), "BOLO")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Bolo de Chocolate", found[0].Title)

	mine, err := f.svc.ListByOwner(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestDeleteChecksOwnership(t *testing.T) {
	f := newRecipeFixture(t)
	owner := testhelpers.CreateTestUser(t, f.db, "Ana")
	other := testhelpers.CreateTestUser(t, f.db, "Bruno")
	recipe := testhelpers.CreateTestRecipe(t, f.db, owner.ID, "Pudim")

	assert.ErrorIs(t, f.svc.Delete(context.Background(), other.ID, recipe.ID), ErrForbidden)
	require.NoError(t, f.svc.Delete(context.Background(), owner.ID, recipe.ID))

	_, err := f.svc.GetRecipe(context.Background(), recipe.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestToggleFavorite(t *testing.T) {
	f := newRecipeFixture(t)
	owner := testhelpers.CreateTestUser(t, f.db, "Ana")
	fan := testhelpers.CreateTestUser(t, f.db, "Bruno")
	recipe := testhelpers.CreateTestRecipe(t, f.db, owner.ID, "Pudim")
	f.notifier.On("NotifyRecipeFavorited", mock.Anything, fan.ID, "Pudim").Return().Once()
	ctx := context.Background()

	on, err := f.svc.ToggleFavorite(ctx, fan.ID, recipe.ID)
	require.NoError(t, err)
	assert.True(t, on)

	ids, err := f.svc.FavoriteIDs(ctx, fan.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{recipe.ID}, ids)

	favs, err := f.svc.FavoriteRecipes(ctx, fan.ID)
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, recipe.ID, favs[0].ID)

	on, err = f.svc.ToggleFavorite(ctx, fan.ID, recipe.ID)
	require.NoError(t, err)
	assert.False(t, on)

	is, err := f.svc.IsFavorite(ctx, fan.ID, recipe.ID)
	require.NoError(t, err)
	assert.False(t, is)
	f.notifier.AssertExpectations(t)
}

func TestFavoriteUnknownRecipe(t *testing.T) {
	f := newRecipeFixture(t)
	fan := testhelpers.CreateTestUser(t, f.db, "Bruno")

	err := f.svc.Favorite(context.Background(), fan.ID, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRecipeServiceWithStoreErrors(t *testing.T) {
	store := new(mocks.MockRecipeStore)
	svc := NewRecipeService(store, nil, nil, nil)
	boom := errors.New("connection refused")
	store.On("ListAll", mock.Anything).Return(nil, boom)
	store.On("IsFavorite", mock.Anything, "u1", "r1").Return(false, boom)

	_, err := svc.Browse(context.Background(), "")
	assert.ErrorIs(t, err, boom)

	_, err = svc.ToggleFavorite(context.Background(), "u1", "r1")
	assert.ErrorIs(t, err, boom)

	_, err = svc.Save(context.Background(), "u1", "", validInput(), &ImageUpload{Ext: "png"})
	assert.EqualError(t, err, "image uploads are not configured")
	store.AssertExpectations(t)
}
