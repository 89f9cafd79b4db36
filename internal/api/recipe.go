package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/recipebook/backend/internal/middleware"
	"github.com/recipebook/backend/internal/models"
	"github.com/recipebook/backend/internal/service"
)

// RecipeService is the recipe flow used by the handlers.
type RecipeService interface {
	Save(ctx context.Context, userID, recipeID string, in service.RecipeInput, img *service.ImageUpload) (*models.Recipe, error)
	Browse(ctx context.Context, query string) ([]models.Recipe, error)
	GetRecipe(ctx context.Context, id string) (*models.Recipe, error)
	ListByOwner(ctx context.Context, userID string) ([]models.Recipe, error)
	Delete(ctx context.Context, userID, recipeID string) error
	Favorite(ctx context.Context, userID, recipeID string) error
	Unfavorite(ctx context.Context, userID, recipeID string) error
	IsFavorite(ctx context.Context, userID, recipeID string) (bool, error)
	FavoriteIDs(ctx context.Context, userID string) ([]string, error)
	FavoriteRecipes(ctx context.Context, userID string) ([]models.Recipe, error)
}

const maxImageSize = 10 << 20

type RecipeHandler struct {
	recipes     RecipeService
	authorize   gin.HandlerFunc
	rateLimiter *middleware.RateLimiter
}

// NewRecipeHandler creates the recipe handler. rateLimiter may be nil.
func NewRecipeHandler(recipes RecipeService, authorize gin.HandlerFunc, rateLimiter *middleware.RateLimiter) *RecipeHandler {
	return &RecipeHandler{recipes: recipes, authorize: authorize, rateLimiter: rateLimiter}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	writes := []gin.HandlerFunc{h.authorize}
	if h.rateLimiter != nil {
		writes = append(writes, h.rateLimiter.RateLimitMiddleware())
	}
	with := func(guards []gin.HandlerFunc, handler gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, guards...), handler)
	}

	recipes := router.Group("/recipes")
	{
		recipes.GET("", h.ListRecipes)
		recipes.GET("/:id", h.GetRecipe)
		recipes.POST("", with(writes, h.CreateRecipe)...)
		recipes.PUT("/:id", with(writes, h.UpdateRecipe)...)
		recipes.DELETE("/:id", h.authorize, h.DeleteRecipe)
		recipes.GET("/:id/favorite", h.authorize, h.IsFavorite)
		recipes.POST("/:id/favorite", h.authorize, h.FavoriteRecipe)
		recipes.DELETE("/:id/favorite", h.authorize, h.UnfavoriteRecipe)
	}

	router.GET("/users/:id/recipes", h.ListUserRecipes)

	favorites := router.Group("/favorites", h.authorize)
	{
		favorites.GET("", h.ListFavorites)
		favorites.GET("/ids", h.ListFavoriteIDs)
	}
}

// ListRecipes lists every recipe, or the matches of ?q=.
func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	recipes, err := h.recipes.Browse(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	recipe, err := h.recipes.GetRecipe(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipe": recipe})
}

func (h *RecipeHandler) ListUserRecipes(c *gin.Context) {
	recipes, err := h.recipes.ListByOwner(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	h.save(c, "", http.StatusCreated)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	h.save(c, c.Param("id"), http.StatusOK)
}

func (h *RecipeHandler) save(c *gin.Context, recipeID string, status int) {
	in, img, err := bindRecipe(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	if closer, ok := imageCloser(img); ok {
		defer closer.Close()
	}

	recipe, err := h.recipes.Save(c.Request.Context(), middleware.UserID(c), recipeID, in, img)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, gin.H{"recipe": recipe})
}

// bindRecipe reads the editor form from JSON, or from a multipart form with an
// optional "image" file.
func bindRecipe(c *gin.Context) (service.RecipeInput, *service.ImageUpload, error) {
	var in service.RecipeInput
	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		err := c.ShouldBindJSON(&in)
		return in, nil, err
	}

	if err := c.ShouldBind(&in); err != nil {
		return in, nil, err
	}
	img, err := formImage(c)
	if errors.Is(err, http.ErrMissingFile) {
		return in, nil, nil
	}
	return in, img, err
}

func formImage(c *gin.Context) (*service.ImageUpload, error) {
	header, err := c.FormFile("image")
	if err != nil {
		return nil, err
	}
	if header.Size > maxImageSize {
		return nil, errors.New("image is too large")
	}
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	return &service.ImageUpload{
		Ext:    strings.ToLower(strings.TrimPrefix(filepath.Ext(header.Filename), ".")),
		Reader: file,
		Size:   header.Size,
	}, nil
}

func imageCloser(img *service.ImageUpload) (io.Closer, bool) {
	if img == nil {
		return nil, false
	}
	closer, ok := img.Reader.(io.Closer)
	return closer, ok
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	if err := h.recipes.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) IsFavorite(c *gin.Context) {
	favorite, err := h.recipes.IsFavorite(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorite": favorite})
}

func (h *RecipeHandler) FavoriteRecipe(c *gin.Context) {
	if err := h.recipes.Favorite(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorite": true})
}

func (h *RecipeHandler) UnfavoriteRecipe(c *gin.Context) {
	if err := h.recipes.Unfavorite(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorite": false})
}

func (h *RecipeHandler) ListFavorites(c *gin.Context) {
	recipes, err := h.recipes.FavoriteRecipes(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

func (h *RecipeHandler) ListFavoriteIDs(c *gin.Context) {
	ids, err := h.recipes.FavoriteIDs(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ids": ids})
}
