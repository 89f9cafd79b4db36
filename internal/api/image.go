package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/recipebook/backend/internal/middleware"
	"github.com/recipebook/backend/internal/service"
)

// ImageHandler uploads recipe images ahead of saving a recipe.
type ImageHandler struct {
	images      service.ImageUploader
	authorize   gin.HandlerFunc
	rateLimiter *middleware.RateLimiter
}

// NewImageHandler creates a new image handler. rateLimiter may be nil.
func NewImageHandler(images service.ImageUploader, authorize gin.HandlerFunc, rateLimiter *middleware.RateLimiter) *ImageHandler {
	return &ImageHandler{images: images, authorize: authorize, rateLimiter: rateLimiter}
}

func (h *ImageHandler) RegisterRoutes(router *gin.RouterGroup) {
	handlers := []gin.HandlerFunc{h.authorize}
	if h.rateLimiter != nil {
		handlers = append(handlers, h.rateLimiter.RateLimitMiddleware())
	}
	router.POST("/images", append(handlers, h.UploadImage)...)
}

// UploadImage stores the multipart "image" file and returns its path and public URL.
func (h *ImageHandler) UploadImage(c *gin.Context) {
	img, err := formImage(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	if closer, ok := imageCloser(img); ok {
		defer closer.Close()
	}

	path, url, err := h.images.UploadRecipeImage(c.Request.Context(), middleware.UserID(c), img.Ext, img.Reader, img.Size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"path": path, "url": url})
}
