package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/recipebook/backend/internal/middleware"
	"github.com/recipebook/backend/internal/models"
)

// ProfileService reads and edits the caller's profile.
type ProfileService interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID string, update models.ProfileUpdate) (*models.Profile, error)
}

type ProfileHandler struct {
	profiles  ProfileService
	authorize gin.HandlerFunc
}

func NewProfileHandler(profiles ProfileService, authorize gin.HandlerFunc) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, authorize: authorize}
}

func (h *ProfileHandler) RegisterRoutes(router *gin.RouterGroup) {
	profile := router.Group("/profile", h.authorize)
	{
		profile.GET("", h.GetProfile)
		profile.PUT("", h.UpdateProfile)
	}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profile, err := h.profiles.GetProfile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var update models.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		badRequest(c, err)
		return
	}

	profile, err := h.profiles.UpdateProfile(c.Request.Context(), middleware.UserID(c), update)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}
