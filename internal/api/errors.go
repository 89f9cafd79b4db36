package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/recipebook/backend/internal/auth"
	"github.com/recipebook/backend/internal/logging"
	"github.com/recipebook/backend/internal/repository"
	"github.com/recipebook/backend/internal/service"
	"github.com/recipebook/backend/internal/storage"
	"go.uber.org/zap"
)

const msgInvalidBody = "Invalid request body"

// respondError writes err as {"error": message} with the status matching its kind.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var (
		authErr  *auth.Error
		validErr *service.ValidationError
	)
	switch {
	case errors.As(err, &validErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validErr.Message, "field": validErr.Field})
	case errors.As(err, &authErr):
		c.JSON(authStatus(authErr), gin.H{"error": authErr.Message, "code": authErr.Code})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrUserTypeForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrUnsupportedImageType):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrObjectExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logging.FromContext(c.Request.Context(), nil).Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func authStatus(err *auth.Error) int {
	switch err.Code {
	case auth.CodeUserAlreadyExists:
		return http.StatusConflict
	case auth.CodeWeakPassword, auth.CodeInvalidEmail:
		return http.StatusBadRequest
	default:
		return http.StatusUnauthorized
	}
}

func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidBody})
}
