package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/recipebook/backend/internal/logging"
	"go.uber.org/zap"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// RequestLogger attaches a request-scoped logger to the request context and
// logs every completed request.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	log = logging.OrNop(log)
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)

		reqLog := log.With(zap.String("request_id", requestID))
		c.Request = c.Request.WithContext(logging.WithContext(c.Request.Context(), reqLog))

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		l := logging.FromContext(c.Request.Context(), reqLog)
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			l.Error("request failed", fields...)
		case status >= http.StatusBadRequest:
			l.Warn("request rejected", fields...)
		default:
			l.Info("request completed", fields...)
		}
	}
}

// ErrorHandler recovers panics and answers them with a JSON 500.
func ErrorHandler(log *zap.Logger) gin.HandlerFunc {
	log = logging.OrNop(log)
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logging.FromContext(c.Request.Context(), log).Error("panic while handling request",
					zap.Any("panic", err),
					zap.Stack("stack"))
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
			}
		}()
		c.Next()
	}
}
