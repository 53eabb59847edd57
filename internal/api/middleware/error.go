package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"netbilling-sim/internal/api/models"

	"github.com/gin-gonic/gin"
)

// ErrorHandler middleware recovers from panics and answers with INTERNAL_ERROR
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("panic while serving request",
			slog.String("path", c.Request.URL.Path),
			slog.String("panic", fmt.Sprint(recovered)))

		message := "An unexpected error occurred"
		if s, ok := recovered.(string); ok {
			message = s
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    models.CodeInternalError,
				Message: message,
			},
		})
	})
}
