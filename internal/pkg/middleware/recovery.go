package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/roomdesk/service-booking/internal/pkg/response"
)

// RecoveryMiddleware turns panics into a 500 response and logs the stack.
func RecoveryMiddleware(log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error("panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", GetRequestID(c)),
			zap.ByteString("stack", debug.Stack()),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, response.Body{
			Success: false,
			Error:   &response.ErrorBody{Code: "INTERNAL", Message: "internal server error"},
		})
	})
}
