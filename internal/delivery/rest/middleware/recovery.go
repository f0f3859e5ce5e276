package middleware

import (
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskapi/internal/delivery/rest/response"
	"taskapi/internal/domain"
)

// Recovery is a middleware that recovers from any panics
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Error("panic recovered",
			zap.Any("error", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.ByteString("stack", debug.Stack()),
		)

		response.Error(c, domain.ErrInternal)
		c.Abort()
	})
}
