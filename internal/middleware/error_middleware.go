package middleware

import (
	"runtime"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"todo/internal/apperror"
	"todo/internal/response"
)

// ErrorHandler renders the last error attached to the context as the JSON
// envelope. Handlers only call c.Error and return.
func ErrorHandler(logger *zap.Logger, debugMode bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status, body := response.FromError(err, debugMode)
		if status >= 500 {
			logger.Error("request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", RequestID(c)),
				zap.Error(err),
			)
		}
		c.AbortWithStatusJSON(status, body)
	}
}

// Recovery turns a panic into an unclassified error carrying the panic site
// and stack, rendered by ErrorHandler.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				_, file, line, _ := runtime.Caller(2)
				_ = c.Error(&apperror.PanicError{
					Value: rec,
					File:  file,
					Line:  line,
					Stack: string(debug.Stack()),
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// NoRoute reports unknown routes in the envelope format.
func NoRoute(c *gin.Context) {
	_ = c.Error(apperror.RouteNotFound())
}
