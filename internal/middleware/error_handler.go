package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"event_chat/pkg/errors"
	"event_chat/pkg/logger"
)

// ErrorHandler renders the last error pushed with c.Error. Application
// errors keep their message; anything else is logged and hidden.
func ErrorHandler(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		if appErr, ok := errors.AsAppError(err); ok {
			c.JSON(appErr.Status(), gin.H{
				"success": false,
				"error":   appErr.Message,
				"code":    appErr.Code,
			})
			return
		}

		log.Error("Unhandled request error",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Internal server error",
			"code":    errors.CodeInternal,
		})
	}
}
