package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"feasibility-backend/internal/handler/httperr"

	"github.com/gin-gonic/gin"
)

// ErrorHandler writes the issue payload attached to the last public error
// when the handler aborted without writing a body.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}
		if err := c.Errors.ByType(gin.ErrorTypePublic).Last(); err != nil {
			if resp, ok := err.Meta.(httperr.Response); ok {
				c.JSON(resp.Status, resp)
				return
			}
		}

		slog.Error("unhandled request error",
			"request_id", GetRequestID(c),
			"path", c.Request.URL.Path,
			"errors", c.Errors.String())
		if status := c.Writer.Status(); status >= http.StatusBadRequest {
			c.Status(status)
			c.Writer.WriteHeaderNow()
			return
		}
		resp := httperr.Internal()
		c.JSON(resp.Status, resp)
	}
}

func CustomRecovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("recovered from panic",
					"error", err,
					"request_id", GetRequestID(c),
					"path", c.Request.URL.Path,
					"stack", string(debug.Stack()))

				resp := httperr.Internal()
				c.AbortWithStatusJSON(resp.Status, resp)
			}
		}()
		c.Next()
	}
}
