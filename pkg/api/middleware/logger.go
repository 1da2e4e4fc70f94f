package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger returns a middleware that logs requests.
func Logger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		log.Info("request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"identity", c.GetString(IdentityKey),
			"latency", time.Since(start),
		)
	}
}
