package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/movelearn/tutor/pkg/api/dto"
)

// Auth returns a middleware that validates the API key. An empty key
// disables the check.
func Auth(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}
		key := c.GetHeader("X-API-Key")
		if key == "" || key != apiKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Fail(http.StatusUnauthorized, "invalid api key"))
			return
		}
		c.Next()
	}
}
