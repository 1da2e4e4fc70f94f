package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/gin-gonic/gin"
)

// IdentityKey is the gin context key holding the caller identity.
const IdentityKey = "identity"

// Identity tags the request with the caller: a digest of the bearer token
// when one is sent, the client IP otherwise. Tokens are never logged.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(IdentityKey, identify(c))
		c.Next()
	}
}

func identify(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok && strings.TrimSpace(token) != "" {
		sum := sha256.Sum256([]byte(strings.TrimSpace(token)))
		return "token:" + hex.EncodeToString(sum[:8])
	}
	return "ip:" + c.ClientIP()
}
