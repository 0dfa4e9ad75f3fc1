package auth

import (
	"github.com/gin-gonic/gin"
)

// OptionalAuthMiddleware inspects for a token and sets the Identity if present and valid,
// but does not fail if the token is missing or invalid.
func OptionalAuthMiddleware(secret string, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, ok, err := authenticate(c, secret, users); err == nil && ok {
			setIdentity(c, id)
		}
		c.Next()
	}
}
