package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"gamerank/backend/internal/models"
	"gamerank/backend/internal/store"
	"gamerank/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// UserLookup loads the account named by a token subject.
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (models.User, error)
}

// authenticate resolves the bearer token of the request. A nil error with ok
// false means no token was sent.
func authenticate(c *gin.Context, secret string, users UserLookup) (Identity, bool, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return Identity{}, false, nil
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return Identity{}, false, errors.New("Authorization header must be 'Bearer <token>'")
	}

	username, err := jwt.ParseToken(secret, parts[1])
	if err != nil {
		return Identity{}, false, errors.New("Invalid or expired token")
	}

	user, err := users.GetByUsername(c.Request.Context(), username)
	if errors.Is(err, store.ErrNotFound) {
		return Identity{}, false, errors.New("User no longer exists")
	}
	if err != nil {
		return Identity{}, false, err
	}
	return IdentityOf(user), true, nil
}

// AuthMiddleware requires a valid bearer token for an existing user and
// stores the caller's Identity on the request.
func AuthMiddleware(secret string, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok, err := authenticate(c, secret, users)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}
		setIdentity(c, id)
		c.Next()
	}
}
