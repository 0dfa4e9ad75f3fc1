package auth

import (
	"context"

	"gamerank/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// Identity is the authenticated caller of one request.
type Identity struct {
	Username string
	Role     models.Role
	IsStaff  bool
}

// IdentityOf builds the identity of an authenticated user.
func IdentityOf(u models.User) Identity {
	return Identity{Username: u.Username, Role: u.Role, IsStaff: u.IsStaff}
}

// CanManage reports staff or admin rights.
func (id Identity) CanManage() bool {
	return id.IsStaff || id.Role == models.RoleAdmin
}

// IsAdmin reports the admin role.
func (id Identity) IsAdmin() bool {
	return id.Role == models.RoleAdmin
}

type identityKey struct{}

// identityContextKey is the gin context key.
const identityContextKey = "identity"

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity stored by WithIdentity.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// Current returns the identity set by AuthMiddleware or OptionalAuthMiddleware.
func Current(c *gin.Context) (Identity, bool) {
	if v, ok := c.Get(identityContextKey); ok {
		if id, ok := v.(Identity); ok {
			return id, true
		}
	}
	return FromContext(c.Request.Context())
}

func setIdentity(c *gin.Context, id Identity) {
	c.Set(identityContextKey, id)
	c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))
}
