package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"dispatch/internal/domain"
)

// Headers set by the authenticating gateway in front of the service.
const (
	UserNameHeader  = "X-User-Name"
	UserEmailHeader = "X-User-Email"
	UserRoleHeader  = "X-User-Role"
)

const identityKey = "identity"

// IdentityMiddleware reads the caller identity from gateway headers and
// stores it on the context. Requests without an email pass through
// anonymously.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		email := strings.TrimSpace(c.GetHeader(UserEmailHeader))
		if email != "" {
			c.Set(identityKey, domain.Identity{
				Name:  strings.TrimSpace(c.GetHeader(UserNameHeader)),
				Email: email,
				Role:  domain.Role(strings.TrimSpace(c.GetHeader(UserRoleHeader))),
			})
		}
		c.Next()
	}
}

// IdentityFromContext returns the caller identity, if any.
func IdentityFromContext(c *gin.Context) (domain.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return domain.Identity{}, false
	}
	id, ok := v.(domain.Identity)
	return id, ok
}

// RequireRole rejects anonymous callers with 401 and callers of another role
// with 403.
func RequireRole(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "caller identity required"})
			return
		}
		if id.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "requires role " + string(role)})
			return
		}
		c.Next()
	}
}
