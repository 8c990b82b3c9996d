package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type contextKey string

const identityContextKey contextKey = "depotIdentity"

type tokenValidator interface {
	ValidateAccessToken(token string) (UserClaims, error)
}

// AuthMiddleware validates bearer tokens and injects the authenticated identity.
func AuthMiddleware(service tokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := extractBearerToken(authHeader)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		claims, err := service.ValidateAccessToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(string(identityContextKey), claims.Identity())

		c.Next()
	}
}

// RequireAdmin rejects requests whose identity does not carry the admin role.
// It must run after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if !identity.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}
		c.Next()
	}
}

// CurrentIdentity extracts the authenticated identity from the context.
func CurrentIdentity(c *gin.Context) (Identity, bool) {
	value, exists := c.Get(string(identityContextKey))
	if !exists {
		return Identity{}, false
	}
	identity, ok := value.(Identity)
	if !ok || !identity.Authenticated() {
		return Identity{}, false
	}
	return identity, true
}

// RequireUser fetches the authenticated identity or reports false.
func RequireUser(c *gin.Context) (Identity, bool) {
	return CurrentIdentity(c)
}

// WithIdentity stores an identity on the context; used by tests and
// alternative identity providers.
func WithIdentity(c *gin.Context, identity Identity) {
	c.Set(string(identityContextKey), identity)
}

func extractBearerToken(header string) string {
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
