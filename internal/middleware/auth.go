package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/apperr"
	"storefront/internal/auth"
)

const identityKey = "identity"

// TokenParser turns a bearer token into an identity.
type TokenParser interface {
	Parse(raw string) (*auth.Identity, error)
}

// Identify reads an optional bearer token. Requests without a token continue
// anonymously; a malformed or invalid token is rejected.
func Identify(tokens TokenParser, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if raw == "" {
			c.Next()
			return
		}

		parts := strings.Split(raw, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			logger.Debug("invalid authorization header format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		identity, err := tokens.Parse(parts[1])
		if err != nil {
			logger.Debug("token validation failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(identityKey, identity)
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), identity))
		c.Next()
	}
}

// IdentityFrom returns the identity set by Identify, or nil for anonymous requests.
func IdentityFrom(c *gin.Context) *auth.Identity {
	if v, ok := c.Get(identityKey); ok {
		if identity, ok := v.(*auth.Identity); ok {
			return identity
		}
	}
	return nil
}

// RequireUser rejects anonymous requests.
func RequireUser() gin.HandlerFunc {
	return gate(auth.RequireUser)
}

// RequireAdmin rejects requests that are not from an admin.
func RequireAdmin() gin.HandlerFunc {
	return gate(auth.RequireAdmin)
}

func gate(check func(*auth.Identity) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := check(IdentityFrom(c)); err != nil {
			status := http.StatusUnauthorized
			if apperr.KindOf(err) == apperr.KindForbidden {
				status = http.StatusForbidden
			}
			c.AbortWithStatusJSON(status, gin.H{"error": apperr.Message(err)})
			return
		}
		c.Next()
	}
}
