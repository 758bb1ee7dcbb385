package middleware

import (
	"context"
	"strings"

	"github.com/asistio/core/internal/pkg/jwt"
	"github.com/asistio/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

const (
	ContextKeyUserID   = "user_id"
	ContextKeyUserName = "user_name"
)

// Revocations answers whether a still-valid token was invalidated early,
// e.g. by logout. The auth module satisfies it.
type Revocations interface {
	IsRevoked(ctx context.Context, token string) bool
}

// Auth returns a middleware that enforces JWT authentication. A nil
// revocation list disables the revocation check.
func Auth(rev Revocations) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		claims, err := jwt.Parse(token)
		if err != nil {
			response.Unauthorized(c)
			return
		}
		if rev != nil && rev.IsRevoked(c.Request.Context(), token) {
			response.Unauthorized(c)
			return
		}
		c.Set(ContextKeyUserID, claims.Subject)
		if claims.Name != "" {
			c.Set(ContextKeyUserName, claims.Name)
		}
		c.Next()
	}
}

// OptionalAuth sets the user identity if a valid token is present, but does
// not block the request.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, err := jwt.Parse(extractToken(c)); err == nil && claims.Subject != "" {
			c.Set(ContextKeyUserID, claims.Subject)
			if claims.Name != "" {
				c.Set(ContextKeyUserName, claims.Name)
			}
		}
		c.Next()
	}
}

// CurrentUserID extracts the authenticated user ID from context.
func CurrentUserID(c *gin.Context) string {
	v, _ := c.Get(ContextKeyUserID)
	id, _ := v.(string)
	return id
}

// CurrentUserName extracts the authenticated display name from context.
func CurrentUserName(c *gin.Context) string {
	v, _ := c.Get(ContextKeyUserName)
	name, _ := v.(string)
	return name
}

// IsAuthenticated returns true if the request has a valid auth token.
func IsAuthenticated(c *gin.Context) bool {
	return CurrentUserID(c) != ""
}

func extractToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if auth != "" {
		return NormalizeToken(auth)
	}
	return NormalizeToken(c.Query("auth_token"))
}

// NormalizeToken trims spaces and strips an optional Bearer prefix.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}
