package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/institute-hub/backend/internal/apperr"
	"github.com/emilythestrangee/institute-hub/backend/internal/auth"
)

// Context keys set by the auth middleware.
const (
	UserIDKey = "user_id"
	RoleKey   = "user_role"
)

// AuthMiddleware rejects requests without a valid bearer token and stores the
// caller's id under UserIDKey.
func AuthMiddleware(tokens *auth.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := bearerClaims(c, tokens)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": apperr.MessageOf(err)})
			return
		}
		c.Set(UserIDKey, claims.UserID)
		c.Set(RoleKey, claims.Role)
		c.Next()
	}
}

// OptionalAuth resolves the caller when a token is present and lets anonymous
// requests through. A malformed or expired token is still refused.
func OptionalAuth(tokens *auth.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		claims, err := bearerClaims(c, tokens)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": apperr.MessageOf(err)})
			return
		}
		c.Set(UserIDKey, claims.UserID)
		c.Set(RoleKey, claims.Role)
		c.Next()
	}
}

func bearerClaims(c *gin.Context, tokens *auth.Tokens) (*auth.Claims, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, apperr.New(apperr.Unauthenticated, "authorization header required")
	}
	scheme, raw, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
		return nil, apperr.New(apperr.Unauthenticated, "authorization header must be Bearer <token>")
	}
	return tokens.Parse(strings.TrimSpace(raw))
}

// UserID returns the authenticated caller, if any.
func UserID(c *gin.Context) (int, bool) {
	raw, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := raw.(int)
	return id, ok && id > 0
}
