package middleware

import (
	"net/http"
	"strings"

	"stitchtherapy/utils"

	"github.com/gin-gonic/gin"
)

// Context keys set by the auth middleware.
const (
	ContextUserID = "userID"
	ContextRole   = "role"
)

// AuthMiddleware requires a valid bearer token and stores the caller's
// identity and role on the request context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			utils.JSONError(c, http.StatusUnauthorized, "missing bearer token", "")
			c.Abort()
			return
		}

		userID, role, err := utils.ExtractIdentityFromToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, "invalid or expired token", "")
			c.Abort()
			return
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextRole, role)
		c.Next()
	}
}

// OptionalAuth attaches identity when a valid bearer token is present but
// lets anonymous requests through. Used by the signaling endpoint, where
// call-link tokens carry their own authorization.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			if userID, role, err := utils.ExtractIdentityFromToken(strings.TrimPrefix(header, "Bearer ")); err == nil {
				c.Set(ContextUserID, userID)
				c.Set(ContextRole, role)
			}
		}
		c.Next()
	}
}

// RequireRole gates a route group to the listed roles. Must run after
// AuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		if !allowed[role] {
			utils.JSONError(c, http.StatusForbidden, "insufficient permissions", "")
			c.Abort()
			return
		}
		c.Next()
	}
}
