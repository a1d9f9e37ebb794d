package middleware

import (
	"net/http"
	"slices"

	"bitwise74/recipe-api/internal/session"

	"github.com/gin-gonic/gin"
)

// RequireSession rejects requests without a live session and stores the
// session as "session" and the user id as "userID" for the handlers
func RequireSession(r *session.Reader) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)

		s := r.FromRequest(c)
		if s == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Unauthorized",
				"requestID": requestID,
			})
			return
		}

		c.Set("session", s)
		c.Set("userID", s.User.ID)
		c.Next()
	}
}

// RequireRole must run after RequireSession
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)
		s := c.MustGet("session").(*session.Session)

		if !slices.Contains(roles, s.User.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":     "Forbidden",
				"requestID": requestID,
			})
			return
		}

		c.Next()
	}
}
