package api

import (
	"errors"
	"net/http"

	"bitwise74/recipe-api/internal/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthRefresh never explains a failure, the client just has to sign in again
func (a *API) AuthRefresh(c *gin.Context) {
	s, err := a.Auth.Refresh(c.Request.Context(), a.Cookies.Bind(c), a.Cookies.RefreshToken(c))
	if err != nil {
		if !errors.Is(err, auth.ErrTokenInvalid) {
			zap.L().Error("Failed to refresh session",
				zap.Error(err),
				zap.String("requestID", c.MustGet("requestID").(string)),
			)
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false,
		})
		return
	}

	c.Set("userID", s.User.ID)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": s,
	})
}

func (a *API) AuthSignOut(c *gin.Context) {
	a.Auth.SignOut(a.Cookies.Bind(c))
	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}
