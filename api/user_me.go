package api

import (
	"net/http"

	"bitwise74/recipe-api/internal/auth"
	"bitwise74/recipe-api/internal/session"
	"bitwise74/recipe-api/validators"

	"github.com/gin-gonic/gin"
)

func (a *API) UserMe(c *gin.Context) {
	c.JSON(http.StatusOK, c.MustGet("session").(*session.Session))
}

func (a *API) UserProfile(c *gin.Context) {
	u, err := a.Auth.Profile(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		respondErr(c, statusFor(err), auth.Result{Error: auth.Message(err, "Failed to fetch profile")}, err)
		return
	}

	c.JSON(http.StatusOK, u)
}

func (a *API) UserChangePassword(c *gin.Context) {
	userID := c.GetString("userID")

	var data auth.ChangePasswordInput
	if !bind(c, &data) {
		return
	}

	if data.Current == "" {
		badRequest(c, "Current password field can't be empty")
		return
	}

	if err := validators.PasswordValidator(data.New); err != nil {
		invalid(c, err)
		return
	}

	res, err := a.Auth.ChangePassword(c.Request.Context(), userID, data)
	respond(c, http.StatusOK, res, err)
}

func (a *API) UserDelete(c *gin.Context) {
	userID := c.GetString("userID")

	res, err := a.Auth.DeleteAccount(c.Request.Context(), a.Cookies.Bind(c), userID)
	respond(c, http.StatusOK, res, err)
}
