package api

import (
	"errors"
	"net/http"

	"bitwise74/recipe-api/internal/auth"

	"github.com/gin-gonic/gin"
)

func (a *API) AuthSignIn(c *gin.Context) {
	var data auth.SignInInput
	if !bind(c, &data) {
		return
	}

	if data.Email == "" {
		badRequest(c, "Email field can't be empty")
		return
	}

	if data.Password == "" {
		badRequest(c, "Password field can't be empty")
		return
	}

	res, err := a.Auth.SignIn(c.Request.Context(), a.Cookies.Bind(c), data)

	// Unknown accounts must be indistinguishable from a wrong password
	if errors.Is(err, auth.ErrUserNotFound) {
		respondErr(c, http.StatusUnauthorized, res, err)
		return
	}

	respond(c, http.StatusOK, res, err)
}
