package api

import (
	"net/http"

	"bitwise74/recipe-api/internal/auth"
	"bitwise74/recipe-api/validators"

	"github.com/gin-gonic/gin"
)

func (a *API) AuthVerify(c *gin.Context) {
	var data auth.VerifyInput
	if !bind(c, &data) {
		return
	}

	if err := validators.EmailValidator(data.Email); err != nil {
		invalid(c, err)
		return
	}

	if err := validators.CodeValidator(data.Code); err != nil {
		invalid(c, err)
		return
	}

	res, err := a.Auth.VerifyEmail(c.Request.Context(), a.Cookies.Bind(c), data)
	respond(c, http.StatusOK, res, err)
}

func (a *API) AuthResend(c *gin.Context) {
	var data auth.ResendInput
	if !bind(c, &data) {
		return
	}

	if err := validators.EmailValidator(data.Email); err != nil {
		invalid(c, err)
		return
	}

	res, err := a.Auth.ResendVerification(c.Request.Context(), data)
	respond(c, http.StatusOK, res, err)
}
