package api

import (
	"net/http"

	"bitwise74/recipe-api/internal/auth"
	"bitwise74/recipe-api/validators"

	"github.com/gin-gonic/gin"
)

func (a *API) AuthSignUp(c *gin.Context) {
	var data auth.SignUpInput
	if !bind(c, &data) {
		return
	}

	if err := validators.NameValidator(data.Name); err != nil {
		invalid(c, err)
		return
	}

	if err := validators.EmailValidator(data.Email); err != nil {
		invalid(c, err)
		return
	}

	if err := validators.PasswordValidator(data.Password); err != nil {
		invalid(c, err)
		return
	}

	res, err := a.Auth.SignUp(c.Request.Context(), data)
	respond(c, http.StatusCreated, res, err)
}
