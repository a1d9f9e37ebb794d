package api

import (
	"net/http"
	"strconv"

	"bitwise74/recipe-api/internal/auth"
	"bitwise74/recipe-api/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type roleBody struct {
	Role string `json:"role"`
}

// AdminListUsers accepts ?search=, ?role=, ?verified=true|false and ?page=.
// role=all and verified=all don't filter.
func (a *API) AdminListUsers(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)

	f := store.UserFilter{
		Search: c.Query("search"),
	}

	// "all" is what the user table sends when a filter is switched off
	if v := c.Query("role"); v != "all" {
		f.Role = v
	}

	if v := c.Query("verified"); v != "" && v != "all" {
		verified, err := strconv.ParseBool(v)
		if err != nil {
			badRequest(c, "verified must be true or false")
			return
		}
		f.Verified = &verified
	}

	if v := c.Query("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			badRequest(c, "page must be a positive number")
			return
		}
		f.Page = page
	}

	page, err := a.Auth.ListUsers(c.Request.Context(), f)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to list users", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, page)
}

func (a *API) AdminChangeRole(c *gin.Context) {
	var data roleBody
	if !bind(c, &data) {
		return
	}

	res, err := a.Auth.ChangeRole(c.Request.Context(), c.Param("id"), data.Role)
	respond(c, http.StatusOK, res, err)
}

func (a *API) AdminDeleteUser(c *gin.Context) {
	userID := c.Param("id")

	if userID == c.GetString("userID") {
		badRequest(c, "Use account deletion to delete your own account")
		return
	}

	res, err := a.Auth.DeleteUser(c.Request.Context(), userID)
	respond(c, http.StatusOK, res, err)
}

func (a *API) AdminBulkUpdateUsers(c *gin.Context) {
	var data auth.BulkUpdateInput
	if !bind(c, &data) {
		return
	}

	res, err := a.Auth.BulkUpdateUsers(c.Request.Context(), data)
	if err != nil {
		respondErr(c, statusFor(err), res.Result, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
