package api

import (
	"errors"
	"net/http"
	"strings"

	"bitwise74/recipe-api/internal/auth"
	"bitwise74/recipe-api/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusFor maps a flow error onto the HTTP status it is answered with
func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrDuplicateEmail):
		return http.StatusConflict
	case errors.Is(err, auth.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrEmailNotVerified):
		return http.StatusForbidden
	case errors.Is(err, auth.ErrInvalidOrExpiredCode),
		errors.Is(err, auth.ErrIncorrectPassword),
		errors.Is(err, auth.ErrInvalidRole),
		errors.Is(err, auth.ErrNoUsersSelected),
		errors.Is(err, auth.ErrEmptyUpdate):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respond writes the outcome of a flow. Unexpected errors are logged and
// answered with a generic message, everything else carries res.Error.
func respond(c *gin.Context, okStatus int, res auth.Result, err error) {
	if err == nil {
		c.JSON(okStatus, res)
		return
	}

	respondErr(c, statusFor(err), res, err)
}

func respondErr(c *gin.Context, status int, res auth.Result, err error) {
	requestID := c.MustGet("requestID").(string)

	body := gin.H{
		"success":   false,
		"error":     res.Error,
		"requestID": requestID,
	}

	if res.RequireVerification {
		body["requireVerification"] = true
	}

	if status == http.StatusInternalServerError {
		body["error"] = "Internal server error"
		zap.L().Error("Request failed", zap.Error(err), zap.String("requestID", requestID))
	}

	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"success":   false,
		"error":     msg,
		"requestID": c.MustGet("requestID").(string),
	})
}

// invalid answers with the message of a validator error
func invalid(c *gin.Context, err error) {
	msg := err.Error()
	badRequest(c, strings.ToUpper(msg[:1])+msg[1:])
}

// bind decodes the JSON body into obj and answers the request itself when
// that fails
func bind(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		if middleware.IsBodyTooLarge(err) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"success":   false,
				"error":     "Request body size exceeds limit",
				"requestID": c.MustGet("requestID").(string),
			})
			return false
		}

		badRequest(c, "Invalid request body")
		return false
	}

	return true
}
