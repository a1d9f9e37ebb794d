// Package api contains all endpoints available
package api

import (
	"time"

	"bitwise74/recipe-api/internal/auth"
	"bitwise74/recipe-api/internal/model"
	"bitwise74/recipe-api/internal/session"
	"bitwise74/recipe-api/pkg/middleware"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"

	maxBodySize = 1 << 20
)

type API struct {
	Router  *gin.Engine
	Auth    *auth.Service
	Reader  *session.Reader
	Cookies *session.CookieManager
	Limiter *middleware.RateLimiter
}

type Options struct {
	Auth        *auth.Service
	Reader      *session.Reader
	Cookies     *session.CookieManager
	Gate        *middleware.Gate
	RateLimit   float64
	CORSOrigins []string
}

func NewRouter(o Options) *API {
	a := &API{
		Auth:    o.Auth,
		Reader:  o.Reader,
		Cookies: o.Cookies,
		Limiter: middleware.NewRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: o.RateLimit,
		}),
	}

	router := gin.New()
	a.Router = router

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     o.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	if o.Gate != nil {
		router.Use(middleware.NewGateMiddleware(o.Gate, session.AccessCookie))
	}

	router.HandleMethodNotAllowed = true

	requireSession := middleware.RequireSession(a.Reader)

	main := router.Group("/api")
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		main.HEAD("/heartbeat", a.Heartbeat)
	}

	authGroup := main.Group("/auth", a.Limiter.Middleware(), middleware.BodySizeLimiter(maxBodySize))
	{
		// POST /api/auth/signup	-> Registers an unverified account and mails a code
		authGroup.POST("/signup", a.AuthSignUp)

		// POST /api/auth/signin	-> Starts a session for a verified account
		authGroup.POST("/signin", a.AuthSignIn)

		// POST /api/auth/verify	-> Consumes a verification code and starts a session
		authGroup.POST("/verify", a.AuthVerify)

		// POST /api/auth/resend	-> Mails a fresh verification code
		authGroup.POST("/resend", a.AuthResend)

		// POST /api/auth/refresh	-> Rotates both session tokens
		authGroup.POST("/refresh", a.AuthRefresh)

		// POST /api/auth/signout	-> Clears the session cookies
		authGroup.POST("/signout", a.AuthSignOut)
	}

	users := main.Group("/users", requireSession, middleware.BodySizeLimiter(maxBodySize))
	{
		// GET /api/users/me		-> Returns the current session
		users.GET("/me", a.UserMe)

		// GET /api/users/me/profile	-> Returns the full record of the current user
		users.GET("/me/profile", a.UserProfile)

		// PATCH /api/users/me/password	-> Changes the password of the current user
		users.PATCH("/me/password", a.UserChangePassword)

		// DELETE /api/users/me		-> Deletes the current user and ends the session
		users.DELETE("/me", a.UserDelete)
	}

	admin := main.Group("/admin", requireSession, middleware.RequireRole(model.RoleAdmin))
	{
		// GET /api/admin/users		-> Lists users page by page
		admin.GET("/users", a.AdminListUsers)

		// PATCH /api/admin/users	-> Sets role and/or emailVerified for many users at once
		admin.PATCH("/users", middleware.BodySizeLimiter(maxBodySize), a.AdminBulkUpdateUsers)

		// PATCH /api/admin/users/:id/role	-> Changes the role of a user
		admin.PATCH("/users/:id/role", middleware.BodySizeLimiter(maxBodySize), a.AdminChangeRole)

		// DELETE /api/admin/users/:id	-> Deletes a user
		admin.DELETE("/users/:id", a.AdminDeleteUser)
	}

	return a
}

// MakeLogger installs the global zap logger at the given level
func MakeLogger(level string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return err
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	log, err := cfg.Build()
	if err != nil {
		return err
	}

	zap.ReplaceGlobals(log)
	return nil
}
