// Package session rebuilds the signed-in user of a request from the access
// token cookie and manages the cookies that carry it
package session

import (
	"context"
	"errors"
	"time"

	"bitwise74/recipe-api/internal/model"
	"bitwise74/recipe-api/internal/store"
	"bitwise74/recipe-api/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type User struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	Provider      string `json:"provider"`
	EmailVerified bool   `json:"emailVerified"`
}

type Session struct {
	User    User      `json:"user"`
	Expires time.Time `json:"expires"`
}

// New builds the session view of u that is valid until expires
func New(u *model.User, expires time.Time) *Session {
	return &Session{
		User: User{
			ID:            u.ID,
			Name:          u.Name,
			Email:         u.Email,
			Role:          u.Role,
			Provider:      u.Provider,
			EmailVerified: u.EmailVerified,
		},
		Expires: expires.UTC(),
	}
}

type TokenVerifier interface {
	Verify(token string) security.Verification
}

type UserFinder interface {
	FindUser(ctx context.Context, q store.UserQuery) (*model.User, error)
}

// Reader answers "who is making this request". A nil session always means
// anonymous, never an error.
type Reader struct {
	tokens  TokenVerifier
	users   UserFinder
	cookies *CookieManager
}

func NewReader(tokens TokenVerifier, users UserFinder, cookies *CookieManager) *Reader {
	return &Reader{
		tokens:  tokens,
		users:   users,
		cookies: cookies,
	}
}

func (r *Reader) Read(ctx context.Context, token string) *Session {
	if token == "" {
		return nil
	}

	v := r.tokens.Verify(token)
	if !v.Valid {
		return nil
	}

	u, err := r.users.FindUser(ctx, store.UserByID{ID: v.Subject})
	if err != nil {
		// Tokens outlive deleted accounts, that's not worth logging
		if !errors.Is(err, store.ErrNotFound) {
			zap.L().Error("Failed to load session user", zap.String("userID", v.Subject), zap.Error(err))
		}

		return nil
	}

	return New(u, v.ExpiresAt)
}

func (r *Reader) FromRequest(c *gin.Context) *Session {
	return r.Read(c.Request.Context(), r.cookies.AccessToken(c))
}
