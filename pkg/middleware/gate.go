package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"bitwise74/recipe-api/pkg/security"

	"github.com/gin-gonic/gin"
)

type TokenVerifier interface {
	Verify(token string) security.Verification
}

// Gate decides, before any page handler runs, whether a request may go
// through or has to be sent somewhere else. Only the token signature and
// expiry are checked here, the account itself is never looked up.
type Gate struct {
	Protected  []string
	AuthOnly   []string
	SignInPath string
	HomePath   string
	Tokens     TokenVerifier
}

// Decide returns the redirect target for a request to path carrying the
// access token, or false when the request may continue
func (g *Gate) Decide(path, token string) (string, bool) {
	protected := hasPrefix(path, g.Protected)
	authOnly := hasPrefix(path, g.AuthOnly)

	if !protected && !authOnly {
		return "", false
	}

	valid := token != "" && g.Tokens.Verify(token).Valid

	if protected && !valid {
		return g.SignInPath + "?" + url.Values{"callbackUrl": {path}}.Encode(), true
	}

	if authOnly && valid {
		return g.HomePath, true
	}

	return "", false
}

func NewGateMiddleware(g *Gate, cookie string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(cookie)

		if to, ok := g.Decide(c.Request.URL.Path, token); ok {
			c.Redirect(http.StatusTemporaryRedirect, to)
			c.Abort()
			return
		}

		c.Next()
	}
}

// hasPrefix matches whole path segments, /profile covers /profile/edit but
// not /profiles
func hasPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		p = strings.TrimSuffix(p, "/")
		if p == "" {
			continue
		}

		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}

	return false
}
