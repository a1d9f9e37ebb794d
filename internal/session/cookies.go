package session

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	AccessCookie  = "auth-token"
	RefreshCookie = "refresh-token"
)

// Jar writes the session cookies of a single response
type Jar interface {
	SetAuthCookies(access, refresh string)
	Clear()
}

// CookieManager holds the attributes shared by both session cookies
type CookieManager struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func NewCookieManager(secure bool, accessTTL, refreshTTL time.Duration) *CookieManager {
	return &CookieManager{
		Secure:     secure,
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
	}
}

// Bind returns a Jar writing to the response of c
func (m *CookieManager) Bind(c *gin.Context) Jar {
	return &ginJar{m: m, c: c}
}

func (m *CookieManager) AccessToken(c *gin.Context) string {
	v, _ := c.Cookie(AccessCookie)
	return v
}

func (m *CookieManager) RefreshToken(c *gin.Context) string {
	v, _ := c.Cookie(RefreshCookie)
	return v
}

type ginJar struct {
	m *CookieManager
	c *gin.Context
}

func (j *ginJar) SetAuthCookies(access, refresh string) {
	j.set(AccessCookie, access, int(j.m.AccessTTL.Seconds()))
	j.set(RefreshCookie, refresh, int(j.m.RefreshTTL.Seconds()))
}

// Clear expires both cookies instead of leaving them out, so clearing an
// already empty session yields the same response
func (j *ginJar) Clear() {
	j.set(AccessCookie, "", 0)
	j.set(RefreshCookie, "", 0)
}

func (j *ginJar) set(name, value string, maxAge int) {
	// gin turns a zero maxAge into no Max-Age attribute, -1 is what writes Max-Age=0
	if maxAge == 0 {
		maxAge = -1
	}

	j.c.SetSameSite(http.SameSiteLaxMode)
	j.c.SetCookie(name, value, maxAge, "/", "", j.m.Secure, true)
}
