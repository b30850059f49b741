package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/movesmart/service-route/internal/platform/middleware"
)

// CookieOptions controls the session cookie attributes.
type CookieOptions struct {
	Secure bool
	TTL    time.Duration
}

func setSessionCookie(c *gin.Context, opts CookieOptions, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, int(opts.TTL.Seconds()), "/", "", opts.Secure, true)
}

func clearSessionCookie(c *gin.Context, opts CookieOptions) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", opts.Secure, true)
}
