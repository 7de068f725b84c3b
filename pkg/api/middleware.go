package api

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"taxiservice/pkg/logger"
	"taxiservice/pkg/models"
	"taxiservice/service"
)

const (
	sessionCookie  = "sessionid"
	identityKey    = "identity"
	loginURL       = "/accounts/login/"
	nextParam      = "next"
	defaultLanding = "/"
)

func requestLogger(log logger.ILogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("http request",
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("latency", time.Since(start)),
		)
	}
}

func recovery(log logger.ILogger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error("panic recovered",
			logger.String("path", c.Request.URL.Path),
			logger.Any("panic", recovered),
		)
		c.AbortWithStatus(http.StatusInternalServerError)
	})
}

// requireLogin resolves the session cookie before any handler touches the
// store, and sends anonymous visitors to the login page.
func (h *Handler) requireLogin(c *gin.Context) {
	token, err := c.Cookie(sessionCookie)
	if err != nil || token == "" {
		redirectToLogin(c)
		c.Abort()
		return
	}

	who, err := h.svc.Auth().Resolve(c.Request.Context(), token)
	if err != nil {
		if !errors.Is(err, service.ErrUnauthenticated) {
			h.fail(c, err)
			c.Abort()
			return
		}
		h.clearSession(c)
		redirectToLogin(c)
		c.Abort()
		return
	}

	c.Set(identityKey, who)
	c.Next()
}

func (h *Handler) requireStaff(c *gin.Context) {
	who, _ := identity(c)
	if !who.IsStaff {
		h.page(c, http.StatusForbidden, "error.html", gin.H{
			"status":  http.StatusForbidden,
			"message": "Forbidden",
		})
		c.Abort()
		return
	}
	c.Next()
}

func identity(c *gin.Context) (models.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return models.Identity{}, false
	}
	who, ok := v.(models.Identity)
	return who, ok
}

func redirectToLogin(c *gin.Context) {
	q := url.Values{nextParam: {c.Request.URL.RequestURI()}}
	c.Redirect(http.StatusFound, loginURL+"?"+q.Encode())
}

func (h *Handler) setSession(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, token, int(h.opts.SessionTTL.Seconds()), "/", "", h.opts.CookieSecure, true)
}

func (h *Handler) clearSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", h.opts.CookieSecure, true)
}

// safeNext accepts only local absolute paths as post-login destinations.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, `/\`) {
		return defaultLanding
	}
	return next
}
