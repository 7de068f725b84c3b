package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"taxiservice/pkg/forms"
	"taxiservice/pkg/logger"
)

const visitsCookie = "num_visits"

func (h *Handler) loginPage(c *gin.Context) {
	h.page(c, http.StatusOK, "login.html", gin.H{
		"form":   forms.LoginForm{Next: c.Query(nextParam)},
		"errors": forms.NewErrors(),
	})
}

func (h *Handler) login(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}
	form := forms.LoginFormFromValues(c.Request.PostForm)

	who, errs, err := h.svc.Driver().Authenticate(c.Request.Context(), form)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !errs.Valid() {
		form.Password = ""
		h.page(c, http.StatusOK, "login.html", gin.H{"form": form, "errors": errs})
		return
	}

	token, err := h.svc.Auth().IssueSession(who)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.setSession(c, token)
	h.log.Info("driver logged in", logger.Int64("driver_id", who.DriverID))
	h.redirect(c, safeNext(form.Next))
}

func (h *Handler) logout(c *gin.Context) {
	if token, err := c.Cookie(sessionCookie); err == nil && token != "" {
		if err := h.svc.Auth().Revoke(c.Request.Context(), token); err != nil {
			h.fail(c, err)
			return
		}
	}
	h.clearSession(c)
	h.redirect(c, loginURL)
}

func (h *Handler) home(c *gin.Context) {
	stats, err := h.svc.Driver().Stats(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	visits := 0
	if raw, err := c.Cookie(visitsCookie); err == nil {
		visits, _ = strconv.Atoi(raw)
	}
	visits++
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(visitsCookie, strconv.Itoa(visits), 0, "/", "", h.opts.CookieSecure, true)

	h.page(c, http.StatusOK, "home.html", gin.H{
		"stats":  stats,
		"visits": visits,
	})
}
