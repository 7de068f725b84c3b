package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"taxiservice/pkg/admin"
	"taxiservice/pkg/logger"
	"taxiservice/service"
	"taxiservice/storage"
)

type Options struct {
	SessionTTL   time.Duration
	CookieSecure bool
}

type Handler struct {
	svc  service.IServiceManager
	site *admin.Site
	opts Options
	log  logger.ILogger
}

// NewRouter wires every page of the application onto a gin engine.
func NewRouter(svc service.IServiceManager, site *admin.Site, opts Options, log logger.ILogger) (*gin.Engine, error) {
	renderer, err := newHTMLRender()
	if err != nil {
		return nil, err
	}

	h := &Handler{svc: svc, site: site, opts: opts, log: log}

	r := gin.New()
	r.HTMLRender = renderer
	r.Use(requestLogger(log), recovery(log))
	r.NoRoute(h.notFound)

	r.GET("/healthz", h.healthz)

	accounts := r.Group("/accounts")
	{
		accounts.GET("/login/", h.loginPage)
		accounts.POST("/login/", h.login)
		accounts.POST("/logout/", h.logout)
	}

	pages := r.Group("/", h.requireLogin)
	{
		pages.GET("/", h.home)

		pages.GET("/manufacturers/", h.manufacturerList)
		pages.GET("/manufacturers/create/", h.manufacturerCreatePage)
		pages.POST("/manufacturers/create/", h.manufacturerCreate)
		pages.GET("/manufacturers/:id/update/", h.manufacturerUpdatePage)
		pages.POST("/manufacturers/:id/update/", h.manufacturerUpdate)
		pages.GET("/manufacturers/:id/delete/", h.manufacturerDeletePage)
		pages.POST("/manufacturers/:id/delete/", h.manufacturerDelete)

		pages.GET("/cars/", h.carList)
		pages.GET("/cars/create/", h.carCreatePage)
		pages.POST("/cars/create/", h.carCreate)
		pages.GET("/cars/:id/", h.carDetail)
		pages.GET("/cars/:id/update/", h.carUpdatePage)
		pages.POST("/cars/:id/update/", h.carUpdate)
		pages.GET("/cars/:id/delete/", h.carDeletePage)
		pages.POST("/cars/:id/delete/", h.carDelete)
		pages.POST("/cars/:id/toggle-assign/", h.carToggleAssign)

		pages.GET("/drivers/", h.driverList)
		pages.GET("/drivers/create/", h.driverCreatePage)
		pages.POST("/drivers/create/", h.driverCreate)
		pages.GET("/drivers/:id/", h.driverDetail)
		pages.GET("/drivers/:id/update/", h.driverUpdatePage)
		pages.POST("/drivers/:id/update/", h.driverUpdate)
		pages.GET("/drivers/:id/delete/", h.driverDeletePage)
		pages.POST("/drivers/:id/delete/", h.driverDelete)
	}

	backOffice := r.Group("/admin", h.requireLogin, h.requireStaff)
	{
		backOffice.GET("/", h.adminIndex)
		backOffice.GET("/:model/", h.adminChangeList)
		backOffice.GET("/:model/:id/change/", h.adminChangePage)
		backOffice.POST("/:model/:id/change/", h.adminChange)
	}

	return r, nil
}

func (h *Handler) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// page renders name with the current identity merged into data.
func (h *Handler) page(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if who, ok := identity(c); ok {
		data["user"] = who
	}
	c.HTML(status, name, data)
}

func (h *Handler) notFound(c *gin.Context) {
	h.page(c, http.StatusNotFound, "error.html", gin.H{
		"status":  http.StatusNotFound,
		"message": "Not Found",
	})
}

// fail maps an error from a service call onto a response.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, admin.ErrUnknownModel):
		h.notFound(c)
	case errors.Is(err, admin.ErrInvalidFilter):
		h.page(c, http.StatusBadRequest, "error.html", gin.H{
			"status":  http.StatusBadRequest,
			"message": "Bad Request",
		})
	case errors.Is(err, service.ErrUnauthenticated):
		h.clearSession(c)
		redirectToLogin(c)
	default:
		h.log.Error("request failed",
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.Error(err),
		)
		h.page(c, http.StatusInternalServerError, "error.html", gin.H{
			"status":  http.StatusInternalServerError,
			"message": "Server Error",
		})
	}
}

// pathID reads the :id parameter. Malformed ids answer 404.
func (h *Handler) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.notFound(c)
		return 0, false
	}
	return id, true
}

func (h *Handler) redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusFound, location)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
