package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taxiservice/pkg/logger"
)

func (h *Handler) adminIndex(c *gin.Context) {
	h.page(c, http.StatusOK, "admin_index.html", gin.H{"models": h.site.Models()})
}

func (h *Handler) adminChangeList(c *gin.Context) {
	cl, err := h.site.ChangeList(c.Request.Context(), c.Param("model"), c.Request.URL.Query())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.page(c, http.StatusOK, "admin_changelist.html", gin.H{"cl": cl})
}

func (h *Handler) adminChangePage(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	form, err := h.site.ChangeForm(c.Request.Context(), c.Param("model"), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.page(c, http.StatusOK, "admin_change.html", gin.H{"change": form})
}

func (h *Handler) adminChange(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := c.Request.ParseForm(); err != nil {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}
	model := c.Param("model")

	form, saved, err := h.site.Save(c.Request.Context(), model, id, c.Request.PostForm)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !saved {
		h.page(c, http.StatusOK, "admin_change.html", gin.H{"change": form})
		return
	}
	h.log.Info("admin change saved", logger.String("model", model), logger.Int64("id", id))
	h.redirect(c, "/admin/"+model+"/")
}
