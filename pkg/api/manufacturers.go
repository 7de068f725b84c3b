package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taxiservice/pkg/forms"
	"taxiservice/pkg/search"
)

const manufacturerListURL = "/manufacturers/"

func (h *Handler) manufacturerList(c *gin.Context) {
	searchForm := forms.ManufacturerSearchForm(c.Request.URL.Query())

	list, err := h.svc.Manufacturer().List(c.Request.Context(), search.Single(searchForm.Filter))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.page(c, http.StatusOK, "manufacturer_list.html", gin.H{
		"search":            searchForm,
		"manufacturer_list": list,
	})
}

func (h *Handler) manufacturerCreatePage(c *gin.Context) {
	h.page(c, http.StatusOK, "manufacturer_form.html", gin.H{
		"form":   forms.ManufacturerForm{},
		"errors": forms.NewErrors(),
	})
}

func (h *Handler) manufacturerCreate(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}
	form := forms.ManufacturerFormFromValues(c.Request.PostForm)

	_, errs, err := h.svc.Manufacturer().Create(c.Request.Context(), form)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !errs.Valid() {
		h.page(c, http.StatusOK, "manufacturer_form.html", gin.H{"form": form, "errors": errs})
		return
	}
	h.redirect(c, manufacturerListURL)
}

func (h *Handler) manufacturerUpdatePage(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	m, err := h.svc.Manufacturer().Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.page(c, http.StatusOK, "manufacturer_form.html", gin.H{
		"object": m,
		"form":   forms.ManufacturerForm{Name: m.Name, Country: m.Country},
		"errors": forms.NewErrors(),
	})
}

func (h *Handler) manufacturerUpdate(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := c.Request.ParseForm(); err != nil {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}
	form := forms.ManufacturerFormFromValues(c.Request.PostForm)

	m, errs, err := h.svc.Manufacturer().Update(c.Request.Context(), id, form)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !errs.Valid() {
		h.page(c, http.StatusOK, "manufacturer_form.html", gin.H{"object": m, "form": form, "errors": errs})
		return
	}
	h.redirect(c, manufacturerListURL)
}

func (h *Handler) manufacturerDeletePage(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	m, err := h.svc.Manufacturer().Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.page(c, http.StatusOK, "manufacturer_confirm_delete.html", gin.H{
		"object": m,
		"errors": forms.NewErrors(),
	})
}

func (h *Handler) manufacturerDelete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	m, err := h.svc.Manufacturer().Get(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	errs, err := h.svc.Manufacturer().Delete(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !errs.Valid() {
		h.page(c, http.StatusOK, "manufacturer_confirm_delete.html", gin.H{"object": m, "errors": errs})
		return
	}
	h.redirect(c, manufacturerListURL)
}
