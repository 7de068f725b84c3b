package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taxiservice/pkg/forms"
	"taxiservice/pkg/search"
	"taxiservice/storage"
)

const driverListURL = "/drivers/"

func (h *Handler) driverList(c *gin.Context) {
	searchForm := forms.DriverSearchForm(c.Request.URL.Query())

	list, err := h.svc.Driver().List(c.Request.Context(), storage.DriverFilter{Search: search.Single(searchForm.Filter)})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.page(c, http.StatusOK, "driver_list.html", gin.H{
		"search":      searchForm,
		"driver_list": list,
	})
}

func (h *Handler) driverDetail(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	d, err := h.svc.Driver().Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.page(c, http.StatusOK, "driver_detail.html", gin.H{"driver": d})
}

func (h *Handler) driverCreatePage(c *gin.Context) {
	h.page(c, http.StatusOK, "driver_form.html", gin.H{
		"form":   forms.DriverCreationForm{},
		"errors": forms.NewErrors(),
	})
}

func (h *Handler) driverCreate(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}
	form := forms.DriverCreationFormFromValues(c.Request.PostForm)

	d, errs, err := h.svc.Driver().Register(c.Request.Context(), form)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !errs.Valid() {
		form.Password1, form.Password2 = "", ""
		h.page(c, http.StatusOK, "driver_form.html", gin.H{"form": form, "errors": errs})
		return
	}
	h.redirect(c, driverListURL+itoa(d.ID)+"/")
}

func (h *Handler) driverUpdatePage(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	d, err := h.svc.Driver().Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.page(c, http.StatusOK, "driver_license_form.html", gin.H{
		"object": d,
		"form":   forms.DriverLicenseUpdateForm{LicenseNumber: d.LicenseNumber},
		"errors": forms.NewErrors(),
	})
}

func (h *Handler) driverUpdate(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := c.Request.ParseForm(); err != nil {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}
	form := forms.DriverLicenseUpdateFormFromValues(c.Request.PostForm)

	d, errs, err := h.svc.Driver().UpdateLicense(c.Request.Context(), id, form)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !errs.Valid() {
		h.page(c, http.StatusOK, "driver_license_form.html", gin.H{"object": d, "form": form, "errors": errs})
		return
	}
	h.redirect(c, driverListURL+itoa(id)+"/")
}

func (h *Handler) driverDeletePage(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	d, err := h.svc.Driver().Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.page(c, http.StatusOK, "driver_confirm_delete.html", gin.H{"object": d})
}

func (h *Handler) driverDelete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Driver().Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	h.redirect(c, driverListURL)
}
