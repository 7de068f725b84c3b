package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"taxiservice/pkg/forms"
	"taxiservice/pkg/models"
	"taxiservice/pkg/search"
	"taxiservice/storage"
)

const carListURL = "/cars/"

type option struct {
	Value    int64
	Label    string
	Selected bool
}

// carChoices lists every manufacturer and driver a car form can reference.
func (h *Handler) carChoices(ctx context.Context, form forms.CarForm) (manufacturers, drivers []option, err error) {
	ms, err := h.svc.Manufacturer().List(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	for _, m := range ms {
		manufacturers = append(manufacturers, option{Value: m.ID, Label: m.String(), Selected: m.ID == form.ManufacturerID})
	}

	selected := make(map[int64]bool, len(form.DriverIDs))
	for _, id := range form.DriverIDs {
		selected[id] = true
	}
	ds, err := h.svc.Driver().List(ctx, storage.DriverFilter{})
	if err != nil {
		return nil, nil, err
	}
	for _, d := range ds {
		drivers = append(drivers, option{Value: d.ID, Label: d.String(), Selected: selected[d.ID]})
	}
	return manufacturers, drivers, nil
}

func (h *Handler) carFormPage(c *gin.Context, car *models.Car, form forms.CarForm, errs forms.Errors) {
	manufacturers, drivers, err := h.carChoices(c.Request.Context(), form)
	if err != nil {
		h.fail(c, err)
		return
	}
	data := gin.H{
		"form":          form,
		"errors":        errs,
		"manufacturers": manufacturers,
		"drivers":       drivers,
	}
	if car != nil {
		data["object"] = car
	}
	h.page(c, http.StatusOK, "car_form.html", data)
}

func (h *Handler) carList(c *gin.Context) {
	searchForm := forms.CarSearchForm(c.Request.URL.Query())

	list, err := h.svc.Car().List(c.Request.Context(), storage.CarFilter{Search: search.Single(searchForm.Filter)})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.page(c, http.StatusOK, "car_list.html", gin.H{
		"search":   searchForm,
		"car_list": list,
	})
}

func (h *Handler) carDetail(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	car, err := h.svc.Car().Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	who, _ := identity(c)
	h.page(c, http.StatusOK, "car_detail.html", gin.H{
		"car":      car,
		"assigned": car.HasDriver(who.DriverID),
	})
}

func (h *Handler) carCreatePage(c *gin.Context) {
	h.carFormPage(c, nil, forms.CarForm{}, forms.NewErrors())
}

func (h *Handler) carCreate(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}
	form := forms.CarFormFromValues(c.Request.PostForm)

	_, errs, err := h.svc.Car().Create(c.Request.Context(), form)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !errs.Valid() {
		h.carFormPage(c, nil, form, errs)
		return
	}
	h.redirect(c, carListURL)
}

func (h *Handler) carUpdatePage(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	car, err := h.svc.Car().Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	form := forms.CarForm{Model: car.Model, ManufacturerID: car.ManufacturerID, DriverIDs: car.DriverIDs}
	h.carFormPage(c, car, form, forms.NewErrors())
}

func (h *Handler) carUpdate(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := c.Request.ParseForm(); err != nil {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}
	form := forms.CarFormFromValues(c.Request.PostForm)

	car, errs, err := h.svc.Car().Update(c.Request.Context(), id, form)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !errs.Valid() {
		h.carFormPage(c, car, form, errs)
		return
	}
	h.redirect(c, carListURL+itoa(id)+"/")
}

func (h *Handler) carDeletePage(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	car, err := h.svc.Car().Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.page(c, http.StatusOK, "car_confirm_delete.html", gin.H{"object": car})
}

func (h *Handler) carDelete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Car().Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	h.redirect(c, carListURL)
}

func (h *Handler) carToggleAssign(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	who, _ := identity(c)
	if _, err := h.svc.Car().ToggleAssign(c.Request.Context(), who, id); err != nil {
		h.fail(c, err)
		return
	}
	h.redirect(c, carListURL+itoa(id)+"/")
}
