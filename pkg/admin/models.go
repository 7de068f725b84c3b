package admin

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"taxiservice/pkg/forms"
	"taxiservice/pkg/models"
	"taxiservice/pkg/search"
	"taxiservice/service"
	"taxiservice/storage"
)

var ManufacturerAdmin = ModelAdmin{
	Name:          "manufacturer",
	VerboseName:   "manufacturer",
	VerbosePlural: "manufacturers",
	ListDisplay:   []Column{{Field: "__str__", Label: "Manufacturer"}},
	Fieldsets: []Fieldset{{Fields: []Field{
		{Name: "name", Label: "Name", Widget: Text},
		{Name: "country", Label: "Country", Widget: Text},
	}}},
}

var CarAdmin = ModelAdmin{
	Name:          "car",
	VerboseName:   "car",
	VerbosePlural: "cars",
	ListDisplay: []Column{
		{Field: "model", Label: "Model"},
		{Field: "manufacturer", Label: "Manufacturer"},
	},
	SearchFields: []string{"model"},
	ListFilter:   []ListFilter{{Param: "manufacturer__id", Label: "manufacturer"}},
	Fieldsets: []Fieldset{{Fields: []Field{
		{Name: "model", Label: "Model", Widget: Text},
		{Name: "manufacturer", Label: "Manufacturer", Widget: Select},
		{Name: "drivers", Label: "Drivers", Widget: MultiSelect},
	}}},
}

var DriverAdmin = ModelAdmin{
	Name:          "driver",
	VerboseName:   "driver",
	VerbosePlural: "drivers",
	ListDisplay: []Column{
		{Field: "username", Label: "Username"},
		{Field: "email", Label: "Email address"},
		{Field: "first_name", Label: "First name"},
		{Field: "last_name", Label: "Last name"},
		{Field: "is_staff", Label: "Staff status"},
		{Field: "license_number", Label: "License number"},
	},
	SearchFields: []string{"username", "first_name", "last_name", "email"},
	Fieldsets: []Fieldset{
		{Fields: []Field{
			{Name: "username", Label: "Username"},
		}},
		{Title: "Personal info", Fields: []Field{
			{Name: "first_name", Label: "First name"},
			{Name: "last_name", Label: "Last name"},
			{Name: "email", Label: "Email address"},
		}},
		{Title: "Permissions", Fields: []Field{
			{Name: "is_active", Label: "Active"},
			{Name: "is_staff", Label: "Staff status"},
			{Name: "is_superuser", Label: "Superuser status"},
		}},
		{Title: "Important dates", Fields: []Field{
			{Name: "last_login", Label: "Last login"},
			{Name: "date_joined", Label: "Date joined"},
		}},
		{Title: "Additional info", Fields: []Field{
			{Name: "license_number", Label: "License number", Widget: Text},
		}},
	},
}

// NewDefaultSite registers manufacturers, cars and drivers.
func NewDefaultSite(svc service.IServiceManager) *Site {
	site := NewSite()
	site.Register(ManufacturerAdmin, manufacturerBackend{svc: svc})
	site.Register(CarAdmin, carBackend{svc: svc})
	site.Register(DriverAdmin, driverBackend{svc: svc})
	return site
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

type manufacturerBackend struct {
	svc service.IServiceManager
}

func manufacturerRow(m *models.Manufacturer) Row {
	return Row{
		ID:    m.ID,
		Label: m.String(),
		Values: url.Values{
			"name":    {m.Name},
			"country": {m.Country},
		},
		Display: map[string]string{
			"__str__": m.String(),
			"name":    m.Name,
			"country": m.Country,
		},
	}
}

func (b manufacturerBackend) List(ctx context.Context, q search.Query, _ map[string]int64) ([]Row, error) {
	list, err := b.svc.Manufacturer().List(ctx, q)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(list))
	for _, m := range list {
		rows = append(rows, manufacturerRow(m))
	}
	return rows, nil
}

func (b manufacturerBackend) Get(ctx context.Context, id int64) (Row, error) {
	m, err := b.svc.Manufacturer().Get(ctx, id)
	if err != nil {
		return Row{}, err
	}
	return manufacturerRow(m), nil
}

func (b manufacturerBackend) Save(ctx context.Context, id int64, values url.Values) (forms.Errors, error) {
	_, errs, err := b.svc.Manufacturer().Update(ctx, id, forms.ManufacturerFormFromValues(values))
	return errs, err
}

func (b manufacturerBackend) Choices(context.Context, string) ([]Choice, error) {
	return nil, nil
}

type carBackend struct {
	svc service.IServiceManager
}

func carRow(c *models.Car) Row {
	row := Row{
		ID:    c.ID,
		Label: c.String(),
		Values: url.Values{
			"model":        {c.Model},
			"manufacturer": {idString(c.ManufacturerID)},
		},
		Display: map[string]string{
			"__str__": c.String(),
			"model":   c.Model,
		},
	}
	for _, id := range c.DriverIDs {
		row.Values.Add("drivers", idString(id))
	}
	if c.Manufacturer != nil {
		row.Display["manufacturer"] = c.Manufacturer.String()
	}
	names := make([]string, 0, len(c.Drivers))
	for _, d := range c.Drivers {
		names = append(names, d.String())
	}
	row.Display["drivers"] = strings.Join(names, ", ")
	return row
}

func (b carBackend) List(ctx context.Context, q search.Query, filters map[string]int64) ([]Row, error) {
	list, err := b.svc.Car().List(ctx, storage.CarFilter{
		Search:         q,
		ManufacturerID: filters["manufacturer__id"],
	})
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(list))
	for _, c := range list {
		rows = append(rows, carRow(c))
	}
	return rows, nil
}

func (b carBackend) Get(ctx context.Context, id int64) (Row, error) {
	c, err := b.svc.Car().Get(ctx, id)
	if err != nil {
		return Row{}, err
	}
	return carRow(c), nil
}

func (b carBackend) Save(ctx context.Context, id int64, values url.Values) (forms.Errors, error) {
	_, errs, err := b.svc.Car().Update(ctx, id, forms.CarFormFromValues(values))
	return errs, err
}

func (b carBackend) Choices(ctx context.Context, field string) ([]Choice, error) {
	switch field {
	case "manufacturer", "manufacturer__id":
		list, err := b.svc.Manufacturer().List(ctx, nil)
		if err != nil {
			return nil, err
		}
		out := make([]Choice, 0, len(list))
		for _, m := range list {
			out = append(out, Choice{Value: idString(m.ID), Label: m.String()})
		}
		return out, nil
	case "drivers":
		list, err := b.svc.Driver().List(ctx, storage.DriverFilter{})
		if err != nil {
			return nil, err
		}
		out := make([]Choice, 0, len(list))
		for _, d := range list {
			out = append(out, Choice{Value: idString(d.ID), Label: d.String()})
		}
		return out, nil
	}
	return nil, nil
}

type driverBackend struct {
	svc service.IServiceManager
}

func driverRow(d *models.Driver) Row {
	lastLogin := "-"
	if d.LastLogin != nil {
		lastLogin = d.LastLogin.Format(time.DateTime)
	}
	return Row{
		ID:    d.ID,
		Label: d.String(),
		Values: url.Values{
			"license_number": {d.LicenseNumber},
		},
		Display: map[string]string{
			"__str__":        d.String(),
			"username":       d.Username,
			"email":          d.Email,
			"first_name":     d.FirstName,
			"last_name":      d.LastName,
			"license_number": d.LicenseNumber,
			"is_active":      yesNo(d.IsActive),
			"is_staff":       yesNo(d.IsStaff),
			"is_superuser":   yesNo(d.IsSuperuser),
			"last_login":     lastLogin,
			"date_joined":    d.DateJoined.Format(time.DateTime),
		},
	}
}

func (b driverBackend) List(ctx context.Context, q search.Query, _ map[string]int64) ([]Row, error) {
	list, err := b.svc.Driver().List(ctx, storage.DriverFilter{Search: q})
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(list))
	for _, d := range list {
		rows = append(rows, driverRow(d))
	}
	return rows, nil
}

func (b driverBackend) Get(ctx context.Context, id int64) (Row, error) {
	d, err := b.svc.Driver().Get(ctx, id)
	if err != nil {
		return Row{}, err
	}
	return driverRow(d), nil
}

func (b driverBackend) Save(ctx context.Context, id int64, values url.Values) (forms.Errors, error) {
	_, errs, err := b.svc.Driver().UpdateLicense(ctx, id, forms.DriverLicenseUpdateFormFromValues(values))
	return errs, err
}

func (b driverBackend) Choices(context.Context, string) ([]Choice, error) {
	return nil, nil
}
