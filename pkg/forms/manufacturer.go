package forms

import "net/url"

const manufacturerFieldMaxLength = 255

type ManufacturerForm struct {
	Name    string
	Country string
}

func ManufacturerFormFromValues(values url.Values) ManufacturerForm {
	return ManufacturerForm{
		Name:    values.Get("name"),
		Country: values.Get("country"),
	}
}

func (f ManufacturerForm) Clean() Errors {
	errs := NewErrors()
	if checkRequired(errs, "name", f.Name) {
		checkMaxLength(errs, "name", f.Name, manufacturerFieldMaxLength)
	}
	if checkRequired(errs, "country", f.Country) {
		checkMaxLength(errs, "country", f.Country, manufacturerFieldMaxLength)
	}
	return errs
}
