package forms

import (
	"net/url"

	"taxiservice/pkg/search"
)

// SearchForm is a single optional text box driving a list filter.
type SearchForm struct {
	Filter search.Filter
}

func ManufacturerSearchForm(values url.Values) SearchForm {
	return SearchForm{Filter: search.FromQuery(values, "name")}
}

func CarSearchForm(values url.Values) SearchForm {
	return SearchForm{Filter: search.FromQuery(values, "model")}
}

func DriverSearchForm(values url.Values) SearchForm {
	return SearchForm{Filter: search.FromQuery(values, "username")}
}

// Clean never fails: the field is optional and free text.
func (f SearchForm) Clean() Errors {
	return NewErrors()
}

func (f SearchForm) Field() string {
	return f.Filter.Field
}

func (f SearchForm) Value() string {
	return f.Filter.Term
}

func (f SearchForm) Placeholder() string {
	return f.Filter.Placeholder()
}
