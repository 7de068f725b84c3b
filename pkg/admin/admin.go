// Package admin is a declarative back office: each entity is registered
// with a ModelAdmin describing its changelist and change form, and one
// generic Site serves all of them.
package admin

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"taxiservice/pkg/forms"
	"taxiservice/pkg/search"
)

var (
	ErrUnknownModel  = errors.New("unknown admin model")
	ErrInvalidFilter = errors.New("invalid filter value")
)

// SearchParam is the query parameter holding the changelist search term.
const SearchParam = "q"

type Widget int

const (
	ReadOnly Widget = iota
	Text
	Select
	MultiSelect
)

type Column struct {
	Field string
	Label string
}

// ListFilter narrows a changelist to rows whose Param equals an id.
type ListFilter struct {
	Param string
	Label string
}

type Field struct {
	Name   string
	Label  string
	Widget Widget
}

type Fieldset struct {
	Title  string
	Fields []Field
}

// ModelAdmin configures how one entity appears in the back office.
type ModelAdmin struct {
	Name          string
	VerboseName   string
	VerbosePlural string
	ListDisplay   []Column
	SearchFields  []string
	ListFilter    []ListFilter
	Fieldsets     []Fieldset
}

// Row is one record as the back office sees it. Values carry raw form
// values (ids for relations), Display the human readable rendering.
type Row struct {
	ID      int64
	Label   string
	Values  url.Values
	Display map[string]string
}

type Choice struct {
	Value string
	Label string
}

// Backend connects a ModelAdmin to the services owning its records.
type Backend interface {
	List(ctx context.Context, q search.Query, filters map[string]int64) ([]Row, error)
	Get(ctx context.Context, id int64) (Row, error)
	Save(ctx context.Context, id int64, values url.Values) (forms.Errors, error)
	// Choices lists the options of a Select or MultiSelect field, or of a list filter.
	Choices(ctx context.Context, field string) ([]Choice, error)
}

type registration struct {
	admin   ModelAdmin
	backend Backend
}

type Site struct {
	order  []string
	models map[string]registration
}

func NewSite() *Site {
	return &Site{models: make(map[string]registration)}
}

func (s *Site) Register(ma ModelAdmin, backend Backend) {
	if _, ok := s.models[ma.Name]; !ok {
		s.order = append(s.order, ma.Name)
	}
	s.models[ma.Name] = registration{admin: ma, backend: backend}
}

// Models returns the registered configurations in registration order.
func (s *Site) Models() []ModelAdmin {
	out := make([]ModelAdmin, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.models[name].admin)
	}
	return out
}

func (s *Site) lookup(name string) (registration, error) {
	reg, ok := s.models[name]
	if !ok {
		return registration{}, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
	return reg, nil
}

type FilterOption struct {
	Choice
	Selected bool
}

type FilterView struct {
	ListFilter
	Options []FilterOption
}

type ChangeList struct {
	Admin   ModelAdmin
	Query   string
	Filters []FilterView
	Rows    []Row
}

// Searchable reports whether the changelist shows a search box.
func (c ChangeList) Searchable() bool {
	return len(c.Admin.SearchFields) > 0
}

// Cell renders the value of column for row.
func (c ChangeList) Cell(row Row, column Column) string {
	return row.Display[column.Field]
}

// ChangeList builds the list page of model from the request query.
func (s *Site) ChangeList(ctx context.Context, model string, params url.Values) (*ChangeList, error) {
	reg, err := s.lookup(model)
	if err != nil {
		return nil, err
	}
	ma := reg.admin

	term := strings.TrimSpace(params.Get(SearchParam))
	var q search.Query
	if len(ma.SearchFields) > 0 {
		q = search.Any(term, ma.SearchFields...)
	}

	filters := make(map[string]int64)
	views := make([]FilterView, 0, len(ma.ListFilter))
	for _, lf := range ma.ListFilter {
		raw := params.Get(lf.Param)
		if raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				return nil, fmt.Errorf("%w: %s=%q", ErrInvalidFilter, lf.Param, raw)
			}
			filters[lf.Param] = id
		}

		choices, err := reg.backend.Choices(ctx, lf.Param)
		if err != nil {
			return nil, err
		}
		view := FilterView{ListFilter: lf}
		for _, c := range choices {
			view.Options = append(view.Options, FilterOption{Choice: c, Selected: c.Value == raw})
		}
		views = append(views, view)
	}

	rows, err := reg.backend.List(ctx, q, filters)
	if err != nil {
		return nil, err
	}
	return &ChangeList{Admin: ma, Query: term, Filters: views, Rows: rows}, nil
}

type FieldOption struct {
	Choice
	Selected bool
}

type FieldView struct {
	Field
	Value   string
	Options []FieldOption
	Errors  []string
}

type FieldsetView struct {
	Title  string
	Fields []FieldView
}

type ChangeForm struct {
	Admin     ModelAdmin
	Row       Row
	Fieldsets []FieldsetView
	Errors    forms.Errors
}

// ChangeForm builds the change page of one record.
func (s *Site) ChangeForm(ctx context.Context, model string, id int64) (*ChangeForm, error) {
	reg, err := s.lookup(model)
	if err != nil {
		return nil, err
	}
	row, err := reg.backend.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return buildChangeForm(ctx, reg, row, row.Values, nil)
}

// Save applies submitted values to the editable fields of a record. The
// returned form carries the submitted values and any validation errors.
func (s *Site) Save(ctx context.Context, model string, id int64, values url.Values) (*ChangeForm, bool, error) {
	reg, err := s.lookup(model)
	if err != nil {
		return nil, false, err
	}
	row, err := reg.backend.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}

	submitted := url.Values{}
	for _, fs := range reg.admin.Fieldsets {
		for _, f := range fs.Fields {
			if f.Widget != ReadOnly {
				submitted[f.Name] = values[f.Name]
			}
		}
	}

	errs, err := reg.backend.Save(ctx, id, submitted)
	if err != nil {
		return nil, false, err
	}
	if !errs.Valid() {
		merged := url.Values{}
		for k, v := range row.Values {
			merged[k] = v
		}
		for k, v := range submitted {
			merged[k] = v
		}
		form, err := buildChangeForm(ctx, reg, row, merged, errs)
		return form, false, err
	}

	row, err = reg.backend.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	form, err := buildChangeForm(ctx, reg, row, row.Values, nil)
	return form, true, err
}

func buildChangeForm(ctx context.Context, reg registration, row Row, values url.Values, errs forms.Errors) (*ChangeForm, error) {
	form := &ChangeForm{Admin: reg.admin, Row: row, Errors: errs}
	for _, fs := range reg.admin.Fieldsets {
		view := FieldsetView{Title: fs.Title}
		for _, f := range fs.Fields {
			fv := FieldView{Field: f, Errors: errs[f.Name]}
			switch f.Widget {
			case ReadOnly:
				fv.Value = row.Display[f.Name]
			case Text:
				fv.Value = values.Get(f.Name)
			case Select, MultiSelect:
				choices, err := reg.backend.Choices(ctx, f.Name)
				if err != nil {
					return nil, err
				}
				selected := make(map[string]bool, len(values[f.Name]))
				for _, v := range values[f.Name] {
					selected[v] = true
				}
				for _, c := range choices {
					fv.Options = append(fv.Options, FieldOption{Choice: c, Selected: selected[c.Value]})
				}
				fv.Value = strings.Join(values[f.Name], ",")
			}
			view.Fields = append(view.Fields, fv)
		}
		form.Fieldsets = append(form.Fieldsets, view)
	}
	return form, nil
}
