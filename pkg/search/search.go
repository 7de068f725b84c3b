// Package search turns a single query-string parameter into a
// case-insensitive substring filter over one field.
package search

import (
	"net/url"
	"strings"
)

type Filter struct {
	Field string
	Term  string
}

// FromQuery reads field from values with surrounding whitespace stripped.
// An absent or blank parameter gives a no-op filter.
func FromQuery(values url.Values, field string) Filter {
	return Filter{Field: field, Term: strings.TrimSpace(values.Get(field))}
}

// New builds a filter for field with an explicit term.
func New(field, term string) Filter {
	return Filter{Field: field, Term: term}
}

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool {
	return f.Term == ""
}

// Match is the in-process form of the filter.
func (f Filter) Match(value string) bool {
	if f.IsZero() {
		return true
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(f.Term))
}

// Pattern renders the term as an ILIKE operand. LIKE metacharacters in the
// term are escaped so they match literally.
func (f Filter) Pattern() string {
	if f.IsZero() {
		return "%"
	}
	return "%" + likeEscaper.Replace(f.Term) + "%"
}

// Placeholder is the hint shown in the search box.
func (f Filter) Placeholder() string {
	return "search by " + f.Field
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Query matches when any of its filters matches. A query whose filters are
// all empty matches everything.
type Query []Filter

// Any searches term across several fields.
func Any(term string, fields ...string) Query {
	q := make(Query, 0, len(fields))
	for _, field := range fields {
		q = append(q, Filter{Field: field, Term: term})
	}
	return q
}

// Single wraps one filter as a query.
func Single(f Filter) Query {
	return Query{f}
}

func (q Query) IsZero() bool {
	for _, f := range q {
		if !f.IsZero() {
			return false
		}
	}
	return true
}

// Match resolves each field through value and reports whether any filter matches.
func (q Query) Match(value func(field string) string) bool {
	if q.IsZero() {
		return true
	}
	for _, f := range q {
		if !f.IsZero() && f.Match(value(f.Field)) {
			return true
		}
	}
	return false
}

// Active drops the empty filters.
func (q Query) Active() Query {
	var out Query
	for _, f := range q {
		if !f.IsZero() {
			out = append(out, f)
		}
	}
	return out
}
