package forms

import (
	"net/url"
	"strconv"
)

const carModelMaxLength = 255

// CarForm sets model, manufacturer and the full driver set of a car at once.
type CarForm struct {
	Model          string
	ManufacturerID int64
	DriverIDs      []int64

	decodeErrs Errors
}

// CarFormFromValues decodes a submission. Identifiers that are not
// positive integers can never match a record and are kept as errors for Clean.
func CarFormFromValues(values url.Values) CarForm {
	form := CarForm{Model: values.Get("model"), decodeErrs: NewErrors()}

	if raw := values.Get("manufacturer"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			form.decodeErrs.Add("manufacturer", msgInvalidChoice)
		} else {
			form.ManufacturerID = id
		}
	}

	seen := make(map[int64]struct{})
	for _, raw := range values["drivers"] {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			form.decodeErrs.Add("drivers", InvalidChoiceValue(raw))
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		form.DriverIDs = append(form.DriverIDs, id)
	}
	return form
}

// Clean checks the form shape. Whether the manufacturer and drivers exist
// is decided by the store.
func (f CarForm) Clean() Errors {
	errs := NewErrors()
	errs.Merge(f.decodeErrs)

	if checkRequired(errs, "model", f.Model) {
		checkMaxLength(errs, "model", f.Model, carModelMaxLength)
	}
	if f.ManufacturerID <= 0 && !errs.Has("manufacturer") {
		errs.Add("manufacturer", msgRequired)
	}
	return errs
}
