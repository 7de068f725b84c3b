package service

import (
	"errors"

	"taxiservice/pkg/forms"
	"taxiservice/storage"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// uniqueMessages maps a unique column to the message shown on its form field.
var uniqueMessages = map[string]string{
	"username":       forms.MsgUsernameTaken,
	"license_number": forms.MsgLicenseTaken,
	"name":           msgManufacturerNameTaken,
}

const (
	msgManufacturerNameTaken = "Manufacturer with this Name already exists."
	msgManufacturerInUse     = "Cannot delete this manufacturer because cars still reference it."
)

// formErrors turns expected storage failures into field errors. Any other
// error is returned unchanged.
func formErrors(err error) (forms.Errors, error) {
	var exists *storage.AlreadyExistsError
	if errors.As(err, &exists) {
		errs := forms.NewErrors()
		msg, ok := uniqueMessages[exists.Field]
		if !ok {
			msg = exists.Error()
		}
		errs.Add(exists.Field, msg)
		return errs, nil
	}

	var ref *storage.InvalidReferenceError
	if errors.As(err, &ref) {
		errs := forms.NewErrors()
		errs.Add(ref.Field, forms.InvalidChoice())
		return errs, nil
	}
	return nil, err
}
