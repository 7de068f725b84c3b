package forms

import (
	"net/mail"
	"net/url"
	"regexp"
)

const (
	usernameMaxLength = 150
	nameMaxLength     = 150
	emailMaxLength    = 254
)

var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)

const (
	msgUsernameInvalid  = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	msgPasswordMismatch = "The two password fields didn't match."
	msgEmailInvalid     = "Enter a valid email address."

	// MsgUsernameTaken and MsgLicenseTaken are reported by callers that
	// check uniqueness against the store.
	MsgUsernameTaken = "A user with that username already exists."
	MsgLicenseTaken  = "Driver with this License number already exists."
)

// DriverCreationForm registers a new driver account.
type DriverCreationForm struct {
	Username      string
	Password1     string
	Password2     string
	LicenseNumber string
	FirstName     string
	LastName      string
	Email         string
}

func DriverCreationFormFromValues(values url.Values) DriverCreationForm {
	return DriverCreationForm{
		Username:      values.Get("username"),
		Password1:     values.Get("password1"),
		Password2:     values.Get("password2"),
		LicenseNumber: values.Get("license_number"),
		FirstName:     values.Get("first_name"),
		LastName:      values.Get("last_name"),
		Email:         values.Get("email"),
	}
}

// Clean runs every check that does not need the store.
func (f DriverCreationForm) Clean() Errors {
	errs := NewErrors()

	if checkRequired(errs, "username", f.Username) && checkMaxLength(errs, "username", f.Username, usernameMaxLength) {
		if !usernamePattern.MatchString(f.Username) {
			errs.Add("username", msgUsernameInvalid)
		}
	}
	checkMaxLength(errs, "first_name", f.FirstName, nameMaxLength)
	checkMaxLength(errs, "last_name", f.LastName, nameMaxLength)
	checkEmail(errs, "email", f.Email)
	checkLicenseNumber(errs, "license_number", f.LicenseNumber)

	pw1 := checkRequired(errs, "password1", f.Password1)
	pw2 := checkRequired(errs, "password2", f.Password2)
	if pw1 && pw2 {
		if f.Password1 != f.Password2 {
			errs.Add("password2", msgPasswordMismatch)
		} else {
			attrs := []userAttribute{
				{label: "username", value: f.Username},
				{label: "first name", value: f.FirstName},
				{label: "last name", value: f.LastName},
				{label: "email address", value: f.Email},
			}
			for _, msg := range passwordProblems(f.Password2, attrs) {
				errs.Add("password2", msg)
			}
		}
	}
	return errs
}

// DriverLicenseUpdateForm changes only the license number of an existing driver.
type DriverLicenseUpdateForm struct {
	LicenseNumber string
}

func DriverLicenseUpdateFormFromValues(values url.Values) DriverLicenseUpdateForm {
	return DriverLicenseUpdateForm{LicenseNumber: values.Get("license_number")}
}

func (f DriverLicenseUpdateForm) Clean() Errors {
	errs := NewErrors()
	checkLicenseNumber(errs, "license_number", f.LicenseNumber)
	return errs
}

func checkEmail(errs Errors, field, value string) bool {
	if value == "" {
		return true
	}
	if !checkMaxLength(errs, field, value, emailMaxLength) {
		return false
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value || addr.Name != "" {
		errs.Add(field, msgEmailInvalid)
		return false
	}
	return true
}
