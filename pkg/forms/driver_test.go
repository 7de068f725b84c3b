package forms

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validDriverValues() url.Values {
	return url.Values{
		"username":       {"testuser"},
		"password1":      {"Password123ror"},
		"password2":      {"Password123ror"},
		"license_number": {"AAA11111"},
		"first_name":     {"Name"},
		"last_name":      {"Surname"},
		"email":          {"email@email.com"},
	}
}

func TestDriverCreationFormValid(t *testing.T) {
	form := DriverCreationFormFromValues(validDriverValues())
	errs := form.Clean()
	assert.True(t, errs.Valid(), "%v", errs)
	assert.Equal(t, "AAA11111", form.LicenseNumber)
}

func TestDriverCreationFormInvalidLicense(t *testing.T) {
	values := validDriverValues()
	values.Set("license_number", "AAA1")

	errs := DriverCreationFormFromValues(values).Clean()
	assert.False(t, errs.Valid())
	assert.Equal(t, "License number should consist of 8 characters", errs.Get("license_number"))
}

func TestDriverCreationFormMissingLicense(t *testing.T) {
	values := validDriverValues()
	values.Del("license_number")

	errs := DriverCreationFormFromValues(values).Clean()
	assert.Equal(t, "This field is required.", errs.Get("license_number"))
}

func TestDriverCreationFormPasswordMismatch(t *testing.T) {
	values := validDriverValues()
	values.Set("password2", "Password123rorX")

	errs := DriverCreationFormFromValues(values).Clean()
	assert.Equal(t, []string{"The two password fields didn't match."}, errs["password2"])
}

func TestDriverCreationFormPasswordPolicy(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     string
	}{
		{"too short", "Xy7!q", "This password is too short. It must contain at least 8 characters."},
		{"numeric", "90817263545", "This password is entirely numeric."},
		{"common", "password123", "This password is too common."},
		{"like username", "testuser1", "The password is too similar to the username."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := validDriverValues()
			values.Set("password1", tt.password)
			values.Set("password2", tt.password)

			errs := DriverCreationFormFromValues(values).Clean()
			assert.Contains(t, errs["password2"], tt.want)
		})
	}
}

func TestDriverCreationFormUsername(t *testing.T) {
	values := validDriverValues()
	values.Set("username", "bad name!")
	errs := DriverCreationFormFromValues(values).Clean()
	assert.Contains(t, errs.Get("username"), "Enter a valid username.")

	values.Set("username", "")
	errs = DriverCreationFormFromValues(values).Clean()
	assert.Equal(t, "This field is required.", errs.Get("username"))
}

func TestDriverCreationFormEmail(t *testing.T) {
	values := validDriverValues()
	values.Set("email", "not-an-email")
	errs := DriverCreationFormFromValues(values).Clean()
	assert.Equal(t, "Enter a valid email address.", errs.Get("email"))

	values.Set("email", "")
	errs = DriverCreationFormFromValues(values).Clean()
	assert.False(t, errs.Has("email"))
}

func TestDriverLicenseUpdateForm(t *testing.T) {
	errs := DriverLicenseUpdateFormFromValues(url.Values{"license_number": {"AAA11111"}}).Clean()
	assert.True(t, errs.Valid())

	errs = DriverLicenseUpdateFormFromValues(url.Values{"license_number": {"AA111"}}).Clean()
	assert.False(t, errs.Valid())
	assert.Equal(t, "License number should consist of 8 characters", errs.Get("license_number"))

	errs = DriverLicenseUpdateFormFromValues(url.Values{"license_number": {"abc12345"}}).Clean()
	assert.Equal(t, "First 3 characters should be uppercase letters", errs.Get("license_number"))
}
