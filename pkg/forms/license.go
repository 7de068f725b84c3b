package forms

const licenseNumberLength = 8

// ValidationError is a single human-readable validation failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	ErrLicenseLength = &ValidationError{Message: "License number should consist of 8 characters"}
	ErrLicensePrefix = &ValidationError{Message: "First 3 characters should be uppercase letters"}
	ErrLicenseDigits = &ValidationError{Message: "Last 5 characters should be digits"}
)

// ValidateLicenseNumber returns value unchanged when it is three uppercase
// ASCII letters followed by five ASCII digits. Checks run in order and the
// first failing one is reported.
func ValidateLicenseNumber(value string) (string, error) {
	chars := []rune(value)
	if len(chars) != licenseNumberLength {
		return "", ErrLicenseLength
	}
	for _, r := range chars[:3] {
		if r < 'A' || r > 'Z' {
			return "", ErrLicensePrefix
		}
	}
	for _, r := range chars[3:] {
		if r < '0' || r > '9' {
			return "", ErrLicenseDigits
		}
	}
	return value, nil
}

func checkLicenseNumber(errs Errors, field, value string) bool {
	if !checkRequired(errs, field, value) {
		return false
	}
	if _, err := ValidateLicenseNumber(value); err != nil {
		errs.Add(field, err.Error())
		return false
	}
	return true
}
