// Package forms validates submitted form values. Expected validation
// failures are reported as Errors keyed by field, never as Go errors.
package forms

// NonField collects errors that belong to the form as a whole.
const NonField = "__all__"

const (
	msgRequired      = "This field is required."
	msgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
)

// Errors maps a field name to its failure messages in the order they were found.
type Errors map[string][]string

func NewErrors() Errors {
	return make(Errors)
}

func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Get returns the first message for field or "".
func (e Errors) Get(field string) string {
	if msgs := e[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

func (e Errors) Has(field string) bool {
	return len(e[field]) > 0
}

func (e Errors) Valid() bool {
	return len(e) == 0
}

// Merge appends every message of other into e.
func (e Errors) Merge(other Errors) {
	for field, msgs := range other {
		e[field] = append(e[field], msgs...)
	}
}

func checkRequired(errs Errors, field, value string) bool {
	if value == "" {
		errs.Add(field, msgRequired)
		return false
	}
	return true
}

func checkMaxLength(errs Errors, field, value string, limit int) bool {
	if n := len([]rune(value)); n > limit {
		errs.Add(field, maxLengthMessage(limit, n))
		return false
	}
	return true
}

// InvalidChoice is the message reported when a referenced record does not exist.
func InvalidChoice() string {
	return msgInvalidChoice
}

// InvalidChoiceValue names the offending value for multi-select fields.
func InvalidChoiceValue(value string) string {
	return "Select a valid choice. " + value + " is not one of the available choices."
}
