package forms

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	minPasswordLength = 8
	maxSimilarity     = 0.7
)

// commonPasswords is a short deny-list of the most frequently leaked passwords.
var commonPasswords = map[string]struct{}{
	"password": {}, "password1": {}, "password123": {}, "12345678": {}, "123456789": {},
	"1234567890": {}, "qwerty123": {}, "qwertyuiop": {}, "iloveyou": {}, "sunshine": {},
	"princess": {}, "football": {}, "baseball": {}, "welcome1": {}, "abc12345": {},
	"11111111": {}, "00000000": {}, "passw0rd": {}, "trustno1": {}, "superman": {},
	"letmein1": {}, "starwars": {}, "whatever": {}, "dragon123": {}, "master123": {},
}

var nonWord = regexp.MustCompile(`\W+`)

// userAttribute is a personal value a password must not resemble.
type userAttribute struct {
	label string
	value string
}

// passwordProblems lists every policy violation of password, in policy order.
func passwordProblems(password string, attrs []userAttribute) []string {
	var problems []string

	if similar := similarAttribute(password, attrs); similar != "" {
		problems = append(problems, fmt.Sprintf("The password is too similar to the %s.", similar))
	}
	if len([]rune(password)) < minPasswordLength {
		problems = append(problems, fmt.Sprintf(
			"This password is too short. It must contain at least %d characters.", minPasswordLength))
	}
	if _, ok := commonPasswords[strings.ToLower(strings.TrimSpace(password))]; ok {
		problems = append(problems, "This password is too common.")
	}
	if isNumeric(password) {
		problems = append(problems, "This password is entirely numeric.")
	}
	return problems
}

func similarAttribute(password string, attrs []userAttribute) string {
	pwd := strings.ToLower(password)
	for _, attr := range attrs {
		if attr.value == "" {
			continue
		}
		value := strings.ToLower(attr.value)
		parts := append(nonWord.Split(value, -1), value)
		for _, part := range parts {
			if part == "" || lengthRatioExceeded(pwd, part) {
				continue
			}
			if quickRatio(pwd, part) >= maxSimilarity {
				return attr.label
			}
		}
	}
	return ""
}

// lengthRatioExceeded skips values far shorter than the password; they
// cannot reach the similarity bound.
func lengthRatioExceeded(password, value string) bool {
	pwdLen := len([]rune(password))
	valueLen := len([]rune(value))
	bound := maxSimilarity / 2 * float64(pwdLen)
	return pwdLen >= 10*valueLen && float64(valueLen) < bound
}

// quickRatio is an upper bound on sequence similarity: twice the size of
// the character multiset intersection over the combined length.
func quickRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	avail := make(map[rune]int, len(rb))
	for _, r := range rb {
		avail[r]++
	}
	matches := 0
	for _, r := range ra {
		if avail[r] > 0 {
			avail[r]--
			matches++
		}
	}
	return 2 * float64(matches) / float64(total)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
