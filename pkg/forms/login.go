package forms

import "net/url"

const (
	MsgInvalidLogin  = "Please enter a correct username and password. Note that both fields may be case-sensitive."
	MsgInactiveLogin = "This account is inactive."
)

type LoginForm struct {
	Username string
	Password string
	Next     string
}

func LoginFormFromValues(values url.Values) LoginForm {
	return LoginForm{
		Username: values.Get("username"),
		Password: values.Get("password"),
		Next:     values.Get("next"),
	}
}

func (f LoginForm) Clean() Errors {
	errs := NewErrors()
	checkRequired(errs, "username", f.Username)
	checkRequired(errs, "password", f.Password)
	return errs
}
