package validation

import (
	"errors"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the wire format of date-only fields
const DateLayout = "2006-01-02"

// Rules for staff account fields. Passwords are capped at bcrypt's input limit.
const (
	EmailRule    = "required,email,max=255"
	NameRule     = "required,min=2,max=100"
	PasswordRule = "required,min=8,max=72"
)

var timeOfDayRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// IsDate reports whether s is a real calendar date in YYYY-MM-DD form
func IsDate(s string) bool {
	if len(s) != len(DateLayout) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// IsTimeOfDay reports whether s is HH:MM on a 24-hour clock
func IsTimeOfDay(s string) bool {
	return timeOfDayRegex.MatchString(s)
}

// Var checks a single value against a validator tag and reports the
// first failure under field
func Var(field string, value any, tag string) error {
	err := validate.Var(value, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	return Single(field, message(verrs[0]))
}

func Email(email string) error {
	return Var("email", email, EmailRule)
}

func Password(password string) error {
	return Var("password", password, PasswordRule)
}
