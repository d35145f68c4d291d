// ABOUTME: Field validators shared by the console's huh forms
// ABOUTME: Checks run through the validator package; messages are translated

package forms

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/markalston/clinic-console/internal/i18n"
	"github.com/markalston/clinic-console/internal/validation"
)

// DateTimeLayout is the layout staff type appointment times in.
const DateTimeLayout = "2006-01-02 15:04"

// Required rejects blank input.
func Required(s string) error {
	if validation.Var(strings.TrimSpace(s), "required") != nil {
		return errors.New(i18n.T("form.required"))
	}
	return nil
}

// Email requires a well-formed address.
func Email(s string) error {
	if err := Required(s); err != nil {
		return err
	}
	return OptionalEmail(s)
}

// OptionalEmail accepts blank input or a well-formed address.
func OptionalEmail(s string) error {
	if validation.Var(strings.TrimSpace(s), "omitempty,email") != nil {
		return errors.New(i18n.T("form.email"))
	}
	return nil
}

// MinLength requires at least n characters.
func MinLength(n int) func(string) error {
	return func(s string) error {
		if validation.Var(s, "min="+strconv.Itoa(n)) != nil {
			return errors.New(i18n.T("form.min_length", map[string]any{"Count": n}))
		}
		return nil
	}
}

// DateTime requires a time in DateTimeLayout.
func DateTime(s string) error {
	if _, err := ParseDateTime(s); err != nil {
		return errors.New(i18n.T("form.datetime", map[string]any{"Layout": DateTimeLayout}))
	}
	return nil
}

// ParseDateTime reads a local time in DateTimeLayout.
func ParseDateTime(s string) (time.Time, error) {
	return time.ParseInLocation(DateTimeLayout, strings.TrimSpace(s), time.Local)
}
