// Package validation checks single answers against their field's rules.
// Callers only validate fields that are currently visible.
package validation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/mbolis/quick-form/model"
)

type Kind string

const (
	Required      Kind = "required"
	InvalidEmail  Kind = "email"
	BelowMin      Kind = "min"
	AboveMax      Kind = "max"
	NotANumber    Kind = "number"
	InvalidOption Kind = "option"
	InvalidDate   Kind = "date"
)

// range bounds used when the field configures none
const (
	DefaultMin = 0
	DefaultMax = 10
)

type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

var reEmail = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validate returns the first rule value violates, or nil.
func Validate(field model.Field, value model.Value) *Error {
	if !model.Present(value) {
		if field.Validation.Required {
			return &Error{Required, "This field is required"}
		}
		return nil
	}

	switch field.Type {
	case model.Email:
		if !reEmail.MatchString(value.Text()) {
			return &Error{InvalidEmail, "Please enter a valid email address"}
		}

	case model.Range:
		n, ok := value.(model.NumericValue)
		if !ok {
			return &Error{NotANumber, "Value must be a number"}
		}
		lo, hi := bounds(field.Validation)
		if float64(n) < lo {
			return &Error{BelowMin, fmt.Sprintf("Value must be at least %s", formatNumber(lo))}
		}
		if float64(n) > hi {
			return &Error{AboveMax, fmt.Sprintf("Value must be at most %s", formatNumber(hi))}
		}

	case model.Date:
		if _, err := time.Parse(time.DateOnly, value.Text()); err != nil {
			return &Error{InvalidDate, "Please enter a valid date"}
		}

	case model.SingleChoice, model.Dropdown, model.MultiChoice:
		if len(field.Options) == 0 {
			return nil
		}
		for _, v := range selected(value) {
			if !hasOption(field.Options, v) {
				return &Error{InvalidOption, fmt.Sprintf("%q is not one of the available options", v)}
			}
		}
	}

	return nil
}

// bounds falls back to the defaults only when neither bound is set; a
// single configured bound leaves the other side open.
func bounds(v model.Validation) (lo, hi float64) {
	if v.Min == nil && v.Max == nil {
		return DefaultMin, DefaultMax
	}
	lo, hi = math.Inf(-1), math.Inf(1)
	if v.Min != nil {
		lo = *v.Min
	}
	if v.Max != nil {
		hi = *v.Max
	}
	return
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func selected(value model.Value) []string {
	if multi, ok := value.(model.MultiValue); ok {
		return multi
	}
	return []string{value.Text()}
}

func hasOption(options []model.Option, value string) bool {
	for _, o := range options {
		if o.Value == value {
			return true
		}
	}
	return false
}

// Errors maps field ids to the message of their first violation.
type Errors map[string]string

func (errs Errors) Error() string {
	return fmt.Sprintf("%d invalid field(s)", len(errs))
}

// ValidateAll validates each given field against its answer.
func ValidateAll(fields []model.Field, answers model.Answers) Errors {
	errs := Errors{}
	for _, f := range fields {
		if err := Validate(f, answers[f.ID]); err != nil {
			errs[f.ID] = err.Message
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
