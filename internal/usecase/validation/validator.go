package validation

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/kailas-cloud/colladmin/internal/domain"
	"github.com/kailas-cloud/colladmin/internal/domain/collection/field"
	"github.com/kailas-cloud/colladmin/internal/domain/record"
)

var (
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	urlRegex   = regexp.MustCompile(`^https?://[^\s/$.?#][^\s]*$`)
)

// Error is a field-scoped validation failure. It never leaves the form.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string { return e.Field + ": " + e.Message }

// Unwrap lets callers match any validation failure with errors.Is(err, domain.ErrValidation).
func (e *Error) Unwrap() error { return domain.ErrValidation }

// check inspects a non-empty value and returns a message on failure.
type check func(v record.Value) string

// Validator checks values for one field. It performs no I/O and is safe to
// call on every keystroke.
type Validator struct {
	field  string
	label  string
	req    bool
	checks []check
}

// Build derives a validator from a field descriptor.
func Build(d field.Descriptor) Validator {
	v := Validator{field: d.Name(), label: d.DisplayName(), req: d.Required()}
	if v.label == "" {
		v.label = d.Name()
	}

	switch d.SemanticType() {
	case field.Email:
		v.checks = append(v.checks, matches(emailRegex, "must be a valid email address"))
	case field.URL:
		v.checks = append(v.checks, matches(urlRegex, "must be a valid URL"))
	case field.Number:
		v.checks = append(v.checks, isNumber)
	case field.Boolean:
		v.checks = append(v.checks, isBoolean)
	case field.Date:
		v.checks = append(v.checks, isDate)
	case field.UUID:
		v.checks = append(v.checks, isUUID)
	case field.Select:
		if opts := d.Options(); len(opts) > 0 {
			v.checks = append(v.checks, oneOf(opts))
		}
	}

	if d.SemanticType().Stringish() {
		if n, ok := d.MinLength(); ok {
			v.checks = append(v.checks, minLength(n))
		}
		if n, ok := d.MaxLength(); ok {
			v.checks = append(v.checks, maxLength(n))
		}
		if re := d.Pattern(); re != nil {
			v.checks = append(v.checks, matches(re, "has an invalid format"))
		}
	}
	return v
}

// Field returns the name of the validated field.
func (v Validator) Field() string { return v.field }

// Check validates one value. Optional fields accept empty input without
// running type checks.
func (v Validator) Check(value any) *Error {
	val := record.NewValue("", value)
	if val.IsEmpty() {
		if v.req {
			return &Error{Field: v.field, Message: v.label + " is required"}
		}
		return nil
	}
	for _, c := range v.checks {
		if msg := c(val); msg != "" {
			return &Error{Field: v.field, Message: v.label + " " + msg}
		}
	}
	return nil
}

func matches(re *regexp.Regexp, msg string) check {
	return func(v record.Value) string {
		if !re.MatchString(v.String()) {
			return msg
		}
		return ""
	}
}

func isNumber(v record.Value) string {
	if _, ok := v.Number(); !ok {
		return "must be a number"
	}
	return ""
}

func isBoolean(v record.Value) string {
	if _, ok := v.Bool(); !ok {
		return "must be true or false"
	}
	return ""
}

// isDate only requires a non-empty string; calendar semantics are not checked.
func isDate(v record.Value) string {
	switch v.Raw().(type) {
	case string, time.Time:
		return ""
	}
	return "must be a date"
}

func isUUID(v record.Value) string {
	if _, err := uuid.Parse(v.String()); err != nil {
		return "must be a valid UUID"
	}
	return ""
}

func oneOf(options []string) check {
	return func(v record.Value) string {
		if !slices.Contains(options, v.String()) {
			return "must be one of: " + strings.Join(options, ", ")
		}
		return ""
	}
}

func minLength(n int) check {
	return func(v record.Value) string {
		if utf8.RuneCountInString(v.String()) < n {
			return fmt.Sprintf("must be at least %d characters", n)
		}
		return ""
	}
}

func maxLength(n int) check {
	return func(v record.Value) string {
		if utf8.RuneCountInString(v.String()) > n {
			return fmt.Sprintf("must be at most %d characters", n)
		}
		return ""
	}
}
