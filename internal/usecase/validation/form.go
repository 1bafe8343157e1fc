package validation

import (
	"strings"

	"github.com/kailas-cloud/colladmin/internal/domain"
	"github.com/kailas-cloud/colladmin/internal/domain/collection"
	"github.com/kailas-cloud/colladmin/internal/domain/collection/field"
)

// Errors collects field-scoped failures in form order.
type Errors []*Error

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Error()
	}
	return domain.ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

// Unwrap lets callers match with errors.Is(err, domain.ErrValidation).
func (e Errors) Unwrap() error { return domain.ErrValidation }

// ByField returns the message of each failing field.
func (e Errors) ByField() map[string]string {
	out := make(map[string]string, len(e))
	for _, fe := range e {
		out[fe.Field] = fe.Message
	}
	return out
}

// Form holds the validators of one form instance.
type Form struct {
	order      []string
	validators map[string]Validator
}

// NewForm builds validators for the given fields.
func NewForm(fields []field.Descriptor) *Form {
	f := &Form{
		order:      make([]string, 0, len(fields)),
		validators: make(map[string]Validator, len(fields)),
	}
	for _, d := range fields {
		f.order = append(f.order, d.Name())
		f.validators[d.Name()] = Build(d)
	}
	return f
}

// NewRecordForm builds validators for the editable fields of a collection.
func NewRecordForm(desc collection.Descriptor) *Form {
	return NewForm(desc.Editable())
}

// CheckField validates a single field, e.g. on every keystroke.
// Unknown fields are accepted.
func (f *Form) CheckField(name string, value any) *Error {
	v, ok := f.validators[name]
	if !ok {
		return nil
	}
	return v.Check(value)
}

// Validate checks every field of the form; missing keys count as empty.
// It returns nil when the data is valid.
func (f *Form) Validate(data map[string]any) Errors {
	var errs Errors
	for _, name := range f.order {
		if fe := f.validators[name].Check(data[name]); fe != nil {
			errs = append(errs, fe)
		}
	}
	return errs
}

// ValidateRecord builds a form for the collection and validates data in one call.
func ValidateRecord(desc collection.Descriptor, data map[string]any) Errors {
	return NewRecordForm(desc).Validate(data)
}
