package collection

import (
	"fmt"

	"github.com/kailas-cloud/colladmin/internal/domain/collection/field"
)

// DefaultPrimaryField is used as the record identifier when no field is marked primary.
const DefaultPrimaryField = "id"

// Descriptor is the resolved shape of one collection (immutable value object).
// It is fetched on collection selection and discarded on selection change.
type Descriptor struct {
	identifier string
	fields     []field.Descriptor
}

func validateFields(fields []field.Descriptor) error {
	seen := make(map[string]bool, len(fields))
	primaries := 0
	for _, f := range fields {
		if seen[f.Name()] {
			return fmt.Errorf("duplicate field name: %s", f.Name())
		}
		seen[f.Name()] = true
		if f.IsPrimary() {
			primaries++
		}
	}
	if primaries > 1 {
		return fmt.Errorf("at most one primary field allowed, got %d", primaries)
	}
	return nil
}

// New validates and creates a Descriptor.
// Identifier is the collection name or id; field names must be unique.
func New(identifier string, fields []field.Descriptor) (Descriptor, error) {
	if identifier == "" {
		return Descriptor{}, fmt.Errorf("collection identifier is required")
	}
	if err := validateFields(fields); err != nil {
		return Descriptor{}, err
	}
	return Descriptor{
		identifier: identifier,
		fields:     append([]field.Descriptor(nil), fields...),
	}, nil
}

// Reconstruct creates a Descriptor without validation.
func Reconstruct(identifier string, fields []field.Descriptor) Descriptor {
	return Descriptor{identifier: identifier, fields: fields}
}

// Identifier returns the collection name or id.
func (d Descriptor) Identifier() string { return d.identifier }

// Fields returns the field descriptors in display order.
func (d Descriptor) Fields() []field.Descriptor { return d.fields }

// IsEmpty reports whether the descriptor has no fields.
func (d Descriptor) IsEmpty() bool { return len(d.fields) == 0 }

// FieldByName looks up a field by name.
func (d Descriptor) FieldByName(name string) (field.Descriptor, bool) {
	for _, f := range d.fields {
		if f.Name() == name {
			return f, true
		}
	}
	return field.Descriptor{}, false
}

// PrimaryName returns the name of the identifying field: the field marked
// primary, otherwise DefaultPrimaryField.
func (d Descriptor) PrimaryName() string {
	for _, f := range d.fields {
		if f.IsPrimary() {
			return f.Name()
		}
	}
	return DefaultPrimaryField
}

// Editable returns the fields a create/edit form collects (everything but the primary field).
func (d Descriptor) Editable() []field.Descriptor {
	primary := d.PrimaryName()
	out := make([]field.Descriptor, 0, len(d.fields))
	for _, f := range d.fields {
		if f.Name() == primary {
			continue
		}
		out = append(out, f)
	}
	return out
}
