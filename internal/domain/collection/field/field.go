package field

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SemanticType drives validation and widget choice for a field.
type SemanticType string

// Semantic type constants.
const (
	Text     SemanticType = "text"
	Email    SemanticType = "email"
	URL      SemanticType = "url"
	Number   SemanticType = "number"
	Boolean  SemanticType = "boolean"
	Date     SemanticType = "date"
	Select   SemanticType = "select"
	Textarea SemanticType = "textarea"
	UUID     SemanticType = "uuid"
)

// SemanticTypes lists the full vocabulary in declaration order.
var SemanticTypes = []SemanticType{Text, Email, URL, Number, Boolean, Date, Select, Textarea, UUID}

// IsValid checks if the semantic type belongs to the vocabulary.
func (t SemanticType) IsValid() bool {
	switch t {
	case Text, Email, URL, Number, Boolean, Date, Select, Textarea, UUID:
		return true
	}
	return false
}

// Stringish reports whether length and pattern constraints apply to the type.
func (t SemanticType) Stringish() bool {
	return t == Text || t == Textarea || t == Select
}

// Raw is field metadata as the backend reports it. Type is optional and may
// use backend vocabulary; see inference for how it is resolved.
type Raw struct {
	Name        string   `json:"name" yaml:"name"`
	DisplayName string   `json:"display_name,omitempty" yaml:"display_name"`
	Type        string   `json:"type,omitempty" yaml:"type"`
	Required    bool     `json:"required,omitempty" yaml:"required"`
	MinLength   *int     `json:"min_length,omitempty" yaml:"min_length"`
	MaxLength   *int     `json:"max_length,omitempty" yaml:"max_length"`
	Pattern     string   `json:"pattern,omitempty" yaml:"pattern"`
	Options     []string `json:"options,omitempty" yaml:"options"`
	IsPrimary   bool     `json:"is_primary,omitempty" yaml:"is_primary"`
}

// Constraints holds the optional validation constraints of a field.
type Constraints struct {
	Required  bool
	MinLength *int
	MaxLength *int
	Pattern   string
	Options   []string
}

// Descriptor is an immutable value object describing one collection field
// with exactly one resolved semantic type.
type Descriptor struct {
	name         string
	displayName  string
	semanticType SemanticType
	required     bool
	minLength    *int
	maxLength    *int
	pattern      *regexp.Regexp
	options      []string
	primary      bool
}

// New validates and creates a Descriptor.
// Name must be non-empty and at most 128 chars, type must be in the vocabulary,
// minLength must not exceed maxLength and pattern must compile.
func New(name, displayName string, st SemanticType, c Constraints, primary bool) (Descriptor, error) {
	if strings.TrimSpace(name) == "" {
		return Descriptor{}, fmt.Errorf("field name is required")
	}
	if len(name) > 128 {
		return Descriptor{}, fmt.Errorf("field name %q too long (max 128)", name)
	}
	if !st.IsValid() {
		return Descriptor{}, fmt.Errorf("invalid semantic type %q for %q", st, name)
	}
	if c.MinLength != nil && *c.MinLength < 0 {
		return Descriptor{}, fmt.Errorf("field %q: min length must not be negative", name)
	}
	if c.MinLength != nil && c.MaxLength != nil && *c.MinLength > *c.MaxLength {
		return Descriptor{}, fmt.Errorf("field %q: min length %d exceeds max length %d",
			name, *c.MinLength, *c.MaxLength)
	}
	var re *regexp.Regexp
	if c.Pattern != "" {
		var err error
		re, err = regexp.Compile(c.Pattern)
		if err != nil {
			return Descriptor{}, fmt.Errorf("field %q: invalid pattern: %w", name, err)
		}
	}
	if displayName == "" {
		displayName = Humanize(name)
	}
	return Descriptor{
		name:         name,
		displayName:  displayName,
		semanticType: st,
		required:     c.Required,
		minLength:    cloneInt(c.MinLength),
		maxLength:    cloneInt(c.MaxLength),
		pattern:      re,
		options:      append([]string(nil), c.Options...),
		primary:      primary,
	}, nil
}

// Reconstruct creates a Descriptor without validation. An invalid pattern is dropped.
func Reconstruct(name, displayName string, st SemanticType, c Constraints, primary bool) Descriptor {
	re, _ := regexp.Compile(c.Pattern)
	if c.Pattern == "" {
		re = nil
	}
	return Descriptor{
		name:         name,
		displayName:  displayName,
		semanticType: st,
		required:     c.Required,
		minLength:    c.MinLength,
		maxLength:    c.MaxLength,
		pattern:      re,
		options:      c.Options,
		primary:      primary,
	}
}

// Name returns the field name.
func (d Descriptor) Name() string { return d.name }

// DisplayName returns the human-facing label.
func (d Descriptor) DisplayName() string { return d.displayName }

// SemanticType returns the resolved semantic type.
func (d Descriptor) SemanticType() SemanticType { return d.semanticType }

// Required reports whether an empty value is rejected.
func (d Descriptor) Required() bool { return d.required }

// MinLength returns the minimum length constraint, if any.
func (d Descriptor) MinLength() (int, bool) {
	if d.minLength == nil {
		return 0, false
	}
	return *d.minLength, true
}

// MaxLength returns the maximum length constraint, if any.
func (d Descriptor) MaxLength() (int, bool) {
	if d.maxLength == nil {
		return 0, false
	}
	return *d.maxLength, true
}

// Pattern returns the compiled pattern constraint or nil.
func (d Descriptor) Pattern() *regexp.Regexp { return d.pattern }

// Options returns the allowed values of a select field.
func (d Descriptor) Options() []string { return d.options }

// IsPrimary reports whether the field identifies records.
func (d Descriptor) IsPrimary() bool { return d.primary }

// Humanize turns a field name like "created_at" into "Created at".
func Humanize(name string) string {
	s := strings.NewReplacer("_", " ", "-", " ").Replace(strings.TrimSpace(name))
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
