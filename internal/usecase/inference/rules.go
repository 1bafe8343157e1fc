package inference

import (
	"strings"

	"github.com/kailas-cloud/colladmin/internal/domain/collection/field"
)

// Source tells how a semantic type was chosen.
type Source string

// Resolution sources.
const (
	SourceExplicit Source = "explicit"
	SourceName     Source = "name"
	SourceSample   Source = "sample"
	SourceFallback Source = "fallback"
)

// nameRule maps name substrings to a semantic type.
type nameRule struct {
	substrings []string
	st         field.SemanticType
}

// nameRules is evaluated top to bottom against the lowercased field name.
// First match wins. Every caller goes through this one table.
var nameRules = []nameRule{
	{[]string{"email"}, field.Email},
	{[]string{"url", "link", "website"}, field.URL},
	{[]string{"price", "amount", "cost", "total", "count", "quantity"}, field.Number},
	{[]string{"active", "enabled", "status", "is_"}, field.Boolean},
	{[]string{"date", "created", "updated", "published"}, field.Date},
	{[]string{"description", "content", "notes", "comment", "bio"}, field.Textarea},
	{[]string{"category", "type", "role"}, field.Select},
}

// explicitAliases maps backend type vocabulary onto semantic types. Generic
// storage types such as string or varchar are absent so the name rules run.
var explicitAliases = map[string]field.SemanticType{
	"int":       field.Number,
	"integer":   field.Number,
	"float":     field.Number,
	"decimal":   field.Number,
	"numeric":   field.Number,
	"bool":      field.Boolean,
	"datetime":  field.Date,
	"timestamp": field.Date,
	"enum":      field.Select,
	"longtext":  field.Textarea,
	"text_area": field.Textarea,
}

// explicitType resolves explicit type metadata. ok is false when the
// metadata is absent or not recognized.
func explicitType(raw string) (field.SemanticType, bool) {
	t := strings.ToLower(strings.TrimSpace(raw))
	if t == "" {
		return "", false
	}
	if st := field.SemanticType(t); st.IsValid() {
		return st, true
	}
	st, ok := explicitAliases[t]
	return st, ok
}

// byName applies the ordered name rule table.
func byName(name string) (field.SemanticType, bool) {
	lower := strings.ToLower(name)
	for _, r := range nameRules {
		for _, sub := range r.substrings {
			if strings.Contains(lower, sub) {
				return r.st, true
			}
		}
	}
	return "", false
}

// Resolve returns the semantic type of a field and how it was chosen.
// It is pure and deterministic: the same metadata always resolves the same way.
func Resolve(raw field.Raw) (field.SemanticType, Source) {
	if st, ok := explicitType(raw.Type); ok {
		return st, SourceExplicit
	}
	if st, ok := byName(raw.Name); ok {
		return st, SourceName
	}
	return field.Text, SourceFallback
}

// Infer returns the semantic type of a field.
func Infer(raw field.Raw) field.SemanticType {
	st, _ := Resolve(raw)
	return st
}
