// Package display maps field descriptors to table columns and form widgets.
package display

import (
	"strings"

	"github.com/kailas-cloud/colladmin/internal/domain/collection"
	"github.com/kailas-cloud/colladmin/internal/domain/collection/field"
	"github.com/kailas-cloud/colladmin/internal/domain/record"
)

// WidthKind is a column width class.
type WidthKind string

// Width classes.
const (
	WidthNarrow     WidthKind = "narrow"
	WidthMedium     WidthKind = "medium"
	WidthMediumWide WidthKind = "medium-wide"
	WidthAuto       WidthKind = "auto"
)

// Width is a column width; Pixels is 0 for auto.
type Width struct {
	Kind   WidthKind
	Pixels int
}

// Fixed width presets.
var (
	widthID     = Width{Kind: WidthNarrow, Pixels: 80}
	widthBool   = Width{Kind: WidthNarrow, Pixels: 80}
	widthNumber = Width{Kind: WidthMedium, Pixels: 120}
	widthDate   = Width{Kind: WidthMedium, Pixels: 150}
	widthEmail  = Width{Kind: WidthMediumWide, Pixels: 200}
	widthName   = Width{Kind: WidthMedium, Pixels: 150}
	widthAuto   = Width{Kind: WidthAuto}
)

// Column is the table metadata of one field.
type Column struct {
	Field      string
	Header     string
	Type       field.SemanticType
	Width      Width
	Sortable   bool
	Filterable bool
}

// Widget is the form input kind of a field.
type Widget string

// Widget kinds, one per semantic type.
const (
	WidgetText     Widget = "text"
	WidgetEmail    Widget = "email"
	WidgetURL      Widget = "url"
	WidgetNumber   Widget = "number"
	WidgetCheckbox Widget = "checkbox"
	WidgetDate     Widget = "date"
	WidgetSelect   Widget = "select"
	WidgetTextarea Widget = "textarea"
	WidgetUUID     Widget = "uuid"
)

var widgets = map[field.SemanticType]Widget{
	field.Text:     WidgetText,
	field.Email:    WidgetEmail,
	field.URL:      WidgetURL,
	field.Number:   WidgetNumber,
	field.Boolean:  WidgetCheckbox,
	field.Date:     WidgetDate,
	field.Select:   WidgetSelect,
	field.Textarea: WidgetTextarea,
	field.UUID:     WidgetUUID,
}

// widthFor applies the width heuristic; first match wins.
func widthFor(d field.Descriptor) Width {
	name := strings.ToLower(d.Name())
	switch {
	case name == "id":
		return widthID
	case d.SemanticType() == field.Boolean:
		return widthBool
	case d.SemanticType() == field.Number:
		return widthNumber
	case containsAny(name, "date", "created", "updated"):
		return widthDate
	case strings.Contains(name, "email"):
		return widthEmail
	case containsAny(name, "name", "title"):
		return widthName
	default:
		return widthAuto
	}
}

// MapDisplay returns table metadata for a field. Every field is sortable and
// filterable; callers degrade gracefully on values that do not compare.
func MapDisplay(d field.Descriptor) Column {
	return Column{
		Field:      d.Name(),
		Header:     d.DisplayName(),
		Type:       d.SemanticType(),
		Width:      widthFor(d),
		Sortable:   true,
		Filterable: true,
	}
}

// MapWidget returns the input widget of a field. A select without options
// degrades to a text input.
func MapWidget(d field.Descriptor) Widget {
	if d.SemanticType() == field.Select && len(d.Options()) == 0 {
		return WidgetText
	}
	if w, ok := widgets[d.SemanticType()]; ok {
		return w
	}
	return WidgetText
}

// Columns returns the table columns of a collection in field order.
func Columns(desc collection.Descriptor) []Column {
	cols := make([]Column, len(desc.Fields()))
	for i, f := range desc.Fields() {
		cols[i] = MapDisplay(f)
	}
	return cols
}

// FormField is one input of a create/edit form.
type FormField struct {
	Field    string
	Label    string
	Widget   Widget
	Required bool
	Options  []string
}

// Form returns the inputs of a create/edit form; the primary field is excluded.
func Form(desc collection.Descriptor) []FormField {
	editable := desc.Editable()
	out := make([]FormField, len(editable))
	for i, f := range editable {
		w := MapWidget(f)
		var opts []string
		if w == WidgetSelect {
			opts = f.Options()
		}
		out[i] = FormField{
			Field:    f.Name(),
			Label:    f.DisplayName(),
			Widget:   w,
			Required: f.Required(),
			Options:  opts,
		}
	}
	return out
}

// FormatCell renders a typed value for a table cell.
func FormatCell(v record.Value) string {
	if v.IsEmpty() {
		return ""
	}
	if v.SemanticType() == field.Boolean {
		if b, ok := v.Bool(); ok {
			if b {
				return "Yes"
			}
			return "No"
		}
	}
	return v.String()
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
