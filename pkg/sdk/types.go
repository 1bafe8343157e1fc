package colladmin

import (
	"github.com/kailas-cloud/colladmin/internal/repository/items"
	"github.com/kailas-cloud/colladmin/internal/usecase/browse"
	"github.com/kailas-cloud/colladmin/internal/usecase/display"
)

// Record is one row of a collection as decoded from JSON.
type Record map[string]any

// Field is the resolved metadata of one collection field.
type Field struct {
	Name     string
	Label    string
	Type     string // text, email, url, number, boolean, date, select, textarea, uuid
	Widget   string // form input; empty for the primary field
	Width    string // narrow, medium, medium-wide, auto
	Pixels   int    // 0 for auto width
	Required bool
	Primary  bool
	Options  []string
}

// Schema describes a collection.
type Schema struct {
	Collection string
	Fields     []Field
	// Synthesized is set when the backend had no field metadata and the
	// schema was derived from a sample record.
	Synthesized bool
}

// ListOptions holds optional list parameters; zero values use backend defaults.
type ListOptions struct {
	Limit   int
	Offset  int
	Page    int
	PerPage int
	Sort    string
	Order   string // asc, desc
	Filter  string
}

func (o ListOptions) pagination() items.Pagination {
	return items.Pagination{
		Limit:   o.Limit,
		Offset:  o.Offset,
		Page:    o.Page,
		PerPage: o.PerPage,
		Sort:    o.Sort,
		Order:   o.Order,
		Filter:  o.Filter,
	}
}

func schemaFromView(v browse.View) Schema {
	primary := v.Descriptor.PrimaryName()
	fields := make([]Field, len(v.Descriptor.Fields()))
	for i, f := range v.Descriptor.Fields() {
		col := v.Columns[i]
		out := Field{
			Name:     f.Name(),
			Label:    f.DisplayName(),
			Type:     string(f.SemanticType()),
			Width:    string(col.Width.Kind),
			Pixels:   col.Width.Pixels,
			Required: f.Required(),
			Primary:  f.Name() == primary,
			Options:  f.Options(),
		}
		if !out.Primary {
			out.Widget = string(display.MapWidget(f))
		}
		fields[i] = out
	}
	return Schema{Collection: v.Collection, Fields: fields, Synthesized: v.Synthesized}
}
