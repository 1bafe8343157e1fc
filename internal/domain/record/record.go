package record

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/kailas-cloud/colladmin/internal/domain/collection"
	"github.com/kailas-cloud/colladmin/internal/domain/collection/field"
)

// Value is a record value tagged with the semantic type of its field.
type Value struct {
	semanticType field.SemanticType
	raw          any
}

// NewValue tags a raw value with a semantic type.
func NewValue(st field.SemanticType, raw any) Value {
	return Value{semanticType: st, raw: raw}
}

// SemanticType returns the type tag.
func (v Value) SemanticType() field.SemanticType { return v.semanticType }

// Raw returns the untyped value as decoded from the backend.
func (v Value) Raw() any { return v.raw }

// IsEmpty reports whether the value is absent or an empty/blank string.
func (v Value) IsEmpty() bool {
	switch x := v.raw.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	}
	return false
}

// String renders the value as text regardless of its tag.
func (v Value) String() string {
	switch x := v.raw.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return fmt.Sprint(x)
	}
}

// Number returns the value as a finite float. ok is false when the value
// does not represent a number.
func (v Value) Number() (float64, bool) {
	var f float64
	switch x := v.raw.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Bool returns the value as a boolean. ok is false outside the {true,false} domain.
func (v Value) Bool() (bool, bool) {
	switch x := v.raw.(type) {
	case bool:
		return x, true
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

// Record is one row of a collection: field name to typed value.
type Record struct {
	primary string
	values  map[string]Value
}

// FromMap tags every key of raw with the semantic type of its descriptor.
// Keys without a descriptor are kept and tagged as text.
func FromMap(desc collection.Descriptor, raw map[string]any) Record {
	values := make(map[string]Value, len(raw))
	for k, v := range raw {
		st := field.Text
		if f, ok := desc.FieldByName(k); ok {
			st = f.SemanticType()
		}
		values[k] = Value{semanticType: st, raw: v}
	}
	return Record{primary: desc.PrimaryName(), values: values}
}

// FromMaps converts a page of raw rows.
func FromMaps(desc collection.Descriptor, rows []map[string]any) []Record {
	out := make([]Record, len(rows))
	for i, row := range rows {
		out[i] = FromMap(desc, row)
	}
	return out
}

// ID returns the primary field value as a string, or "" when absent.
func (r Record) ID() string {
	v, ok := r.values[r.primary]
	if !ok {
		return ""
	}
	return v.String()
}

// Get returns the typed value of a field.
func (r Record) Get(name string) (Value, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Len returns the number of fields present.
func (r Record) Len() int { return len(r.values) }

// Keys returns the field names present, sorted.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r.values))
	for k := range r.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ToMap returns the untyped payload form of the record.
func (r Record) ToMap() map[string]any {
	m := make(map[string]any, len(r.values))
	for k, v := range r.values {
		m[k] = v.raw
	}
	return m
}
