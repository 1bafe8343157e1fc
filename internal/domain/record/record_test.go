package record

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/kailas-cloud/colladmin/internal/domain/collection"
	"github.com/kailas-cloud/colladmin/internal/domain/collection/field"
)

func makeDescriptor(t *testing.T) collection.Descriptor {
	t.Helper()
	mk := func(name string, st field.SemanticType, primary bool) field.Descriptor {
		f, err := field.New(name, "", st, field.Constraints{}, primary)
		if err != nil {
			t.Fatalf("field.New: %v", err)
		}
		return f
	}
	d, err := collection.New("products", []field.Descriptor{
		mk("sku", field.Text, true),
		mk("price", field.Number, false),
		mk("is_active", field.Boolean, false),
	})
	if err != nil {
		t.Fatalf("collection.New: %v", err)
	}
	return d
}

func TestFromMap_TagsValues(t *testing.T) {
	rec := FromMap(makeDescriptor(t), map[string]any{
		"sku":       "A-1",
		"price":     9.5,
		"is_active": true,
		"extra":     "kept",
	})

	if rec.ID() != "A-1" {
		t.Errorf("ID() = %q, want %q", rec.ID(), "A-1")
	}
	price, _ := rec.Get("price")
	if price.SemanticType() != field.Number {
		t.Errorf("price type = %q, want number", price.SemanticType())
	}
	if n, ok := price.Number(); !ok || n != 9.5 {
		t.Errorf("price.Number() = %v, %v", n, ok)
	}
	extra, ok := rec.Get("extra")
	if !ok || extra.SemanticType() != field.Text {
		t.Errorf("unknown key should be tagged text, got %q", extra.SemanticType())
	}
	if rec.Len() != 4 {
		t.Errorf("Len() = %d, want 4", rec.Len())
	}
}

func TestID_Missing(t *testing.T) {
	rec := FromMap(makeDescriptor(t), map[string]any{"price": 1.0})
	if rec.ID() != "" {
		t.Errorf("ID() = %q, want empty", rec.ID())
	}
}

func TestValue_Number(t *testing.T) {
	tests := []struct {
		raw  any
		want float64
		ok   bool
	}{
		{3.0, 3, true},
		{7, 7, true},
		{int64(8), 8, true},
		{json.Number("1.25"), 1.25, true},
		{" 42 ", 42, true},
		{"abc", 0, false},
		{math.Inf(1), 0, false},
		{"NaN", 0, false},
		{true, 0, false},
		{nil, 0, false},
	}
	for _, tt := range tests {
		got, ok := NewValue(field.Number, tt.raw).Number()
		if ok != tt.ok || got != tt.want {
			t.Errorf("Number(%v) = %v, %v; want %v, %v", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

func TestValue_Bool(t *testing.T) {
	tests := []struct {
		raw  any
		want bool
		ok   bool
	}{
		{true, true, true},
		{false, false, true},
		{"TRUE", true, true},
		{"false", false, true},
		{"yes", false, false},
		{1.0, false, false},
	}
	for _, tt := range tests {
		got, ok := NewValue(field.Boolean, tt.raw).Bool()
		if ok != tt.ok || got != tt.want {
			t.Errorf("Bool(%v) = %v, %v; want %v, %v", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

func TestValue_IsEmpty(t *testing.T) {
	if !NewValue(field.Text, nil).IsEmpty() {
		t.Error("nil should be empty")
	}
	if !NewValue(field.Text, "   ").IsEmpty() {
		t.Error("blank string should be empty")
	}
	if NewValue(field.Boolean, false).IsEmpty() {
		t.Error("false is a value, not empty")
	}
	if NewValue(field.Number, 0.0).IsEmpty() {
		t.Error("zero is a value, not empty")
	}
}

func TestValue_String(t *testing.T) {
	tests := []struct {
		raw  any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{true, "true"},
		{2.5, "2.5"},
		{float64(10), "10"},
		{json.Number("7"), "7"},
	}
	for _, tt := range tests {
		if got := NewValue(field.Text, tt.raw).String(); got != tt.want {
			t.Errorf("String(%v) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestToMap_RoundTrip(t *testing.T) {
	raw := map[string]any{"sku": "A-1", "price": 2.0}
	rec := FromMap(makeDescriptor(t), raw)
	out := rec.ToMap()
	if out["sku"] != "A-1" || out["price"] != 2.0 {
		t.Errorf("ToMap() = %v", out)
	}
	keys := rec.Keys()
	if len(keys) != 2 || keys[0] != "price" || keys[1] != "sku" {
		t.Errorf("Keys() = %v, want sorted [price sku]", keys)
	}
}
