package inference

import (
	"testing"

	"github.com/kailas-cloud/colladmin/internal/domain/collection/field"
)

func TestInfer_NameRules(t *testing.T) {
	tests := []struct {
		name string
		want field.SemanticType
	}{
		{"email", field.Email},
		{"contact_email", field.Email},
		{"Work_EMAIL", field.Email},
		{"homepage_url", field.URL},
		{"profile_link", field.URL},
		{"website", field.URL},
		{"price", field.Number},
		{"user_count", field.Number},
		{"quantity", field.Number},
		{"total_amount", field.Number},
		{"active", field.Boolean},
		{"is_admin", field.Boolean},
		{"status", field.Boolean},
		{"enabled", field.Boolean},
		{"created_at", field.Date},
		{"birth_date", field.Date},
		{"published", field.Date},
		{"description", field.Textarea},
		{"bio", field.Textarea},
		{"notes", field.Textarea},
		{"category", field.Select},
		{"role", field.Select},
		{"type", field.Select},
		{"title", field.Text},
		{"name", field.Text},
		{"id", field.Text},
		{"", field.Text},
	}
	for _, tt := range tests {
		if got := Infer(field.Raw{Name: tt.name}); got != tt.want {
			t.Errorf("Infer(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

// Rule order matters when a name matches several rules.
func TestInfer_FirstMatchWins(t *testing.T) {
	tests := []struct {
		name string
		want field.SemanticType
	}{
		{"email_count", field.Email},      // email before number
		{"link_count", field.URL},         // url before number
		{"total_active", field.Number},    // number before boolean
		{"status_updated", field.Boolean}, // boolean before date
		{"updated_notes", field.Date},     // date before textarea
		{"content_type", field.Textarea},  // textarea before select
		{"discount_rate", field.Number},   // "count" inside "discount"
		{"is_deleted", field.Boolean},
	}
	for _, tt := range tests {
		if got := Infer(field.Raw{Name: tt.name}); got != tt.want {
			t.Errorf("Infer(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestInfer_ExplicitTypeWins(t *testing.T) {
	tests := []struct {
		raw  field.Raw
		want field.SemanticType
	}{
		{field.Raw{Name: "email", Type: "text"}, field.Text},
		{field.Raw{Name: "id", Type: "uuid"}, field.UUID},
		{field.Raw{Name: "title", Type: "Integer"}, field.Number},
		{field.Raw{Name: "flag", Type: "bool"}, field.Boolean},
		{field.Raw{Name: "at", Type: "timestamp"}, field.Date},
		{field.Raw{Name: "kind", Type: "enum"}, field.Select},
		{field.Raw{Name: "body", Type: "longtext"}, field.Textarea},
	}
	for _, tt := range tests {
		if got := Infer(tt.raw); got != tt.want {
			t.Errorf("Infer(%+v) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestInfer_StorageTypeFallsThroughToName(t *testing.T) {
	tests := []struct {
		raw  field.Raw
		want field.SemanticType
		src  Source
	}{
		{field.Raw{Name: "contact_email", Type: "string"}, field.Email, SourceName},
		{field.Raw{Name: "contact_email", Type: "varchar"}, field.Email, SourceName},
		{field.Raw{Name: "website", Type: "VARCHAR"}, field.URL, SourceName},
		{field.Raw{Name: "title", Type: "string"}, field.Text, SourceFallback},
	}
	for _, tt := range tests {
		got, src := Resolve(tt.raw)
		if got != tt.want || src != tt.src {
			t.Errorf("Resolve(%+v) = %q/%q, want %q/%q", tt.raw, got, src, tt.want, tt.src)
		}
	}
}

func TestInfer_UnrecognizedExplicitTypeFallsBackToName(t *testing.T) {
	got, src := Resolve(field.Raw{Name: "price", Type: "money"})
	if got != field.Number || src != SourceName {
		t.Errorf("Resolve = %q/%q, want number/name", got, src)
	}
}

func TestResolve_Sources(t *testing.T) {
	if _, src := Resolve(field.Raw{Name: "x", Type: "email"}); src != SourceExplicit {
		t.Errorf("source = %q, want explicit", src)
	}
	if _, src := Resolve(field.Raw{Name: "email"}); src != SourceName {
		t.Errorf("source = %q, want name", src)
	}
	if _, src := Resolve(field.Raw{Name: "title"}); src != SourceFallback {
		t.Errorf("source = %q, want fallback", src)
	}
}

func TestInfer_Deterministic(t *testing.T) {
	names := []string{"email", "user_count", "status", "title", "created", "bio", "role"}
	for _, name := range names {
		first := Infer(field.Raw{Name: name})
		for range 50 {
			if got := Infer(field.Raw{Name: name}); got != first {
				t.Fatalf("Infer(%q) changed from %q to %q", name, first, got)
			}
		}
	}
}

func TestNameRules_CoverVocabulary(t *testing.T) {
	seen := map[field.SemanticType]bool{}
	for _, r := range nameRules {
		if !r.st.IsValid() {
			t.Errorf("rule maps to invalid type %q", r.st)
		}
		seen[r.st] = true
	}
	for _, st := range []field.SemanticType{field.Email, field.URL, field.Number, field.Boolean,
		field.Date, field.Textarea, field.Select} {
		if !seen[st] {
			t.Errorf("no name rule for %q", st)
		}
	}
}
