package inference

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/colladmin/internal/domain"
	"github.com/kailas-cloud/colladmin/internal/domain/collection"
	"github.com/kailas-cloud/colladmin/internal/domain/collection/field"
	"github.com/kailas-cloud/colladmin/internal/metrics"
)

// FallbackHook is notified when a field name matched no rule and defaulted to text.
type FallbackHook func(collection, fieldName string)

// Service turns raw field metadata into collection descriptors.
type Service struct {
	logger     *zap.Logger
	onFallback FallbackHook
}

// New creates an inference service. A nil logger disables logging.
func New(logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger}
}

// WithFallbackHook registers a hook for fields that defaulted to text.
func (s *Service) WithFallbackHook(fn FallbackHook) *Service {
	s.onFallback = fn
	return s
}

// Describe resolves every raw field and builds the collection descriptor.
func (s *Service) Describe(identifier string, raws []field.Raw) (collection.Descriptor, error) {
	fields := make([]field.Descriptor, 0, len(raws))
	for _, raw := range raws {
		st, src := Resolve(raw)
		if src == SourceFallback {
			s.fallback(identifier, raw.Name)
		}
		f, err := field.New(raw.Name, raw.DisplayName, st, field.Constraints{
			Required:  raw.Required,
			MinLength: raw.MinLength,
			MaxLength: raw.MaxLength,
			Pattern:   raw.Pattern,
			Options:   raw.Options,
		}, raw.IsPrimary)
		if err != nil {
			return collection.Descriptor{}, fmt.Errorf("describe %s: %w: %w", identifier, domain.ErrInvalidSchema, err)
		}
		fields = append(fields, f)
	}

	desc, err := collection.New(identifier, fields)
	if err != nil {
		return collection.Descriptor{}, fmt.Errorf("describe %s: %w: %w", identifier, domain.ErrInvalidSchema, err)
	}
	return desc, nil
}

// FromSample synthesizes a descriptor from one record when the backend has no
// schema metadata. Name rules win; the sample value only refines fields whose
// name matched nothing. The primary field "id", when present, comes first.
func (s *Service) FromSample(identifier string, sample map[string]any) (collection.Descriptor, error) {
	names := make([]string, 0, len(sample))
	for k := range sample {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool {
		if names[i] == collection.DefaultPrimaryField {
			return true
		}
		if names[j] == collection.DefaultPrimaryField {
			return false
		}
		return names[i] < names[j]
	})

	fields := make([]field.Descriptor, 0, len(names))
	for _, name := range names {
		st, src := Resolve(field.Raw{Name: name})
		if src == SourceFallback {
			if byValue, ok := sampleType(sample[name]); ok {
				st = byValue
			} else {
				s.fallback(identifier, name)
			}
		}
		primary := name == collection.DefaultPrimaryField
		f, err := field.New(name, "", st, field.Constraints{}, primary)
		if err != nil {
			return collection.Descriptor{}, fmt.Errorf("sample %s: %w: %w", identifier, domain.ErrInvalidSchema, err)
		}
		fields = append(fields, f)
	}

	desc, err := collection.New(identifier, fields)
	if err != nil {
		return collection.Descriptor{}, fmt.Errorf("sample %s: %w: %w", identifier, domain.ErrInvalidSchema, err)
	}
	return desc, nil
}

func (s *Service) fallback(identifier, name string) {
	metrics.InferenceFallbacksTotal.Inc()
	s.logger.Debug("field type defaulted to text",
		zap.String("collection", identifier),
		zap.String("field", name),
	)
	if s.onFallback != nil {
		s.onFallback(identifier, name)
	}
}

// sampleType infers a semantic type from a decoded JSON value.
func sampleType(v any) (field.SemanticType, bool) {
	switch x := v.(type) {
	case bool:
		return field.Boolean, true
	case float64, float32, int, int64, json.Number:
		return field.Number, true
	case string:
		if len(x) == 36 {
			if _, err := uuid.Parse(x); err == nil {
				return field.UUID, true
			}
		}
	}
	return "", false
}
