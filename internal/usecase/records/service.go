// Package records implements the development backend behind the /items
// contract: record CRUD per collection plus field metadata lookup.
package records

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kailas-cloud/colladmin/internal/domain"
	"github.com/kailas-cloud/colladmin/internal/domain/collection"
	"github.com/kailas-cloud/colladmin/internal/domain/collection/field"
)

// Collection is a collection known up front, with an optional numeric or
// UUID id under which its schema can also be looked up.
type Collection struct {
	Name   string
	ID     string
	Fields []field.Raw
}

// SchemaRef addresses a schema by id or by name; ID wins when both are set.
type SchemaRef struct {
	ID   string
	Name string
}

// Service handles record CRUD operations.
type Service struct {
	repo  Repository
	ids   map[string]string // collection id -> name
	newID func() string
}

// New creates a records service.
func New(repo Repository) *Service {
	return &Service{
		repo:  repo,
		ids:   make(map[string]string),
		newID: uuid.NewString,
	}
}

// WithIDGenerator overrides record id generation.
func (s *Service) WithIDGenerator(fn func() string) *Service {
	s.newID = fn
	return s
}

// Seed registers collections and stores their schemas. Call before serving.
func (s *Service) Seed(ctx context.Context, cols []Collection) error {
	for _, c := range cols {
		if c.Name == "" {
			return fmt.Errorf("seed: collection name is required: %w", domain.ErrInvalidSchema)
		}
		if c.ID != "" {
			s.ids[c.ID] = c.Name
		}
		if len(c.Fields) == 0 {
			continue
		}
		if err := s.repo.SaveSchema(ctx, c.Name, c.Fields); err != nil {
			return fmt.Errorf("seed %s: %w", c.Name, err)
		}
	}
	return nil
}

// List returns the filtered, sorted page of a collection.
func (s *Service) List(ctx context.Context, col string, q Query) ([]map[string]any, error) {
	all, err := s.repo.All(ctx, col)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	rows := make([]map[string]any, 0, len(all))
	for _, row := range all {
		rows = append(rows, row)
	}
	return q.apply(rows, collection.DefaultPrimaryField), nil
}

// Get returns one record.
func (s *Service) Get(ctx context.Context, col, id string) (map[string]any, error) {
	row, err := s.repo.Get(ctx, col, id)
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return row, nil
}

// Create stores a record. The id is taken from the payload when present,
// generated otherwise.
func (s *Service) Create(ctx context.Context, col string, payload map[string]any) (map[string]any, error) {
	row := clone(payload)
	id := idOf(row)
	if id == "" {
		id = s.newID()
	}
	row[collection.DefaultPrimaryField] = id

	if err := s.repo.Insert(ctx, col, id, row); err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}
	return row, nil
}

// Update replaces the fields of a record; the path id always wins.
func (s *Service) Update(ctx context.Context, col, id string, payload map[string]any) (map[string]any, error) {
	row := clone(payload)
	row[collection.DefaultPrimaryField] = id

	if err := s.repo.Replace(ctx, col, id, row); err != nil {
		return nil, fmt.Errorf("update record: %w", err)
	}
	return row, nil
}

// Delete removes a record.
func (s *Service) Delete(ctx context.Context, col, id string) error {
	if err := s.repo.Remove(ctx, col, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// Schema returns the field metadata of a collection. A known collection
// without stored metadata yields an empty list.
func (s *Service) Schema(ctx context.Context, ref SchemaRef) ([]field.Raw, error) {
	name := ref.Name
	if ref.ID != "" {
		n, ok := s.ids[ref.ID]
		if !ok {
			return nil, fmt.Errorf("collection id %s: %w", ref.ID, domain.ErrNotFound)
		}
		name = n
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("collection_id or name is required: %w", domain.ErrValidation)
	}

	fields, err := s.repo.Schema(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get schema: %w", err)
	}
	if fields == nil {
		fields = []field.Raw{}
	}
	return fields, nil
}

func idOf(row map[string]any) string {
	switch v := row[collection.DefaultPrimaryField].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return fmt.Sprint(v)
	default:
		return ""
	}
}

func clone(m map[string]any) map[string]any {
	out := make(map[string]any, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
