package browse

import (
	"context"

	"github.com/kailas-cloud/colladmin/internal/domain/collection/field"
	"github.com/kailas-cloud/colladmin/internal/repository/items"
	"github.com/kailas-cloud/colladmin/internal/usecase/crud"
)

// Source is the data access facade of one collection.
type Source interface {
	crud.Mutator
	List(ctx context.Context, p items.Pagination) items.Envelope[[]map[string]any]
	GetSchema(ctx context.Context) items.Envelope[[]field.Raw]
}

// Opener returns the facade of the named collection.
type Opener func(collection string) Source
