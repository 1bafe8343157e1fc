package records

import (
	"context"

	"github.com/kailas-cloud/colladmin/internal/domain/collection/field"
)

// Repository defines the storage contract for records and schemas.
type Repository interface {
	Insert(ctx context.Context, collection, id string, data map[string]any) error
	Replace(ctx context.Context, collection, id string, data map[string]any) error
	Get(ctx context.Context, collection, id string) (map[string]any, error)
	All(ctx context.Context, collection string) (map[string]map[string]any, error)
	Remove(ctx context.Context, collection, id string) error
	SaveSchema(ctx context.Context, collection string, fields []field.Raw) error
	Schema(ctx context.Context, collection string) ([]field.Raw, error)
}
