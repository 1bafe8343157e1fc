package crud

import (
	"context"

	"github.com/kailas-cloud/colladmin/internal/repository/items"
)

// Mutator is the part of the data access facade the orchestrator drives.
type Mutator interface {
	Create(ctx context.Context, payload map[string]any) items.Envelope[map[string]any]
	Update(ctx context.Context, id string, payload map[string]any) items.Envelope[map[string]any]
	Delete(ctx context.Context, id string) items.Envelope[struct{}]
}

// Refresher refetches the visible list after a successful mutation.
type Refresher func(ctx context.Context) error
