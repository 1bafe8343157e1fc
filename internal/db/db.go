// Package db defines the storage contract of the development backend.
package db

import (
	"context"
	"time"
)

// Store is the storage facade used by the development backend.
type Store interface {
	Pinger
	ItemStore
	SchemaStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ItemStore keeps JSON-encoded records, one keyspace per collection.
type ItemStore interface {
	// Insert stores a new record; ErrKeyExists if the id is taken.
	Insert(ctx context.Context, collection, id string, doc []byte) error
	// Replace overwrites an existing record; ErrKeyNotFound if absent.
	Replace(ctx context.Context, collection, id string, doc []byte) error
	// Fetch returns one record; ErrKeyNotFound if absent.
	Fetch(ctx context.Context, collection, id string) ([]byte, error)
	// FetchAll returns every record of a collection keyed by id.
	FetchAll(ctx context.Context, collection string) (map[string][]byte, error)
	// Remove deletes a record; ErrKeyNotFound if absent.
	Remove(ctx context.Context, collection, id string) error
}

// SchemaStore keeps the JSON-encoded field metadata of a collection.
type SchemaStore interface {
	PutSchema(ctx context.Context, collection string, doc []byte) error
	// GetSchema returns ErrKeyNotFound when the collection has no schema.
	GetSchema(ctx context.Context, collection string) ([]byte, error)
}
