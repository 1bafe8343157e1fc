// Package record persists dev-backend records and schemas on a db store.
package record

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/colladmin/internal/db"
	"github.com/kailas-cloud/colladmin/internal/domain"
	"github.com/kailas-cloud/colladmin/internal/domain/collection/field"
)

// store is the consumer interface for records (ISP).
type store interface {
	Insert(ctx context.Context, collection, id string, doc []byte) error
	Replace(ctx context.Context, collection, id string, doc []byte) error
	Fetch(ctx context.Context, collection, id string) ([]byte, error)
	FetchAll(ctx context.Context, collection string) (map[string][]byte, error)
	Remove(ctx context.Context, collection, id string) error
	PutSchema(ctx context.Context, collection string, doc []byte) error
	GetSchema(ctx context.Context, collection string) ([]byte, error)
}

// Repo implements usecase/records.Repository.
type Repo struct {
	store store
}

// New creates a record repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Insert stores a new record under id.
func (r *Repo) Insert(ctx context.Context, collection, id string, data map[string]any) error {
	doc, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal record: %w: %w", domain.ErrValidation, err)
	}
	if err := r.store.Insert(ctx, collection, id, doc); err != nil {
		if errors.Is(err, db.ErrKeyExists) {
			return fmt.Errorf("record %s/%s: %w", collection, id, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("insert %s/%s: %w", collection, id, err)
	}
	return nil
}

// Replace overwrites an existing record.
func (r *Repo) Replace(ctx context.Context, collection, id string, data map[string]any) error {
	doc, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal record: %w: %w", domain.ErrValidation, err)
	}
	if err := r.store.Replace(ctx, collection, id, doc); err != nil {
		return mapNotFound(err, "replace", collection, id)
	}
	return nil
}

// Get returns one record.
func (r *Repo) Get(ctx context.Context, collection, id string) (map[string]any, error) {
	doc, err := r.store.Fetch(ctx, collection, id)
	if err != nil {
		return nil, mapNotFound(err, "fetch", collection, id)
	}
	return decode(doc)
}

// All returns every record of a collection keyed by id.
func (r *Repo) All(ctx context.Context, collection string) (map[string]map[string]any, error) {
	docs, err := r.store.FetchAll(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("fetch all %s: %w", collection, err)
	}
	out := make(map[string]map[string]any, len(docs))
	for id, doc := range docs {
		m, err := decode(doc)
		if err != nil {
			return nil, fmt.Errorf("record %s/%s: %w", collection, id, err)
		}
		out[id] = m
	}
	return out, nil
}

// Remove deletes a record.
func (r *Repo) Remove(ctx context.Context, collection, id string) error {
	if err := r.store.Remove(ctx, collection, id); err != nil {
		return mapNotFound(err, "remove", collection, id)
	}
	return nil
}

// SaveSchema stores the field metadata of a collection.
func (r *Repo) SaveSchema(ctx context.Context, collection string, fields []field.Raw) error {
	doc, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	if err := r.store.PutSchema(ctx, collection, doc); err != nil {
		return fmt.Errorf("put schema %s: %w", collection, err)
	}
	return nil
}

// Schema returns the field metadata of a collection; nil when none is stored.
func (r *Repo) Schema(ctx context.Context, collection string) ([]field.Raw, error) {
	doc, err := r.store.GetSchema(ctx, collection)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get schema %s: %w", collection, err)
	}
	var fields []field.Raw
	if err := json.Unmarshal(doc, &fields); err != nil {
		return nil, fmt.Errorf("decode schema %s: %w", collection, err)
	}
	return fields, nil
}

func decode(doc []byte) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return m, nil
}

func mapNotFound(err error, op, collection, id string) error {
	if errors.Is(err, db.ErrKeyNotFound) {
		return fmt.Errorf("record %s/%s: %w", collection, id, domain.ErrNotFound)
	}
	return fmt.Errorf("%s %s/%s: %w", op, collection, id, err)
}
