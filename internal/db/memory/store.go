// Package memory implements db.Store in process memory for local runs and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/kailas-cloud/colladmin/internal/db"
)

var _ db.Store = (*Store)(nil)

// Store is a mutex-guarded map store.
type Store struct {
	mu      sync.RWMutex
	items   map[string]map[string][]byte
	schemas map[string][]byte
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		items:   make(map[string]map[string][]byte),
		schemas: make(map[string][]byte),
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// WaitForReady returns immediately.
func (s *Store) WaitForReady(context.Context, time.Duration) error { return nil }

// Insert stores a new record.
func (s *Store) Insert(_ context.Context, collection, id string, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.items[collection]
	if col == nil {
		col = make(map[string][]byte)
		s.items[collection] = col
	}
	if _, ok := col[id]; ok {
		return db.ErrKeyExists
	}
	col[id] = clone(doc)
	return nil
}

// Replace overwrites an existing record.
func (s *Store) Replace(_ context.Context, collection, id string, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.items[collection]
	if _, ok := col[id]; !ok {
		return db.ErrKeyNotFound
	}
	col[id] = clone(doc)
	return nil
}

// Fetch returns one record.
func (s *Store) Fetch(_ context.Context, collection, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.items[collection][id]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return clone(doc), nil
}

// FetchAll returns every record of the collection.
func (s *Store) FetchAll(_ context.Context, collection string) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]byte, len(s.items[collection]))
	for id, doc := range s.items[collection] {
		out[id] = clone(doc)
	}
	return out, nil
}

// Remove deletes a record.
func (s *Store) Remove(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[collection][id]; !ok {
		return db.ErrKeyNotFound
	}
	delete(s.items[collection], id)
	return nil
}

// PutSchema stores the field metadata of a collection.
func (s *Store) PutSchema(_ context.Context, collection string, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemas[collection] = clone(doc)
	return nil
}

// GetSchema returns the field metadata of a collection.
func (s *Store) GetSchema(_ context.Context, collection string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.schemas[collection]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return clone(doc), nil
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
