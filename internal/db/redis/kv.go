package redis

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/colladmin/internal/db"
)

// PutSchema stores the field metadata of a collection.
func (s *Store) PutSchema(ctx context.Context, collection string, doc []byte) error {
	cmd := s.b().Set().Key(schemaKey(collection)).Value(string(doc)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// GetSchema returns the field metadata of a collection.
func (s *Store) GetSchema(ctx context.Context, collection string) ([]byte, error) {
	cmd := s.b().Get().Key(schemaKey(collection)).Build()
	data, err := s.do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return data, nil
}
