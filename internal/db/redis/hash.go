package redis

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/colladmin/internal/db"
)

// Insert stores a new record with HSETNX.
func (s *Store) Insert(ctx context.Context, collection, id string, doc []byte) error {
	cmd := s.b().Hsetnx().Key(itemsKey(collection)).Field(id).Value(string(doc)).Build()
	created, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return &db.Error{Op: db.OpHSetNX, Err: err}
	}
	if created == 0 {
		return db.ErrKeyExists
	}
	return nil
}

// Replace overwrites an existing record. The existence check and the write
// are two commands; a concurrent delete in between resurrects the record.
func (s *Store) Replace(ctx context.Context, collection, id string, doc []byte) error {
	key := itemsKey(collection)
	exists, err := s.do(ctx, s.b().Hexists().Key(key).Field(id).Build()).AsInt64()
	if err != nil {
		return &db.Error{Op: db.OpHExists, Err: err}
	}
	if exists == 0 {
		return db.ErrKeyNotFound
	}

	cmd := s.b().Hset().Key(key).FieldValue().FieldValue(id, string(doc)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpHSet, Err: err}
	}
	return nil
}

// Fetch returns one record.
func (s *Store) Fetch(ctx context.Context, collection, id string) ([]byte, error) {
	cmd := s.b().Hget().Key(itemsKey(collection)).Field(id).Build()
	data, err := s.do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpHGet, Err: err}
	}
	return data, nil
}

// FetchAll returns every record of the collection.
func (s *Store) FetchAll(ctx context.Context, collection string) (map[string][]byte, error) {
	cmd := s.b().Hgetall().Key(itemsKey(collection)).Build()
	m, err := s.do(ctx, cmd).AsStrMap()
	if err != nil {
		return nil, &db.Error{Op: db.OpHGetAll, Err: err}
	}
	out := make(map[string][]byte, len(m))
	for id, doc := range m {
		out[id] = []byte(doc)
	}
	return out, nil
}

// Remove deletes a record with HDEL.
func (s *Store) Remove(ctx context.Context, collection, id string) error {
	cmd := s.b().Hdel().Key(itemsKey(collection)).Field(id).Build()
	removed, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return &db.Error{Op: db.OpHDel, Err: err}
	}
	if removed == 0 {
		return db.ErrKeyNotFound
	}
	return nil
}
