package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/colladmin/internal/db"
)

func TestStore_ItemLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	if err := s.Insert(ctx, "users", "u1", []byte(`{"n":1}`)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.Insert(ctx, "users", "u1", []byte(`{}`)); !errors.Is(err, db.ErrKeyExists) {
		t.Fatalf("duplicate Insert: got %v, want ErrKeyExists", err)
	}
	if err := s.Replace(ctx, "users", "u1", []byte(`{"n":2}`)); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	doc, err := s.Fetch(ctx, "users", "u1")
	if err != nil || string(doc) != `{"n":2}` {
		t.Fatalf("Fetch() = %q, %v", doc, err)
	}
	if err := s.Remove(ctx, "users", "u1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := s.Remove(ctx, "users", "u1"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("second Remove: got %v, want ErrKeyNotFound", err)
	}
	all, _ := s.FetchAll(ctx, "users")
	if len(all) != 0 {
		t.Errorf("FetchAll() = %v, want empty", all)
	}
}

func TestStore_MissingCollection(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	if err := s.Replace(ctx, "ghost", "x", nil); !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("Replace: got %v", err)
	}
	if _, err := s.Fetch(ctx, "ghost", "x"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("Fetch: got %v", err)
	}
	if _, err := s.GetSchema(ctx, "ghost"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("GetSchema: got %v", err)
	}
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	doc := []byte(`{"a":1}`)
	_ = s.Insert(ctx, "c", "1", doc)
	doc[2] = 'X'

	got, _ := s.Fetch(ctx, "c", "1")
	if string(got) != `{"a":1}` {
		t.Errorf("stored doc mutated through caller slice: %q", got)
	}
}
