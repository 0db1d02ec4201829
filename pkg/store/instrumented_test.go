package store

import (
	"context"
	"errors"
	"testing"
)

func TestInstrumentedDelegatesToInnerStore(t *testing.T) {
	ctx := context.Background()
	s := Instrument(NewMemory())

	if err := s.PutWithMetadata(ctx, "a/b", []byte("hello"), map[string]string{"k": "v"}); err != nil {
		t.Fatalf("PutWithMetadata: %v", err)
	}
	data, err := s.Get(ctx, "a/b")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("Get = %q, want hello", data)
	}
	md, err := s.GetMetadata(ctx, "a/b")
	if err != nil {
		t.Fatalf("GetMetadata: %v", err)
	}
	if md["k"] != "v" {
		t.Errorf("GetMetadata = %v, want k=v", md)
	}

	ranged, err := s.GetRange(ctx, "a/b", 0, 2)
	if err != nil {
		t.Fatalf("GetRange: %v", err)
	}
	if string(ranged) != "hel" {
		t.Errorf("GetRange = %q, want hel", ranged)
	}

	keys, err := s.List(ctx, "a/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(keys) != 1 || keys[0] != "a/b" {
		t.Errorf("List = %v, want [a/b]", keys)
	}

	url, err := s.PresignGet(ctx, "a/b")
	if err != nil {
		t.Fatalf("PresignGet: %v", err)
	}
	if url == "" {
		t.Error("PresignGet returned empty url")
	}

	if err := s.Delete(ctx, "a/b"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "a/b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete error = %v, want ErrNotFound", err)
	}
}

func TestInstrumentedBatchDeleteAndConcurrentList(t *testing.T) {
	ctx := context.Background()
	s := Instrument(NewMemory())
	for _, k := range []string{"a/1", "a/2", "b/1"} {
		if err := s.Put(ctx, k, []byte("x")); err != nil {
			t.Fatalf("Put(%s): %v", k, err)
		}
	}
	keys, err := s.ConcurrentList(ctx, []string{"a/", "b/"})
	if err != nil {
		t.Fatalf("ConcurrentList: %v", err)
	}
	if len(keys) != 3 {
		t.Errorf("ConcurrentList returned %d keys, want 3", len(keys))
	}
	if err := s.BatchDelete(ctx, keys); err != nil {
		t.Fatalf("BatchDelete: %v", err)
	}
	remaining, err := s.List(ctx, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("expected all keys deleted, %d remain", len(remaining))
	}
}
