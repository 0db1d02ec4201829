package keyindex

import (
	"context"
	"testing"

	"github.com/cuemby/flashflood/pkg/store"
)

func TestKeyIndexPutGet(t *testing.T) {
	ctx := context.Background()
	ki := New(store.NewMemory(), "root/index")

	if err := ki.Put(ctx, "event-1", "journal-a"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	target, ok, err := ki.Get(ctx, "event-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || target != "journal-a" {
		t.Fatalf("Get = (%q, %v), want (journal-a, true)", target, ok)
	}
}

func TestKeyIndexPutReplacesOlderRevisions(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	ki := New(s, "root/index")

	if err := ki.Put(ctx, "event-1", "journal-a"); err != nil {
		t.Fatalf("Put 1: %v", err)
	}
	if err := ki.Put(ctx, "event-1", "journal-b"); err != nil {
		t.Fatalf("Put 2: %v", err)
	}

	target, ok, err := ki.Get(ctx, "event-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || target != "journal-b" {
		t.Fatalf("Get = (%q, %v), want (journal-b, true)", target, ok)
	}

	keys, err := s.List(ctx, "root/index/event-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("expected exactly one surviving revision, got %d: %v", len(keys), keys)
	}
}

func TestKeyIndexGetMissingReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	ki := New(store.NewMemory(), "root/index")
	_, ok, err := ki.Get(ctx, "nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("Get: expected ok=false for missing lookup")
	}
}

func TestKeyIndexPutBatch(t *testing.T) {
	ctx := context.Background()
	ki := New(store.NewMemory(), "root/index")
	batch := map[string]string{
		"event-1": "journal-a",
		"event-2": "journal-a",
		"event-3": "journal-b",
	}
	if err := ki.PutBatch(ctx, batch); err != nil {
		t.Fatalf("PutBatch: %v", err)
	}
	for eventID, wantJournal := range batch {
		target, ok, err := ki.Get(ctx, eventID)
		if err != nil {
			t.Fatalf("Get(%s): %v", eventID, err)
		}
		if !ok || target != wantJournal {
			t.Errorf("Get(%s) = (%q, %v), want (%q, true)", eventID, target, ok, wantJournal)
		}
	}
}

func TestKeyIndexDelete(t *testing.T) {
	ctx := context.Background()
	ki := New(store.NewMemory(), "root/index")
	if err := ki.Put(ctx, "event-1", "journal-a"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := ki.Delete(ctx, "event-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, ok, err := ki.Get(ctx, "event-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("Get: expected ok=false after Delete")
	}
}
