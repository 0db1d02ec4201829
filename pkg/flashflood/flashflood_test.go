package flashflood

import (
	"context"
	"testing"
	"time"

	"github.com/cuemby/flashflood/pkg/store"
)

func newTestEngine(t *testing.T) *FlashFlood {
	t.Helper()
	f, err := New(store.NewMemory(), "root", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return f
}

func TestPutAndGetEvent(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t)

	ev, err := f.Put(ctx, []byte("hello"), "event-1", nil)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if ev.EventID != "event-1" {
		t.Fatalf("Put EventID = %q", ev.EventID)
	}

	got, err := f.GetEvent(ctx, "event-1")
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	if string(got.Data) != "hello" {
		t.Errorf("GetEvent data = %q, want hello", got.Data)
	}
}

func TestPutRejectsDuplicateEventID(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t)
	if _, err := f.Put(ctx, []byte("a"), "dup", nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := f.Put(ctx, []byte("b"), "dup", nil); !IsEventExists(err) {
		t.Fatalf("second Put error = %v, want event-exists", err)
	}
}

func TestPutRejectsDelimiterInEventID(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t)
	if _, err := f.Put(ctx, []byte("a"), "bad--id", nil); err == nil {
		t.Fatal("expected error for delimiter in event id")
	}
}

func TestGetEventNotFound(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t)
	if _, err := f.GetEvent(ctx, "missing"); !IsEventNotFound(err) {
		t.Fatalf("GetEvent error = %v, want event-not-found", err)
	}
}

func TestUpdateEventThenUpdateApplies(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t)
	if _, err := f.Put(ctx, []byte("original"), "event-1", nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := f.UpdateEvent(ctx, "event-1", []byte("replaced!")); err != nil {
		t.Fatalf("UpdateEvent: %v", err)
	}

	// Not yet visible before Update runs.
	before, err := f.GetEvent(ctx, "event-1")
	if err != nil {
		t.Fatalf("GetEvent before Update: %v", err)
	}
	if string(before.Data) != "original" {
		t.Errorf("GetEvent before Update = %q, want original", before.Data)
	}

	n, err := f.Update(ctx, 0)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if n != 1 {
		t.Fatalf("Update applied = %d, want 1", n)
	}

	after, err := f.GetEvent(ctx, "event-1")
	if err != nil {
		t.Fatalf("GetEvent after Update: %v", err)
	}
	if string(after.Data) != "replaced!" {
		t.Errorf("GetEvent after Update = %q, want replaced!", after.Data)
	}
}

func TestDeleteEventRemovesFromIndexImmediately(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t)
	if _, err := f.Put(ctx, []byte("x"), "event-1", nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := f.DeleteEvent(ctx, "event-1"); err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}
	exists, err := f.EventExists(ctx, "event-1")
	if err != nil {
		t.Fatalf("EventExists: %v", err)
	}
	if exists {
		t.Error("EventExists after DeleteEvent = true, want false")
	}
	if _, err := f.GetEvent(ctx, "event-1"); !IsEventNotFound(err) {
		t.Fatalf("GetEvent after delete error = %v, want event-not-found", err)
	}
}

func TestJournalFailsWithInsufficientBacklog(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t)
	if _, err := f.Put(ctx, []byte("a"), "e1", nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := f.Journal(ctx, 5, 0); !IsJournalingError(err) {
		t.Fatalf("Journal error = %v, want journaling error", err)
	}
}

func TestJournalCombinesBacklog(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t)
	for i := 0; i < 3; i++ {
		if _, err := f.Put(ctx, []byte("x"), "", nil); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	if err := f.Journal(ctx, 3, 0); err != nil {
		t.Fatalf("Journal: %v", err)
	}
	ids, err := f.journals.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("journals after combine = %v, want exactly 1", ids)
	}
}

func TestReplayYieldsEventsInRange(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t)

	d1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	d3 := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	if _, err := f.Put(ctx, []byte("one"), "e1", &d1); err != nil {
		t.Fatalf("Put e1: %v", err)
	}
	if _, err := f.Put(ctx, []byte("two"), "e2", &d2); err != nil {
		t.Fatalf("Put e2: %v", err)
	}
	if _, err := f.Put(ctx, []byte("three"), "e3", &d3); err != nil {
		t.Fatalf("Put e3: %v", err)
	}

	from := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
	next, err := f.Replay(ctx, &from, &to)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}

	var got []string
	for {
		ev, ok, err := next()
		if err != nil {
			t.Fatalf("Replay next: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, ev.EventID)
	}
	if len(got) != 1 || got[0] != "e2" {
		t.Fatalf("Replay got = %v, want [e2]", got)
	}
}

func TestReplayAfterCompactionHonorsSubRangeStartingInsideJournal(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t)

	dates := []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC),
	}
	ids := []string{"e1", "e2", "e3", "e4", "e5"}
	for i, d := range dates {
		if _, err := f.Put(ctx, []byte(ids[i]), ids[i], &d); err != nil {
			t.Fatalf("Put %s: %v", ids[i], err)
		}
	}

	// Compact all five events into a single journal spanning Jan 1 - Jan 9.
	if err := f.Journal(ctx, len(dates), 0); err != nil {
		t.Fatalf("Journal: %v", err)
	}
	journalIDs, err := f.journals.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(journalIDs) != 1 {
		t.Fatalf("journals after compaction = %v, want exactly 1", journalIDs)
	}

	// Replay from a date that falls inside the compacted journal's span
	// (not at its start), mirroring a caller who queries a sub-range of
	// an already-compacted journal. Only events after "from" should
	// come back, even though the journal as a whole is not contained in
	// the query range.
	from := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)
	next, err := f.Replay(ctx, &from, nil)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}

	var got []string
	for {
		ev, ok, err := next()
		if err != nil {
			t.Fatalf("Replay next: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, ev.EventID)
	}
	want := []string{"e3", "e4", "e5"}
	if len(got) != len(want) {
		t.Fatalf("Replay got = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Replay got = %v, want %v", got, want)
		}
	}
}

func TestListJournalsAndEventStreams(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t)
	if _, err := f.Put(ctx, []byte("x"), "e1", nil); err != nil {
		t.Fatalf("Put: %v", err)
	}

	next, err := f.ListJournals(ctx, nil, nil)
	if err != nil {
		t.Fatalf("ListJournals: %v", err)
	}
	id, ok, err := next()
	if err != nil || !ok {
		t.Fatalf("ListJournals next: ok=%v err=%v", ok, err)
	}
	if id == "" {
		t.Error("ListJournals returned empty id")
	}

	streams, err := f.ListEventStreams(ctx, nil, nil)
	if err != nil {
		t.Fatalf("ListEventStreams: %v", err)
	}
	es, ok, err := streams()
	if err != nil || !ok {
		t.Fatalf("ListEventStreams next: ok=%v err=%v", ok, err)
	}
	if es.StreamURL == "" {
		t.Error("ListEventStreams returned empty StreamURL")
	}
	if len(es.Events) != 1 {
		t.Errorf("ListEventStreams manifest events = %v, want 1", es.Events)
	}
}

func TestDestroyRemovesEverything(t *testing.T) {
	ctx := context.Background()
	f := newTestEngine(t)
	if _, err := f.Put(ctx, []byte("x"), "e1", nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := f.Destroy(ctx); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	exists, err := f.EventExists(ctx, "e1")
	if err != nil {
		t.Fatalf("EventExists: %v", err)
	}
	if exists {
		t.Error("EventExists after Destroy = true, want false")
	}
}
