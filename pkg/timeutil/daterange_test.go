package timeutil

import (
	"testing"
	"time"
)

func mustRange(t *testing.T, start, end string) DateRange {
	t.Helper()
	s, err := time.Parse(time.RFC3339, start)
	if err != nil {
		t.Fatalf("parse %s: %v", start, err)
	}
	e, err := time.Parse(time.RFC3339, end)
	if err != nil {
		t.Fatalf("parse %s: %v", end, err)
	}
	return DateRange{Start: s, End: e}
}

func TestDateRangeContains(t *testing.T) {
	r := mustRange(t, "2024-01-01T00:00:00Z", "2024-01-10T00:00:00Z")
	inside := mustRange(t, "2024-01-05T00:00:00Z", "2024-01-05T00:00:00Z").Start
	if !r.Contains(inside) {
		t.Error("Contains(inside) = false, want true")
	}
	if r.Contains(r.Start) {
		t.Error("Contains(Start) = true, want false (range is exclusive of Start)")
	}
	if !r.Contains(r.End) {
		t.Error("Contains(End) = false, want true (range is inclusive of End)")
	}
}

func TestDateRangeOverlapsVsContained(t *testing.T) {
	// A journal compacted from events spanning T1..T10.
	journal := mustRange(t, "2024-01-01T00:00:00Z", "2024-01-10T00:00:00Z")

	// A replay query starting partway through the journal's span (e.g.
	// scenario 6: compact several events into one journal, then replay
	// from a date inside it). The journal is NOT contained in the query
	// range, but it does overlap it, and overlap is what listing a
	// journal for a sub-range query must test.
	query := mustRange(t, "2024-01-04T00:00:00Z", "2024-01-20T00:00:00Z")

	if journal.Contained(query) {
		t.Fatal("journal.Contained(query) = true, want false: journal starts before query")
	}
	if !journal.Overlaps(query) {
		t.Fatal("journal.Overlaps(query) = false, want true: query overlaps the back half of the journal")
	}

	// A query entirely inside the journal's span.
	innerQuery := mustRange(t, "2024-01-03T00:00:00Z", "2024-01-06T00:00:00Z")
	if !innerQuery.Contained(journal) {
		t.Error("innerQuery.Contained(journal) = false, want true")
	}
	if !journal.Overlaps(innerQuery) {
		t.Error("journal.Overlaps(innerQuery) = false, want true")
	}

	// A query entirely after the journal's span does not overlap.
	laterQuery := mustRange(t, "2024-02-01T00:00:00Z", "2024-02-02T00:00:00Z")
	if journal.Overlaps(laterQuery) {
		t.Error("journal.Overlaps(laterQuery) = true, want false")
	}
}

func TestDateRangeFuture(t *testing.T) {
	r := mustRange(t, "2024-01-01T00:00:00Z", "2024-01-10T00:00:00Z")
	future := r.Future()
	if !future.Start.Equal(r.End) {
		t.Errorf("Future().Start = %v, want %v", future.Start, r.End)
	}
	if !future.End.Equal(FarFuture) {
		t.Errorf("Future().End = %v, want FarFuture", future.End)
	}

	beyond := mustRange(t, "2024-02-01T00:00:00Z", "2024-02-01T00:00:00Z").Start
	if !future.Contains(beyond) {
		t.Error("Future().Contains(date after End) = false, want true")
	}
	if future.Contains(r.Start) {
		t.Error("Future().Contains(Start) = true, want false")
	}
}

func TestDateRangeEmpty(t *testing.T) {
	if !emptyDateRange.isEmpty() {
		t.Fatal("emptyDateRange.isEmpty() = false, want true")
	}
	someDate := mustRange(t, "2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z").Start
	if emptyDateRange.Contains(someDate) {
		t.Error("emptyDateRange.Contains(x) = true, want false")
	}
	other := mustRange(t, "2024-01-01T00:00:00Z", "2024-01-10T00:00:00Z")
	if emptyDateRange.Overlaps(other) {
		t.Error("emptyDateRange.Overlaps(other) = true, want false")
	}
}

func TestNewDateRangeDefaults(t *testing.T) {
	r := NewDateRange(nil, nil)
	if !r.Start.Equal(DistantPast) || !r.End.Equal(FarFuture) {
		t.Errorf("NewDateRange(nil, nil) = %+v, want (DistantPast, FarFuture]", r)
	}
}

func TestNewDateRangePanicsOnInvertedBounds(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for start after end")
		}
	}()
	start := mustRange(t, "2024-01-10T00:00:00Z", "2024-01-10T00:00:00Z").Start
	end := mustRange(t, "2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z").Start
	NewDateRange(&start, &end)
}
