package reader

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/cuemby/flashflood/pkg/flashflood"
	"github.com/cuemby/flashflood/pkg/journal"
	"github.com/cuemby/flashflood/pkg/timeutil"
)

// fakeFetcher serves byte ranges out of an in-memory blob, ignoring url.
type fakeFetcher struct {
	blob []byte
}

func (f *fakeFetcher) FetchRange(_ context.Context, _ string, from int64) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.blob[from:])), nil
}

func buildStream(t *testing.T, events []struct {
	id   string
	date time.Time
	data string
}) (flashflood.EventStream, []byte) {
	t.Helper()
	var blob []byte
	var metas []journal.EventMeta
	for _, e := range events {
		metas = append(metas, journal.EventMeta{
			EventID:   e.id,
			Timestamp: timeutil.Format(e.date),
			Offset:    int64(len(blob)),
			Size:      int64(len(e.data)),
		})
		blob = append(blob, []byte(e.data)...)
	}
	return flashflood.EventStream{
		Manifest: journal.Manifest{
			JournalID: "test",
			Size:      int64(len(blob)),
			Events:    metas,
		},
		StreamURL: "https://example.invalid/blob",
	}, blob
}

func TestReplayEventStreamYieldsInRangeEvents(t *testing.T) {
	d1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	d3 := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	stream, blob := buildStream(t, []struct {
		id   string
		date time.Time
		data string
	}{
		{"e1", d1, "one"},
		{"e2", d2, "two!!"},
		{"e3", d3, "three"},
	})

	fetcher := &fakeFetcher{blob: blob}
	from := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)

	next, err := ReplayEventStream(context.Background(), fetcher, stream, &from, &to)
	if err != nil {
		t.Fatalf("ReplayEventStream: %v", err)
	}

	var got []string
	for {
		ev, ok, err := next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, ev.EventID)
		if ev.EventID == "e2" && string(ev.Data) != "two!!" {
			t.Errorf("e2 data = %q, want two!!", ev.Data)
		}
	}
	if len(got) != 1 || got[0] != "e2" {
		t.Fatalf("got = %v, want [e2]", got)
	}
}

func TestReplayEventStreamNoMatchReturnsEmptyIterator(t *testing.T) {
	d1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stream, blob := buildStream(t, []struct {
		id   string
		date time.Time
		data string
	}{
		{"e1", d1, "one"},
	})
	fetcher := &fakeFetcher{blob: blob}

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	next, err := ReplayEventStream(context.Background(), fetcher, stream, &from, &to)
	if err != nil {
		t.Fatalf("ReplayEventStream: %v", err)
	}
	_, ok, err := next()
	if err != nil || ok {
		t.Fatalf("next = ok=%v err=%v, want ok=false", ok, err)
	}
}
