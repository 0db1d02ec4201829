package flashflood

import (
	"github.com/cuemby/flashflood/pkg/identifiers"
	"github.com/cuemby/flashflood/pkg/journal"
)

// EventIterator yields one event per call. ok is false once exhausted;
// a non-nil error aborts iteration immediately.
type EventIterator func() (journal.Event, bool, error)

// JournalIDIterator yields one journal id per call.
type JournalIDIterator func() (identifiers.JournalID, bool, error)

// EventStream is a journal's manifest plus a presigned URL its blob can
// be fetched from, the unit ListEventStreams yields.
type EventStream struct {
	journal.Manifest
	StreamURL string `json:"stream_url"`
}

// EventStreamIterator yields one EventStream per call.
type EventStreamIterator func() (EventStream, bool, error)

// sliceJournalIDIterator adapts a precomputed, already-filtered slice of
// journal ids into a JournalIDIterator. Listing itself is not streamed
// by any Store implementation here, but the original implementation's
// early-break-on-future-date behavior is preserved by filtering the
// slice up front rather than by true lazy evaluation.
func sliceJournalIDIterator(ids []identifiers.JournalID) JournalIDIterator {
	i := 0
	return func() (identifiers.JournalID, bool, error) {
		if i >= len(ids) {
			return "", false, nil
		}
		id := ids[i]
		i++
		return id, true, nil
	}
}
