package flashflood

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cuemby/flashflood/pkg/identifiers"
	"github.com/cuemby/flashflood/pkg/journal"
	"github.com/cuemby/flashflood/pkg/journalupdate"
	"github.com/cuemby/flashflood/pkg/keyindex"
	"github.com/cuemby/flashflood/pkg/log"
	"github.com/cuemby/flashflood/pkg/metrics"
	"github.com/cuemby/flashflood/pkg/notify"
	"github.com/cuemby/flashflood/pkg/store"
	"github.com/cuemby/flashflood/pkg/timeutil"
	"github.com/google/uuid"
)

// FlashFlood is the engine binding a blob store to the journal, journal
// update, and key index layers. One instance owns one root prefix; it
// is safe for concurrent reads, but mutating calls assume a single
// writer, per the key index and journal packages it is built on.
type FlashFlood struct {
	store      store.Store
	pool       *store.Pool
	rootPrefix string
	journals   *journal.Journals
	markers    *journalupdate.Markers
	index      *keyindex.KeyIndex
	broker     *notify.Broker
}

// New builds a FlashFlood engine over s, storing everything under
// rootPrefix. broker may be nil, in which case notifications are
// dropped rather than published.
func New(s store.Store, rootPrefix string, broker *notify.Broker) (*FlashFlood, error) {
	if strings.HasSuffix(rootPrefix, "/") {
		return nil, fmt.Errorf("flashflood: root prefix %q must not end with '/'", rootPrefix)
	}
	journalPrefix := rootPrefix + "/journals"
	blobsPrefix := rootPrefix + "/blobs"
	updatePrefix := rootPrefix + "/update"
	indexPrefix := rootPrefix + "/index"

	instrumented := store.Instrument(s)
	f := &FlashFlood{
		store:      instrumented,
		pool:       store.NewPool(store.DefaultPoolSize),
		rootPrefix: rootPrefix,
		journals:   journal.New(instrumented, journalPrefix, blobsPrefix),
		markers:    journalupdate.New(instrumented, updatePrefix),
		index:      keyindex.New(instrumented, indexPrefix),
		broker:     broker,
	}
	metrics.RegisterComponent(metrics.ComponentStore, true, "store adapter initialized")
	return f, nil
}

func (f *FlashFlood) notify(n notify.Notification) {
	if f.broker != nil {
		f.broker.Publish(n)
	}
}

// JournalCount implements metrics.StatsProvider.
func (f *FlashFlood) JournalCount() (int, error) {
	ids, err := f.journals.List(context.Background())
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// SubscriberCount implements metrics.StatsProvider.
func (f *FlashFlood) SubscriberCount() int {
	if f.broker == nil {
		return 0
	}
	return f.broker.SubscriberCount()
}

// Put appends a new single-event journal for data. eventID defaults to
// a random uuid when empty; date defaults to now when nil.
func (f *FlashFlood) Put(ctx context.Context, data []byte, eventID string, date *time.Time) (journal.Event, error) {
	timer := metrics.NewTimer()
	defer timer.ObservePut()

	when := time.Now()
	if date != nil {
		when = *date
	}
	timestamp := timeutil.Format(when)

	if eventID == "" {
		eventID = uuid.NewString()
	}
	if err := identifiers.ValidateEventID(eventID); err != nil {
		return journal.Event{}, err
	}

	exists, err := f.EventExists(ctx, eventID)
	if err != nil {
		return journal.Event{}, err
	}
	if exists {
		return journal.Event{}, fmt.Errorf("flashflood: event %s: %w", eventID, ErrEventExists)
	}

	events := []journal.EventMeta{{EventID: eventID, Timestamp: timestamp, Offset: 0, Size: int64(len(data))}}
	j := f.journals.NewJournal(events, "", data, timeutil.NewVersion)
	if _, err := j.Upload(ctx); err != nil {
		metrics.UpdateComponent(metrics.ComponentStore, false, err.Error())
		return journal.Event{}, fmt.Errorf("flashflood: put %s: %w", eventID, ErrJournalUpload)
	}
	metrics.UpdateComponent(metrics.ComponentStore, true, "")
	if err := f.indexJournal(ctx, j); err != nil {
		return journal.Event{}, err
	}

	log.WithComponent("flashflood").Info().Str("event_id", eventID).Str("journal_id", string(j.ID())).Msg("new journal")
	metrics.EventsPutTotal.Inc()
	f.notify(notify.Notification{Kind: notify.KindPut, JournalID: string(j.ID()), EventID: eventID})

	return journal.Event{EventID: eventID, Date: when, Data: data}, nil
}

func (f *FlashFlood) indexJournal(ctx context.Context, j *journal.Journal) error {
	lookup := make(map[string]string, len(j.Events))
	for _, e := range j.Events {
		lookup[e.EventID] = string(j.ID())
	}
	if err := f.index.PutBatch(ctx, lookup); err != nil {
		return fmt.Errorf("flashflood: index journal %s: %w", j.ID(), err)
	}
	return nil
}

// EventExists reports whether eventID is currently indexed.
func (f *FlashFlood) EventExists(ctx context.Context, eventID string) (bool, error) {
	_, ok, err := f.index.Get(ctx, eventID)
	if err != nil {
		return false, fmt.Errorf("flashflood: event exists %s: %w", eventID, err)
	}
	return ok, nil
}

func (f *FlashFlood) journalForEvent(ctx context.Context, eventID string) (identifiers.JournalID, error) {
	target, ok, err := f.index.Get(ctx, eventID)
	if err != nil {
		return "", fmt.Errorf("flashflood: journal for event %s: %w", eventID, err)
	}
	if !ok {
		return "", fmt.Errorf("flashflood: journal for event %s: %w", eventID, ErrEventNotFound)
	}
	return identifiers.JournalID(target), nil
}

// GetEvent fetches eventID's current data.
func (f *FlashFlood) GetEvent(ctx context.Context, eventID string) (journal.Event, error) {
	journalID, err := f.journalForEvent(ctx, eventID)
	if err != nil {
		return journal.Event{}, err
	}
	j, err := f.journals.FromID(ctx, journalID)
	if err != nil {
		return journal.Event{}, fmt.Errorf("flashflood: get event %s: %w", eventID, err)
	}
	ev, err := j.GetEvent(ctx, eventID)
	if err != nil {
		return journal.Event{}, err
	}
	return ev, nil
}

// UpdateEvent records a pending UPDATE marker replacing eventID's data.
// The change is not visible to GetEvent/Replay until a subsequent Update
// call folds the marker into its journal.
func (f *FlashFlood) UpdateEvent(ctx context.Context, eventID string, newData []byte) error {
	journalID, err := f.journalForEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if _, err := f.markers.UploadUpdate(ctx, journalID, eventID, newData); err != nil {
		return fmt.Errorf("flashflood: update event %s: %w", eventID, err)
	}
	log.WithEventID(eventID).Info().Msg("update marker recorded")
	f.notify(notify.Notification{Kind: notify.KindEventUpdated, JournalID: string(journalID), EventID: eventID})
	return nil
}

// DeleteEvent records a pending DELETE marker for eventID and removes it
// from the key index immediately. The event stays visible to Replay
// (which reads journal contents directly) until Update folds the
// marker in.
func (f *FlashFlood) DeleteEvent(ctx context.Context, eventID string) error {
	journalID, err := f.journalForEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if _, err := f.markers.UploadDelete(ctx, journalID, eventID); err != nil {
		return fmt.Errorf("flashflood: delete event %s: %w", eventID, err)
	}
	if err := f.index.Delete(ctx, eventID); err != nil {
		return fmt.Errorf("flashflood: delete event %s: %w", eventID, err)
	}
	log.WithEventID(eventID).Info().Msg("delete marker recorded")
	f.notify(notify.Notification{Kind: notify.KindEventDeleted, JournalID: string(journalID), EventID: eventID})
	return nil
}

// Update applies pending update/delete markers to their journals, up to
// numberOfUpdatesToApply markers, and returns how many were applied. A
// journal with surviving events after updates are applied is
// re-uploaded and re-indexed before the old journal and its consumed
// markers are deleted.
func (f *FlashFlood) Update(ctx context.Context, numberOfUpdatesToApply int) (int, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveUpdate()

	if numberOfUpdatesToApply <= 0 {
		numberOfUpdatesToApply = 1000
	}

	groups, err := f.markers.GetUpdatesForAllJournals(ctx)
	if err != nil {
		return 0, fmt.Errorf("flashflood: update: %w", err)
	}

	count := 0
	for _, group := range groups {
		j, err := f.journals.FromID(ctx, group.JournalID)
		if err != nil {
			return count, fmt.Errorf("flashflood: update journal %s: %w", group.JournalID, err)
		}
		newJournal, err := j.Updated(ctx, group.Updates)
		if err != nil {
			return count, fmt.Errorf("flashflood: apply updates to %s: %w", group.JournalID, err)
		}
		if newJournal != j {
			if !newJournal.IsEmpty() {
				if _, err := newJournal.Upload(ctx); err != nil {
					return count, fmt.Errorf("flashflood: upload updated journal: %w", ErrJournalUpload)
				}
				if err := f.indexJournal(ctx, newJournal); err != nil {
					return count, err
				}
			}
			if err := j.Delete(ctx); err != nil {
				return count, fmt.Errorf("flashflood: retire journal %s: %w", group.JournalID, err)
			}
		}
		for _, u := range group.Updates {
			action := "update"
			if u.Action() == identifiers.ActionDelete {
				action = "delete"
			}
			if err := u.Delete(ctx); err != nil {
				return count, fmt.Errorf("flashflood: consume marker: %w", err)
			}
			metrics.UpdatesAppliedTotal.WithLabelValues(action).Inc()
		}
		count += len(group.Updates)
		log.WithComponent("flashflood").Info().Str("journal_id", string(group.JournalID)).Int("updates", len(group.Updates)).Msg("journal updated")
		f.notify(notify.Notification{Kind: notify.KindUpdated, JournalID: string(group.JournalID)})
		if numberOfUpdatesToApply <= count {
			break
		}
	}
	return count, nil
}

// Journal folds the accumulated backlog of freshly-ingested ("new")
// single-event journals into one combined journal, stopping as soon as
// minimumNumberOfEvents and minimumSize are both satisfied. It returns
// ErrJournaling (wrapped) if the entire backlog is consumed without
// meeting both thresholds.
func (f *FlashFlood) Journal(ctx context.Context, minimumNumberOfEvents int, minimumSize int64) error {
	timer := metrics.NewTimer()
	defer timer.ObserveJournal()

	newIDs, err := f.newJournals(ctx)
	if err != nil {
		return fmt.Errorf("flashflood: journal: %w", err)
	}

	var numberOfEvents int
	var size int64
	var toCombine []*journal.Journal
	for _, id := range newIDs {
		j, err := f.journals.FromID(ctx, id)
		if err != nil {
			return fmt.Errorf("flashflood: journal: load %s: %w", id, err)
		}
		size += j.Size()
		numberOfEvents += len(j.Events)
		toCombine = append(toCombine, j)
		if minimumNumberOfEvents <= numberOfEvents && minimumSize <= size {
			break
		}
	}
	if minimumNumberOfEvents > numberOfEvents {
		return fmt.Errorf("flashflood: journal condition minimum_number_of_events=%d: %w", minimumNumberOfEvents, ErrJournaling)
	}
	if minimumSize > size {
		return fmt.Errorf("flashflood: journal condition minimum_size=%d: %w", minimumSize, ErrJournaling)
	}
	_, err = f.CombineJournals(ctx, toCombine)
	return err
}

func (f *FlashFlood) newJournals(ctx context.Context) ([]identifiers.JournalID, error) {
	ids, err := f.journals.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []identifiers.JournalID
	for _, id := range ids {
		if id.IsNew() {
			out = append(out, id)
		}
	}
	return out, nil
}

// CombineJournals folds journalsToCombine into a single new journal,
// applying any pending update/delete markers recorded against each
// along the way, then deletes the inputs and their consumed markers.
// The per-journal update lookup is fanned out across the engine's
// worker pool.
func (f *FlashFlood) CombineJournals(ctx context.Context, journalsToCombine []*journal.Journal) (*journal.Journal, error) {
	type resolved struct {
		updates map[string]*journalupdate.JournalUpdate
	}
	results := make([]resolved, len(journalsToCombine))
	tasks := make([]func() error, len(journalsToCombine))
	for i, j := range journalsToCombine {
		i, j := i, j
		tasks[i] = func() error {
			updates, err := f.markers.GetUpdatesForJournal(ctx, j.ID())
			if err != nil {
				return err
			}
			results[i] = resolved{updates: updates}
			return nil
		}
	}
	if err := f.pool.Run(tasks); err != nil {
		return nil, fmt.Errorf("flashflood: combine journals: %w", err)
	}

	var objectsToDelete []*journal.Journal
	var markersToDelete []*journalupdate.JournalUpdate
	var newEvents []journal.EventMeta
	var newData []byte
	for i, j := range journalsToCombine {
		objectsToDelete = append(objectsToDelete, j)
		for _, u := range results[i].updates {
			markersToDelete = append(markersToDelete, u)
		}
		updated, err := j.Updated(ctx, results[i].updates)
		if err != nil {
			return nil, fmt.Errorf("flashflood: combine journals: apply updates to %s: %w", j.ID(), err)
		}
		body, err := updated.Body(ctx)
		if err != nil {
			return nil, fmt.Errorf("flashflood: combine journals: read body: %w", err)
		}
		for _, e := range updated.Events {
			e.Offset += int64(len(newData))
			newEvents = append(newEvents, e)
		}
		data, err := io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("flashflood: combine journals: read body: %w", err)
		}
		newData = append(newData, data...)
	}

	newJournal := f.journals.NewJournal(newEvents, "", newData, "")
	if !newJournal.IsEmpty() {
		if _, err := newJournal.Upload(ctx); err != nil {
			return nil, fmt.Errorf("flashflood: combine journals: upload: %w", ErrJournalUpload)
		}
		if err := f.indexJournal(ctx, newJournal); err != nil {
			return nil, err
		}
	}
	for _, j := range objectsToDelete {
		if err := j.Delete(ctx); err != nil {
			return nil, fmt.Errorf("flashflood: combine journals: retire %s: %w", j.ID(), err)
		}
	}
	for _, u := range markersToDelete {
		if err := u.Delete(ctx); err != nil {
			return nil, fmt.Errorf("flashflood: combine journals: consume marker: %w", err)
		}
	}

	metrics.JournalsCombinedTotal.Add(float64(len(journalsToCombine)))
	if !newJournal.IsEmpty() {
		log.WithComponent("flashflood").Info().Str("journal_id", string(newJournal.ID())).Int("combined", len(journalsToCombine)).Msg("journals combined")
		f.notify(notify.Notification{Kind: notify.KindJournaled, JournalID: string(newJournal.ID())})
	}
	return newJournal, nil
}

// ListJournals yields the id of every live journal whose date range
// overlaps (from, to], in ascending order, stopping as soon as a
// journal's start date is already past the search range.
func (f *FlashFlood) ListJournals(ctx context.Context, from, to *time.Time) (JournalIDIterator, error) {
	searchRange := dateRange(from, to)
	ids, err := f.journals.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("flashflood: list journals: %w", err)
	}

	var out []identifiers.JournalID
	for _, id := range ids {
		start, err := id.StartDate()
		if err != nil {
			return nil, fmt.Errorf("flashflood: list journals: parse %s: %w", id, err)
		}
		end, err := id.EndDate()
		if err != nil {
			return nil, fmt.Errorf("flashflood: list journals: parse %s: %w", id, err)
		}
		journalRange := timeutil.DateRange{Start: start, End: end}
		if journalRange.Overlaps(searchRange) {
			out = append(out, id)
		} else if searchRange.Future().Contains(start) {
			break
		}
	}
	return sliceJournalIDIterator(out), nil
}

// Replay yields every event recorded in (from, to], in chronological
// order, reading journal bodies lazily as iteration proceeds.
func (f *FlashFlood) Replay(ctx context.Context, from, to *time.Time) (EventIterator, error) {
	searchRange := dateRange(from, to)
	journalIDs, err := f.ListJournals(ctx, from, to)
	if err != nil {
		return nil, err
	}

	var curJournal *journal.Journal
	var curEvents []journal.EventMeta
	idx := 0

	var advance func() (journal.Event, bool, error)
	advance = func() (journal.Event, bool, error) {
		for {
			if curJournal == nil {
				id, ok, err := journalIDs()
				if err != nil || !ok {
					return journal.Event{}, false, err
				}
				j, err := f.journals.FromID(ctx, id)
				if err != nil {
					return journal.Event{}, false, fmt.Errorf("flashflood: replay: load %s: %w", id, err)
				}
				curJournal = j
				curEvents = j.Events
				idx = 0
			}
			if idx >= len(curEvents) {
				curJournal = nil
				continue
			}
			e := curEvents[idx]
			idx++
			date, err := timeutil.Parse(e.Timestamp)
			if err != nil {
				return journal.Event{}, false, fmt.Errorf("flashflood: replay: parse timestamp %q: %w", e.Timestamp, err)
			}
			if searchRange.Contains(date) {
				ev, err := curJournal.GetEvent(ctx, e.EventID)
				if err != nil {
					return journal.Event{}, false, err
				}
				metrics.ReplayEventsTotal.Inc()
				return ev, true, nil
			}
			if searchRange.Future().Contains(date) {
				curJournal = nil
				idx = len(curEvents)
				continue
			}
		}
	}
	return advance, nil
}

// generatePresignedURL returns a URL that can fetch journalID's blob.
func (f *FlashFlood) generatePresignedURL(ctx context.Context, journalID identifiers.JournalID) (string, error) {
	key := fmt.Sprintf("%s/blobs/%s", f.rootPrefix, journalID.BlobID())
	url, err := f.store.PresignGet(ctx, key)
	if err != nil {
		return "", fmt.Errorf("flashflood: presign %s: %w", key, err)
	}
	return url, nil
}

// ListEventStreams yields each live journal in (from, to] as a manifest
// paired with a presigned URL its blob can be fetched from, suitable
// for handing to reader.ReplayEventStream by a remote caller.
func (f *FlashFlood) ListEventStreams(ctx context.Context, from, to *time.Time) (EventStreamIterator, error) {
	journalIDs, err := f.ListJournals(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return func() (EventStream, bool, error) {
		id, ok, err := journalIDs()
		if err != nil || !ok {
			return EventStream{}, false, err
		}
		j, err := f.journals.FromID(ctx, id)
		if err != nil {
			return EventStream{}, false, fmt.Errorf("flashflood: list event streams: load %s: %w", id, err)
		}
		url, err := f.generatePresignedURL(ctx, id)
		if err != nil {
			return EventStream{}, false, err
		}
		return EventStream{Manifest: j.BuildManifest(), StreamURL: url}, true, nil
	}, nil
}

// Destroy removes every object under the engine's root prefix.
func (f *FlashFlood) Destroy(ctx context.Context) error {
	keys, err := f.store.List(ctx, f.rootPrefix+"/")
	if err != nil {
		return fmt.Errorf("flashflood: destroy: %w", err)
	}
	if err := f.store.BatchDelete(ctx, keys); err != nil {
		return fmt.Errorf("flashflood: destroy: %w", err)
	}
	log.WithComponent("flashflood").Warn().Str("root_prefix", f.rootPrefix).Int("keys", len(keys)).Msg("destroyed")
	return nil
}

func dateRange(from, to *time.Time) timeutil.DateRange {
	return timeutil.NewDateRange(from, to)
}
