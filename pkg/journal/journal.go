package journal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"context"

	"github.com/cuemby/flashflood/pkg/identifiers"
	"github.com/cuemby/flashflood/pkg/journalupdate"
	"github.com/cuemby/flashflood/pkg/store"
	"github.com/cuemby/flashflood/pkg/timeutil"
	"github.com/google/uuid"
)

// EventMeta is one event's entry in a journal manifest: everything
// needed to locate and decode the event's bytes within the journal's
// blob without touching the blob itself.
type EventMeta struct {
	EventID   string `json:"event_id"`
	Timestamp string `json:"timestamp"`
	Offset    int64  `json:"offset"`
	Size      int64  `json:"size"`
}

// Manifest is the JSON document uploaded alongside a journal's blob.
type Manifest struct {
	JournalID string      `json:"journal_id"`
	FromDate  string      `json:"from_date"`
	ToDate    string      `json:"to_date"`
	Size      int64       `json:"size"`
	Events    []EventMeta `json:"events"`
}

// Event is one event read back out of a journal.
type Event struct {
	EventID string
	Date    time.Time
	Data    []byte
}

const bodyLocationMemory = "memory"
const bodyLocationStore = "store"

// Journals is bound to a Store and the journal/blob prefixes journals
// are stored under -- the role the original implementation gave a
// BaseJournal subclass bound to a bucket and prefixes at FlashFlood
// construction time.
type Journals struct {
	store         store.Store
	journalPrefix string
	blobsPrefix   string
}

// New binds a Journals factory to s, storing manifests under
// journalPrefix and blob data under blobsPrefix.
func New(s store.Store, journalPrefix, blobsPrefix string) *Journals {
	return &Journals{store: s, journalPrefix: journalPrefix, blobsPrefix: blobsPrefix}
}

// Journal is an in-memory or store-backed journal: a manifest of
// events plus either buffered bytes (not yet uploaded) or a reference
// to the uploaded blob.
type Journal struct {
	js       *Journals
	Events   []EventMeta
	BlobID   string
	Version  string
	data     []byte
	location string
	body     io.Reader
}

// NewJournal builds a fresh, not-yet-uploaded journal from events and
// data. blobID and version default to a random uuid and the current
// timestamp respectively when empty, so a compacted journal built by
// CombineJournals gets a formation-timestamp version; a freshly
// ingested single-event journal is given the "new" version by passing
// it explicitly.
func (js *Journals) NewJournal(events []EventMeta, blobID string, data []byte, version string) *Journal {
	if blobID == "" {
		blobID = uuid.NewString()
	}
	if version == "" {
		version = timeutil.Now()
	}
	return &Journal{
		js:       js,
		Events:   events,
		BlobID:   blobID,
		data:     data,
		Version:  version,
		location: bodyLocationMemory,
	}
}

// FromKey loads the journal manifest stored at key.
func (js *Journals) FromKey(ctx context.Context, key string) (*Journal, error) {
	id := identifiers.JournalIDFromKey(key)
	raw, err := js.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("journal: load manifest %s: %w", key, err)
	}
	var manifest Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("journal: decode manifest %s: %w", key, err)
	}
	return &Journal{
		js:       js,
		Events:   manifest.Events,
		BlobID:   id.BlobID(),
		Version:  id.Version(),
		location: bodyLocationStore,
	}, nil
}

// FromID loads the journal identified by id.
func (js *Journals) FromID(ctx context.Context, id identifiers.JournalID) (*Journal, error) {
	return js.FromKey(ctx, fmt.Sprintf("%s/%s", js.journalPrefix, id))
}

// IsEmpty reports whether the journal carries no events.
func (j *Journal) IsEmpty() bool {
	return len(j.Events) == 0
}

// ID returns the journal's composite id. It panics if the journal is
// empty, matching the precondition the original implementation
// enforces (an empty journal has no well-defined time range).
func (j *Journal) ID() identifiers.JournalID {
	if j.IsEmpty() {
		panic("journal: cannot generate id for empty journal")
	}
	return identifiers.MakeJournalID(j.Events[0].Timestamp, j.Events[len(j.Events)-1].Timestamp, j.Version, j.BlobID)
}

// Reload discards any buffered/opened body so the next Body call
// fetches fresh bytes (or re-reads from the start, for a buffered
// journal).
func (j *Journal) Reload() {
	j.body = nil
}

func (j *Journal) blobKey() string {
	return fmt.Sprintf("%s/%s", j.js.blobsPrefix, j.BlobID)
}

// Body returns a reader over the journal's event bytes, fetching the
// full blob from the store on first use for a store-backed journal.
func (j *Journal) Body(ctx context.Context) (io.Reader, error) {
	if j.body == nil {
		switch j.location {
		case bodyLocationMemory:
			j.body = bytes.NewReader(j.data)
		case bodyLocationStore:
			data, err := j.js.store.Get(ctx, j.blobKey())
			if err != nil {
				return nil, fmt.Errorf("journal: fetch blob %s: %w", j.blobKey(), err)
			}
			j.body = bytes.NewReader(data)
		default:
			return nil, fmt.Errorf("journal: unknown body location %q", j.location)
		}
	}
	return j.body, nil
}

// Size returns the journal's total byte size.
func (j *Journal) Size() int64 {
	if j.location == bodyLocationMemory {
		return int64(len(j.data))
	}
	var total int64
	for _, e := range j.Events {
		total += e.Size
	}
	return total
}

// BuildManifest returns the manifest document for this journal.
func (j *Journal) BuildManifest() Manifest {
	return Manifest{
		JournalID: string(j.ID()),
		FromDate:  j.Events[0].Timestamp,
		ToDate:    j.Events[len(j.Events)-1].Timestamp,
		Size:      j.Size(),
		Events:    j.Events,
	}
}

// GetEvent reads a single event's data out of the journal's blob by
// byte range.
func (j *Journal) GetEvent(ctx context.Context, eventID string) (Event, error) {
	for _, e := range j.Events {
		if e.EventID != eventID {
			continue
		}
		date, err := timeutil.Parse(e.Timestamp)
		if err != nil {
			return Event{}, fmt.Errorf("journal: parse event timestamp %q: %w", e.Timestamp, err)
		}
		data, err := j.js.store.GetRange(ctx, j.blobKey(), e.Offset, e.Offset+e.Size-1)
		if err != nil {
			return Event{}, fmt.Errorf("journal: fetch event %s: %w", eventID, err)
		}
		return Event{EventID: eventID, Date: date, Data: data}, nil
	}
	return Event{}, fmt.Errorf("journal: event %s not found in journal %s: %w", eventID, j.ID(), errEventNotFound)
}

// Updated returns a new, not-yet-uploaded journal with updates applied:
// an UPDATE marker replaces an event's data, a DELETE marker drops the
// event, and any event with no marker carries over unchanged. If
// updates is empty, j itself is returned.
func (j *Journal) Updated(ctx context.Context, updates map[string]*journalupdate.JournalUpdate) (*Journal, error) {
	if len(updates) == 0 {
		return j, nil
	}
	j.Reload()
	body, err := j.Body(ctx)
	if err != nil {
		return nil, err
	}

	var newData []byte
	newEvents := make([]EventMeta, 0, len(j.Events))
	for _, e := range j.Events {
		eventData := make([]byte, e.Size)
		if _, err := io.ReadFull(body, eventData); err != nil {
			return nil, fmt.Errorf("journal: read event %s while applying updates: %w", e.EventID, err)
		}
		update, ok := updates[e.EventID]
		e.Offset = int64(len(newData))
		if !ok {
			newData = append(newData, eventData...)
			newEvents = append(newEvents, e)
			continue
		}
		switch update.Action() {
		case identifiers.ActionUpdate:
			data, err := update.Data(ctx)
			if err != nil {
				return nil, err
			}
			newData = append(newData, data...)
			e.Size = int64(len(data))
			newEvents = append(newEvents, e)
		case identifiers.ActionDelete:
			// event dropped
		default:
			return nil, fmt.Errorf("journal: no handler for journal update action %v", update.Action())
		}
	}
	return j.js.NewJournal(newEvents, "", newData, ""), nil
}

// Upload writes the journal's blob and manifest to the store. It
// returns the manifest's store key. Uploading a journal with no events
// is rejected.
func (j *Journal) Upload(ctx context.Context) (string, error) {
	if j.IsEmpty() {
		return "", fmt.Errorf("journal: %w", errUploadEmpty)
	}
	body, err := j.Body(ctx)
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("journal: read body for upload: %w", err)
	}

	id := j.ID()
	if err := j.js.store.PutWithMetadata(ctx, j.blobKey(), data, map[string]string{"journal_id": string(id)}); err != nil {
		return "", fmt.Errorf("journal: upload blob %s: %w", j.blobKey(), err)
	}

	manifest := j.BuildManifest()
	encoded, err := json.Marshal(manifest)
	if err != nil {
		return "", fmt.Errorf("journal: encode manifest for %s: %w", id, err)
	}
	key := fmt.Sprintf("%s/%s", j.js.journalPrefix, id)
	metadata := map[string]string{
		"number_of_events":  strconv.Itoa(len(j.Events)),
		"journal_data_size": strconv.Itoa(len(data)),
	}
	if err := j.js.store.PutWithMetadata(ctx, key, encoded, metadata); err != nil {
		return "", fmt.Errorf("journal: upload manifest %s: %w", key, err)
	}
	j.Reload()
	return key, nil
}

// Delete tombstones the journal.
func (j *Journal) Delete(ctx context.Context) error {
	key := fmt.Sprintf("%s/%s", j.js.journalPrefix, j.ID())
	keys, err := j.js.store.List(ctx, key)
	if err != nil {
		return fmt.Errorf("journal: delete %s: %w", key, err)
	}
	if len(keys) == 0 {
		return fmt.Errorf("journal: cannot delete non-existent object %s", key)
	}
	if err := j.js.store.Put(ctx, key+identifiers.TombstoneSuffix, nil); err != nil {
		return fmt.Errorf("journal: delete %s: %w", key, err)
	}
	return nil
}

// Keys returns the manifest and blob keys this journal occupies.
func (j *Journal) Keys() []string {
	id := j.ID()
	return []string{
		fmt.Sprintf("%s/%s", j.js.journalPrefix, id),
		fmt.Sprintf("%s/%s", j.js.blobsPrefix, j.BlobID),
	}
}

// List returns the current journal id for every distinct time range
// under management: for each group of journal versions sharing a
// start--end range prefix, the group's last surviving (non-tombstoned)
// id, in the order those ranges first appear in the underlying
// listing.
func (js *Journals) List(ctx context.Context) ([]identifiers.JournalID, error) {
	keys, err := js.store.List(ctx, js.journalPrefix+"/")
	if err != nil {
		return nil, fmt.Errorf("journal: list: %w", err)
	}

	var result []identifiers.JournalID
	var group []identifiers.JournalID
	var rangePrefix string
	first := true
	for _, key := range keys {
		id := identifiers.JournalIDFromKey(key)
		rp := id.RangePrefix()
		if first || rp != rangePrefix {
			if len(group) > 0 {
				result = append(result, group[len(group)-1])
			}
			rangePrefix = rp
			group = []identifiers.JournalID{id}
			first = false
			continue
		}
		if strings.HasSuffix(string(id), identifiers.TombstoneSuffix) {
			plain := identifiers.JournalID(strings.TrimSuffix(string(id), identifiers.TombstoneSuffix))
			group = removeJournalID(group, plain)
		} else {
			group = append(group, id)
		}
	}
	if len(group) > 0 {
		result = append(result, group[len(group)-1])
	}
	return result, nil
}

func removeJournalID(group []identifiers.JournalID, target identifiers.JournalID) []identifiers.JournalID {
	for i, id := range group {
		if id == target {
			return append(group[:i], group[i+1:]...)
		}
	}
	return group
}
