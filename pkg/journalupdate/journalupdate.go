package journalupdate

import (
	"context"
	"fmt"
	"strings"

	"github.com/cuemby/flashflood/pkg/identifiers"
	"github.com/cuemby/flashflood/pkg/store"
)

// Markers is bound to a Store and the prefix markers are stored under.
// It plays the role the original implementation gave a BaseJournalUpdate
// subclass bound to a bucket and prefix at FlashFlood construction time.
type Markers struct {
	store  store.Store
	prefix string
}

// New binds a Markers factory to s, storing entries under prefix.
func New(s store.Store, prefix string) *Markers {
	return &Markers{store: s, prefix: prefix}
}

// JournalUpdate is a single pending UPDATE or DELETE marker.
type JournalUpdate struct {
	m    *Markers
	id   identifiers.JournalUpdateID
	data []byte
	have bool
}

func (m *Markers) fromID(id identifiers.JournalUpdateID) *JournalUpdate {
	return &JournalUpdate{m: m, id: id}
}

// FromKey builds a JournalUpdate handle from a full store key.
func (m *Markers) FromKey(key string) *JournalUpdate {
	return m.fromID(identifiers.JournalUpdateIDFromKey(key))
}

// UploadUpdate records a new UPDATE marker carrying replacement data for
// eventID in journalID.
func (m *Markers) UploadUpdate(ctx context.Context, journalID identifiers.JournalID, eventID string, data []byte) (*JournalUpdate, error) {
	id := identifiers.MakeJournalUpdateID(journalID, eventID, identifiers.ActionUpdate)
	u := m.fromID(id)
	if err := m.upload(ctx, id, data); err != nil {
		return nil, err
	}
	return u, nil
}

// UploadDelete records a new DELETE marker for eventID in journalID.
func (m *Markers) UploadDelete(ctx context.Context, journalID identifiers.JournalID, eventID string) (*JournalUpdate, error) {
	id := identifiers.MakeJournalUpdateID(journalID, eventID, identifiers.ActionDelete)
	u := m.fromID(id)
	if err := m.upload(ctx, id, nil); err != nil {
		return nil, err
	}
	return u, nil
}

func (m *Markers) upload(ctx context.Context, id identifiers.JournalUpdateID, data []byte) error {
	key := fmt.Sprintf("%s/%s", m.prefix, id)
	if err := m.store.Put(ctx, key, data); err != nil {
		return fmt.Errorf("journalupdate: upload %s: %w", id, err)
	}
	return nil
}

// JournalID returns the journal this marker applies to.
func (u *JournalUpdate) JournalID() identifiers.JournalID {
	return u.id.JournalID()
}

// EventID returns the event this marker applies to.
func (u *JournalUpdate) EventID() string {
	return u.id.EventID()
}

// Action returns whether this is an UPDATE or DELETE marker.
func (u *JournalUpdate) Action() identifiers.JournalUpdateAction {
	return u.id.Action()
}

// Data returns the marker's replacement data (empty for a DELETE
// marker), fetching it from the store on first use.
func (u *JournalUpdate) Data(ctx context.Context) ([]byte, error) {
	if !u.have {
		key := fmt.Sprintf("%s/%s", u.m.prefix, u.id)
		data, err := u.m.store.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("journalupdate: fetch data for %s: %w", u.id, err)
		}
		u.data = data
		u.have = true
	}
	return u.data, nil
}

// Delete tombstones the marker, e.g. once it has been applied.
func (u *JournalUpdate) Delete(ctx context.Context) error {
	key := fmt.Sprintf("%s/%s", u.m.prefix, u.id)
	keys, err := u.m.store.List(ctx, key)
	if err != nil {
		return fmt.Errorf("journalupdate: delete %s: %w", u.id, err)
	}
	if len(keys) == 0 {
		return fmt.Errorf("journalupdate: cannot delete non-existent object %s", key)
	}
	if err := u.m.store.Put(ctx, key+identifiers.TombstoneSuffix, nil); err != nil {
		return fmt.Errorf("journalupdate: delete %s: %w", u.id, err)
	}
	return nil
}

// JournalGroup pairs a journal id with every pending marker recorded
// for it.
type JournalGroup struct {
	JournalID identifiers.JournalID
	Updates   map[string]*JournalUpdate
}

// List returns every marker id recorded under updateIDPrefix, in
// lexical key order, skipping markers that have already been tombstoned.
// Because a marker's tombstone key is lexically adjacent to the marker
// itself (same prefix, ".dead" suffix), detecting a tombstoned marker
// only ever requires looking at the previous key in the listing.
func (m *Markers) List(ctx context.Context, updateIDPrefix string) ([]identifiers.JournalUpdateID, error) {
	keys, err := m.store.List(ctx, fmt.Sprintf("%s/%s", m.prefix, updateIDPrefix))
	if err != nil {
		return nil, fmt.Errorf("journalupdate: list %s: %w", updateIDPrefix, err)
	}

	var ids []identifiers.JournalUpdateID
	var prevKey string
	for _, key := range keys {
		if prevKey != "" {
			if !strings.HasSuffix(key, identifiers.TombstoneSuffix) && !strings.HasSuffix(prevKey, identifiers.TombstoneSuffix) {
				ids = append(ids, identifiers.JournalUpdateIDFromKey(prevKey))
			}
		}
		prevKey = key
	}
	if prevKey != "" && !strings.HasSuffix(prevKey, identifiers.TombstoneSuffix) {
		ids = append(ids, identifiers.JournalUpdateIDFromKey(prevKey))
	}
	return ids, nil
}

// GetUpdatesForJournal returns every pending marker for journalID,
// keyed by event id ("last key wins" collision policy: if two markers
// exist for the same event, the lexically later -- i.e. more recently
// created -- one overwrites the earlier in the returned map).
func (m *Markers) GetUpdatesForJournal(ctx context.Context, journalID identifiers.JournalID) (map[string]*JournalUpdate, error) {
	ids, err := m.List(ctx, identifiers.PrefixForJournal(journalID))
	if err != nil {
		return nil, err
	}
	updates := make(map[string]*JournalUpdate, len(ids))
	for _, id := range ids {
		u := m.fromID(id)
		updates[u.EventID()] = u
	}
	return updates, nil
}

// GetUpdatesForAllJournals groups every pending marker by journal,
// preserving the order journals first appear in the underlying
// listing.
func (m *Markers) GetUpdatesForAllJournals(ctx context.Context) ([]JournalGroup, error) {
	ids, err := m.List(ctx, "")
	if err != nil {
		return nil, err
	}

	var groups []JournalGroup
	var current *JournalGroup
	for _, id := range ids {
		jid := id.JournalID()
		if current == nil || current.JournalID != jid {
			if current != nil {
				groups = append(groups, *current)
			}
			current = &JournalGroup{JournalID: jid, Updates: make(map[string]*JournalUpdate)}
		}
		u := m.fromID(id)
		current.Updates[u.EventID()] = u
	}
	if current != nil {
		groups = append(groups, *current)
	}
	return groups, nil
}

// ListOutOfDateJournals returns the id of each journal with at least
// one pending marker, in the order those journals first appear in the
// marker listing. Kept for parity with the original implementation's
// public helper of the same name; nothing else in this module calls it.
func (m *Markers) ListOutOfDateJournals(ctx context.Context) ([]identifiers.JournalID, error) {
	ids, err := m.List(ctx, "")
	if err != nil {
		return nil, err
	}
	var out []identifiers.JournalID
	var prev identifiers.JournalID
	first := true
	for _, id := range ids {
		jid := id.JournalID()
		if first || prev != jid {
			out = append(out, jid)
		}
		prev = jid
		first = false
	}
	return out, nil
}
