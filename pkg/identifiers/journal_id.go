package identifiers

import (
	"fmt"
	"strings"
	"time"

	"github.com/cuemby/flashflood/pkg/timeutil"
)

// Delimiter separates the parts of a JournalID and a JournalUpdateID.
const Delimiter = "--"

// TombstoneSuffix marks a key as logically deleted when appended to it.
const TombstoneSuffix = ".dead"

// JournalID is the composite name of a journal: start_ts--end_ts--version--blob_id.
// It is immutable once constructed; every mutation of a journal produces a
// new JournalID with a greater version and a fresh blob_id.
type JournalID string

// MakeJournalID joins the four parts of a journal identifier.
func MakeJournalID(startTimestamp, endTimestamp, version, blobID string) JournalID {
	return JournalID(strings.Join([]string{startTimestamp, endTimestamp, version, blobID}, Delimiter))
}

// JournalIDFromKey extracts the JournalID from a full store key
// (root/journals/<journal_id>).
func JournalIDFromKey(key string) JournalID {
	if i := strings.LastIndexByte(key, '/'); i >= 0 {
		key = key[i+1:]
	}
	return JournalID(key)
}

// parts splits a JournalID into its four components. A JournalID is always
// composed of exactly 4 parts joined by Delimiter.
func (id JournalID) parts() ([4]string, error) {
	var out [4]string
	p := strings.Split(string(id), Delimiter)
	if len(p) != 4 {
		return out, fmt.Errorf("identifiers: malformed journal id %q", id)
	}
	copy(out[:], p)
	return out, nil
}

// StartTimestamp returns the raw start timestamp part.
func (id JournalID) StartTimestamp() string {
	p, err := id.parts()
	if err != nil {
		return ""
	}
	return p[0]
}

// EndTimestamp returns the raw end timestamp part, which may be the
// literal "new".
func (id JournalID) EndTimestamp() string {
	p, err := id.parts()
	if err != nil {
		return ""
	}
	return p[1]
}

// Version returns the version part: either the literal "new" or a
// formation timestamp.
func (id JournalID) Version() string {
	p, err := id.parts()
	if err != nil {
		return ""
	}
	return p[2]
}

// BlobID returns the blob id part.
func (id JournalID) BlobID() string {
	p, err := id.parts()
	if err != nil {
		return ""
	}
	return p[3]
}

// IsNew reports whether this is a freshly-ingested single-event journal.
func (id JournalID) IsNew() bool {
	return id.Version() == timeutil.NewVersion
}

// StartDate parses the start timestamp.
func (id JournalID) StartDate() (time.Time, error) {
	return timeutil.Parse(id.StartTimestamp())
}

// EndDate parses the end timestamp, returning StartDate when the end part
// is the literal "new" (a one-event journal's end date is its start date).
func (id JournalID) EndDate() (time.Time, error) {
	if id.EndTimestamp() == timeutil.NewVersion {
		return id.StartDate()
	}
	return timeutil.Parse(id.EndTimestamp())
}

// RangePrefix returns start_ts--end_ts, the prefix shared by every version
// of this journal's logical range.
func (id JournalID) RangePrefix() string {
	p, err := id.parts()
	if err != nil {
		return string(id)
	}
	return p[0] + Delimiter + p[1]
}

// TombstoneKey returns the key that marks this journal as deleted.
func (id JournalID) TombstoneKey() string {
	return string(id) + TombstoneSuffix
}

// String implements fmt.Stringer.
func (id JournalID) String() string {
	return string(id)
}

// ValidateEventID rejects event ids that contain the delimiter, per §4.B.
func ValidateEventID(eventID string) error {
	if eventID == "" {
		return fmt.Errorf("identifiers: event id must not be empty")
	}
	if strings.Contains(eventID, Delimiter) {
		return fmt.Errorf("identifiers: %q not allowed in event_id %q", Delimiter, eventID)
	}
	return nil
}
