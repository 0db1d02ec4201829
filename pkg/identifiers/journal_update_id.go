package identifiers

import (
	"fmt"
	"strings"

	"github.com/cuemby/flashflood/pkg/timeutil"
)

// JournalUpdateAction distinguishes an UPDATE marker (replace event data)
// from a DELETE marker (drop the event).
type JournalUpdateAction int

const (
	// ActionUpdate records new data for an existing event.
	ActionUpdate JournalUpdateAction = iota
	// ActionDelete records that an existing event should be dropped.
	ActionDelete
)

func (a JournalUpdateAction) String() string {
	switch a {
	case ActionUpdate:
		return "UPDATE"
	case ActionDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

func parseAction(s string) (JournalUpdateAction, error) {
	switch s {
	case "UPDATE":
		return ActionUpdate, nil
	case "DELETE":
		return ActionDelete, nil
	default:
		return 0, fmt.Errorf("identifiers: unknown journal update action %q", s)
	}
}

// JournalUpdateID is the composite name of an update marker:
//
//	reverse(journal_id)--event_id--created_ts--ACTION
//
// Reversing the journal id keeps markers for the same journal adjacent in
// lexical order without letting a marker recorded later land between
// markers of a distinct journal recorded earlier (see spec §3).
type JournalUpdateID string

// MakeJournalUpdateID builds a fresh marker id stamped with the current
// time. Two markers for the same event created within the same clock tick
// resolve "last lexical key wins"; callers needing stricter ordering must
// serialize their writes, per spec §4.E's documented collision policy.
func MakeJournalUpdateID(journalID JournalID, eventID string, action JournalUpdateAction) JournalUpdateID {
	return JournalUpdateID(strings.Join([]string{
		reverseString(string(journalID)),
		eventID,
		timeutil.Now(),
		action.String(),
	}, Delimiter))
}

// JournalUpdateIDFromKey extracts a JournalUpdateID from a full store key.
func JournalUpdateIDFromKey(key string) JournalUpdateID {
	if i := strings.LastIndexByte(key, '/'); i >= 0 {
		key = key[i+1:]
	}
	return JournalUpdateID(key)
}

// PrefixForJournal returns the list prefix matching every marker recorded
// for journalID: the reversed journal id.
func PrefixForJournal(journalID JournalID) string {
	return reverseString(string(journalID))
}

// parts splits a JournalUpdateID from the right, since the leading
// reversed-journal-id segment itself contains the "--" delimiter.
func (id JournalUpdateID) parts() (reverseJournalID, eventID, createdTS string, action JournalUpdateAction, err error) {
	p := strings.Split(string(id), Delimiter)
	if len(p) < 4 {
		err = fmt.Errorf("identifiers: malformed journal update id %q", id)
		return
	}
	n := len(p)
	action, err = parseAction(p[n-1])
	if err != nil {
		return
	}
	createdTS = p[n-2]
	eventID = p[n-3]
	reverseJournalID = strings.Join(p[:n-3], Delimiter)
	return
}

// JournalID returns the journal this marker applies to.
func (id JournalUpdateID) JournalID() JournalID {
	rev, _, _, _, err := id.parts()
	if err != nil {
		return ""
	}
	return JournalID(reverseString(rev))
}

// EventID returns the event this marker applies to.
func (id JournalUpdateID) EventID() string {
	_, eventID, _, _, err := id.parts()
	if err != nil {
		return ""
	}
	return eventID
}

// CreatedTimestamp returns the marker's creation timestamp.
func (id JournalUpdateID) CreatedTimestamp() string {
	_, _, ts, _, err := id.parts()
	if err != nil {
		return ""
	}
	return ts
}

// Action returns the marker's action.
func (id JournalUpdateID) Action() JournalUpdateAction {
	_, _, _, action, err := id.parts()
	if err != nil {
		return 0
	}
	return action
}

// TombstoneKey returns the key that marks this marker as applied/consumed.
func (id JournalUpdateID) TombstoneKey() string {
	return string(id) + TombstoneSuffix
}

// String implements fmt.Stringer.
func (id JournalUpdateID) String() string {
	return string(id)
}

func reverseString(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}
