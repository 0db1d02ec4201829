package identifiers

import "testing"

func TestJournalUpdateIDRoundTrip(t *testing.T) {
	journalID := MakeJournalID("2024-01-01T000000.000000Z", "new", "new", "blob-1")
	id := MakeJournalUpdateID(journalID, "event-1", ActionUpdate)

	if got := id.JournalID(); got != journalID {
		t.Errorf("JournalID() = %q, want %q", got, journalID)
	}
	if got := id.EventID(); got != "event-1" {
		t.Errorf("EventID() = %q, want event-1", got)
	}
	if got := id.Action(); got != ActionUpdate {
		t.Errorf("Action() = %v, want ActionUpdate", got)
	}
}

func TestJournalUpdateIDEventIDWithDelimiterIsRejectedUpstream(t *testing.T) {
	// The event_id delimiter rule is enforced by the engine, not by the id
	// encoding itself -- exercised here only to document the expectation
	// that callers must validate before calling MakeJournalUpdateID.
	if err := ValidateEventID("a--b"); err == nil {
		t.Fatal("expected ValidateEventID to reject event ids containing the delimiter")
	}
}

func TestPrefixForJournalMatchesReversedID(t *testing.T) {
	journalID := MakeJournalID("2024-01-01T000000.000000Z", "new", "new", "blob-1")
	got := PrefixForJournal(journalID)
	want := reverseString(string(journalID))
	if got != want {
		t.Errorf("PrefixForJournal = %q, want %q", got, want)
	}
}

func TestActionStringRoundTrip(t *testing.T) {
	for _, a := range []JournalUpdateAction{ActionUpdate, ActionDelete} {
		parsed, err := parseAction(a.String())
		if err != nil {
			t.Fatalf("parseAction(%q): %v", a.String(), err)
		}
		if parsed != a {
			t.Errorf("round trip of %v produced %v", a, parsed)
		}
	}
}
