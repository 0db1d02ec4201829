package identifiers

import "testing"

func TestMakeJournalIDRoundTrip(t *testing.T) {
	id := MakeJournalID("2024-01-01T000000.000000Z", "2024-01-01T000001.000000Z", "new", "blob-1")
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"start", id.StartTimestamp(), "2024-01-01T000000.000000Z"},
		{"end", id.EndTimestamp(), "2024-01-01T000001.000000Z"},
		{"version", id.Version(), "new"},
		{"blob", id.BlobID(), "blob-1"},
		{"range_prefix", id.RangePrefix(), "2024-01-01T000000.000000Z--2024-01-01T000001.000000Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestJournalIDEndDateFallsBackToStartForNew(t *testing.T) {
	id := MakeJournalID("2024-01-01T000000.000000Z", "new", "new", "blob-1")
	start, err := id.StartDate()
	if err != nil {
		t.Fatalf("StartDate: %v", err)
	}
	end, err := id.EndDate()
	if err != nil {
		t.Fatalf("EndDate: %v", err)
	}
	if !start.Equal(end) {
		t.Errorf("expected end date to fall back to start date for a new journal, got start=%v end=%v", start, end)
	}
}

func TestJournalIDFromKeyStripsPrefix(t *testing.T) {
	id := JournalIDFromKey("root/journals/2024-01-01T000000.000000Z--new--new--blob-1")
	if id.BlobID() != "blob-1" {
		t.Errorf("got blob id %q, want blob-1", id.BlobID())
	}
}

func TestValidateEventID(t *testing.T) {
	tests := []struct {
		name    string
		eventID string
		wantErr bool
	}{
		{"ok", "event-123", false},
		{"empty", "", true},
		{"has delimiter", "event--123", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEventID(tt.eventID)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEventID(%q) error = %v, wantErr %v", tt.eventID, err, tt.wantErr)
			}
		})
	}
}
