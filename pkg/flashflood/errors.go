package flashflood

import "errors"

// Sentinel error kinds, matching the original implementation's exception
// hierarchy. Callers distinguish them with errors.Is.
var (
	// ErrEventExists is returned by Put when event_id is already indexed.
	ErrEventExists = errors.New("flashflood: event already exists")

	// ErrEventNotFound is returned by any operation that looks up an
	// event id not present in the key index.
	ErrEventNotFound = errors.New("flashflood: event not found")

	// ErrJournaling is returned by Journal when the accumulated backlog
	// of "new" journals does not yet meet the minimum event count or
	// size threshold requested.
	ErrJournaling = errors.New("flashflood: journaling condition not met")

	// ErrJournalUpload wraps a failure while writing a journal's blob
	// or manifest to the store.
	ErrJournalUpload = errors.New("flashflood: journal upload failed")

	// ErrGeneric names the kind for failures outside the other kinds.
	// No operation in this package returns or wraps it: such failures
	// (an invalid event id, a store, key index or marker error, a
	// malformed manifest) carry only their underlying cause.
	ErrGeneric = errors.New("flashflood: operation failed")
)

// IsEventExists reports whether err indicates Put rejected a duplicate event id.
func IsEventExists(err error) bool { return errors.Is(err, ErrEventExists) }

// IsEventNotFound reports whether err indicates a requested event id is unknown.
func IsEventNotFound(err error) bool { return errors.Is(err, ErrEventNotFound) }

// IsJournalingError reports whether err indicates Journal's thresholds were not met.
func IsJournalingError(err error) bool { return errors.Is(err, ErrJournaling) }

// IsJournalUploadError reports whether err indicates a journal upload failure.
func IsJournalUploadError(err error) bool { return errors.Is(err, ErrJournalUpload) }
