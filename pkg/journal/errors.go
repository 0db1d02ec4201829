package journal

import "errors"

// errEventNotFound is wrapped into GetEvent's error when the requested
// event id is not present in the journal's manifest.
var errEventNotFound = errors.New("event not found in journal")

// errUploadEmpty is wrapped into Upload's error when called on a
// journal with no events.
var errUploadEmpty = errors.New("cannot upload journal with no events")

// IsEventNotFound reports whether err indicates a requested event was
// absent from the journal consulted.
func IsEventNotFound(err error) bool {
	return errors.Is(err, errEventNotFound)
}

// IsUploadEmpty reports whether err indicates an upload attempt was
// rejected because the journal had no events.
func IsUploadEmpty(err error) bool {
	return errors.Is(err, errUploadEmpty)
}
