// Package keyindex implements the event-id-to-journal-id lookup index:
// a simple key/value index built as a sequence of immutable store
// objects rather than read-modify-write updates, so it never races
// against a store's eventual consistency guarantees.
package keyindex
