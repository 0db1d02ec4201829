// Package flashflood implements the FlashFlood engine: the operations
// that stitch the key index, journals, and journal-update markers
// together into an append-mostly event store layered on a blob store.
//
// A FlashFlood is constructed over a store.Store and a root prefix; it
// owns no goroutines of its own. Background compaction is driven
// externally by pkg/compactor calling Journal and Update on a ticker.
package flashflood
