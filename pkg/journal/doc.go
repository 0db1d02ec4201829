// Package journal implements the journal: an immutable manifest of
// events plus the blob holding their concatenated data, together with
// the listing algorithm that resolves tombstones and version
// collisions into the single current journal id for each time range.
package journal
