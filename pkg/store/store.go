package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get, GetRange, and GetMetadata when the
// requested key does not exist. Callers distinguish a missing key from a
// failed store with errors.Is(err, store.ErrNotFound).
var ErrNotFound = errors.New("store: key not found")

// Store is the blob store every FlashFlood component reads and writes
// through. Implementations must be safe for concurrent use by multiple
// goroutines within a single process; cross-process write safety for a
// given key is the caller's responsibility (see pkg/keyindex and
// pkg/journal, which are written assuming a single writer).
type Store interface {
	// Put writes data to key, replacing any existing object.
	Put(ctx context.Context, key string, data []byte) error

	// PutWithMetadata writes data to key along with a small set of
	// string metadata, replacing any existing object and its metadata.
	PutWithMetadata(ctx context.Context, key string, data []byte, metadata map[string]string) error

	// Get returns the full contents of key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// GetRange returns the inclusive byte range [start, end] of key's
	// contents, or ErrNotFound.
	GetRange(ctx context.Context, key string, start, end int64) ([]byte, error)

	// GetMetadata returns the metadata attached to key by PutWithMetadata,
	// or ErrNotFound.
	GetMetadata(ctx context.Context, key string) (map[string]string, error)

	// List returns every key with the given prefix, in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes key. Deleting a key that does not exist is not an
	// error.
	Delete(ctx context.Context, key string) error

	// BatchDelete removes every key in keys, internally chunking the
	// request so no single underlying call exceeds BatchDeleteMaxKeys.
	BatchDelete(ctx context.Context, keys []string) error

	// PresignGet returns a URL that can fetch key's contents without
	// further authorization, valid for an implementation-defined period.
	PresignGet(ctx context.Context, key string) (string, error)

	// ConcurrentList lists every prefix in prefixes using the store's
	// worker pool, returning the union of keys found. Lexicographical
	// ordering across prefixes is not preserved.
	ConcurrentList(ctx context.Context, prefixes []string) ([]string, error)
}

// BatchDeleteMaxKeys is the largest number of keys a single underlying
// batch-delete call may carry, mirroring the object store's own limit
// (S3's DeleteObjects caps out at 1000 keys per request).
const BatchDeleteMaxKeys = 1000

// chunkKeys splits keys into slices of at most BatchDeleteMaxKeys.
func chunkKeys(keys []string) [][]string {
	if len(keys) == 0 {
		return nil
	}
	var chunks [][]string
	for len(keys) > 0 {
		n := BatchDeleteMaxKeys
		if n > len(keys) {
			n = len(keys)
		}
		chunks = append(chunks, keys[:n])
		keys = keys[n:]
	}
	return chunks
}
