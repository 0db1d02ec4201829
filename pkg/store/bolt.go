package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	bolt "go.etcd.io/bbolt"
)

var (
	objectsBucket  = []byte("objects")
	metadataBucket = []byte("metadata")
)

// Bolt is a store.Store backed by a single BoltDB file, for single-node
// or local deployments that don't need a real object store. Adapted
// from the teacher's BoltStore (pkg/storage/boltdb.go): one file, one
// bucket per concern, JSON-marshaled values, db.Update/db.View for
// writes/reads.
type Bolt struct {
	db   *bolt.DB
	pool *Pool
}

// NewBolt opens (creating if necessary) a BoltDB file at path.
func NewBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open bolt db %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(objectsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(metadataBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init bolt buckets: %w", err)
	}
	return &Bolt{db: db, pool: NewPool(DefaultPoolSize)}, nil
}

// Close releases the underlying BoltDB file.
func (b *Bolt) Close() error {
	return b.db.Close()
}

func (b *Bolt) Put(ctx context.Context, key string, data []byte) error {
	return b.PutWithMetadata(ctx, key, data, nil)
}

func (b *Bolt) PutWithMetadata(ctx context.Context, key string, data []byte, metadata map[string]string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(objectsBucket).Put([]byte(key), data); err != nil {
			return err
		}
		mb := tx.Bucket(metadataBucket)
		if metadata == nil {
			return mb.Delete([]byte(key))
		}
		encoded, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("store: encode metadata for %s: %w", key, err)
		}
		return mb.Put([]byte(key), encoded)
	})
}

func (b *Bolt) Get(ctx context.Context, key string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(objectsBucket).Get([]byte(key))
		if v == nil {
			return fmt.Errorf("store: get %q: %w", key, ErrNotFound)
		}
		out = append([]byte(nil), v...)
		return nil
	})
	return out, err
}

func (b *Bolt) GetRange(ctx context.Context, key string, start, end int64) ([]byte, error) {
	data, err := b.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if start < 0 || end >= int64(len(data)) || start > end {
		return nil, fmt.Errorf("store: get range %q [%d-%d]: out of bounds (len=%d)", key, start, end, len(data))
	}
	return data[start : end+1], nil
}

func (b *Bolt) GetMetadata(ctx context.Context, key string) (map[string]string, error) {
	var out map[string]string
	err := b.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(objectsBucket).Get([]byte(key)) == nil {
			return fmt.Errorf("store: get metadata %q: %w", key, ErrNotFound)
		}
		v := tx.Bucket(metadataBucket).Get([]byte(key))
		if v == nil {
			out = map[string]string{}
			return nil
		}
		return json.Unmarshal(v, &out)
	})
	return out, err
}

func (b *Bolt) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := b.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(objectsBucket).Cursor()
		pfx := []byte(prefix)
		for k, _ := c.Seek(pfx); k != nil && bytes.HasPrefix(k, pfx); k, _ = c.Next() {
			keys = append(keys, string(k))
		}
		return nil
	})
	return keys, err
}

func (b *Bolt) Delete(ctx context.Context, key string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(objectsBucket).Delete([]byte(key)); err != nil {
			return err
		}
		return tx.Bucket(metadataBucket).Delete([]byte(key))
	})
}

func (b *Bolt) BatchDelete(ctx context.Context, keys []string) error {
	chunks := chunkKeys(keys)
	tasks := make([]func() error, 0, len(chunks))
	for _, chunk := range chunks {
		chunk := chunk
		tasks = append(tasks, func() error {
			return b.db.Update(func(tx *bolt.Tx) error {
				ob, mb := tx.Bucket(objectsBucket), tx.Bucket(metadataBucket)
				for _, k := range chunk {
					if err := ob.Delete([]byte(k)); err != nil {
						return err
					}
					if err := mb.Delete([]byte(k)); err != nil {
						return err
					}
				}
				return nil
			})
		})
	}
	return b.pool.Run(tasks)
}

// PresignGet returns a local pseudo-URL identifying key within this
// database file. It is not fetchable over a network; Bolt-backed
// deployments are expected to serve GetRange/Get directly in-process
// rather than through pkg/reader's HTTP replay path.
func (b *Bolt) PresignGet(ctx context.Context, key string) (string, error) {
	if _, err := b.Get(ctx, key); err != nil {
		return "", err
	}
	return fmt.Sprintf("bolt://%s", key), nil
}

func (b *Bolt) ConcurrentList(ctx context.Context, prefixes []string) ([]string, error) {
	var all []string
	var mu sync.Mutex
	tasks := make([]func() error, 0, len(prefixes))
	for _, pfx := range prefixes {
		pfx := pfx
		tasks = append(tasks, func() error {
			keys, err := b.List(ctx, pfx)
			if err != nil {
				return err
			}
			mu.Lock()
			all = append(all, keys...)
			mu.Unlock()
			return nil
		})
	}
	if err := b.pool.Run(tasks); err != nil {
		return nil, err
	}
	return all, nil
}
