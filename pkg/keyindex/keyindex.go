package keyindex

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cuemby/flashflood/pkg/store"
)

// Delimiter separates a lookup key from its revision suffix.
const Delimiter = "--"

const targetMetadataKey = "target"

// KeyIndex is an append-only lookup table mapping a lookup string (an
// event id) to a target string (a journal id). A put never overwrites
// an existing object: it appends a new, higher-revisioned object and
// then deletes every older revision, avoiding the read-modify-write
// race a direct overwrite would have against a store with only
// eventual consistency.
//
// KeyIndex does not support concurrent writers for the same lookup key:
// two writers racing to append the next revision can both compute the
// same revision number and collide, exactly as in the original
// implementation this is adapted from.
type KeyIndex struct {
	store  store.Store
	prefix string
}

// New builds a KeyIndex storing its entries under prefix.
func New(s store.Store, prefix string) *KeyIndex {
	return &KeyIndex{store: s, prefix: prefix}
}

// Put records target for lookup, then removes every prior revision
// recorded for lookup.
func (k *KeyIndex) Put(ctx context.Context, lookup, target string) error {
	keysToDelete, err := k.put(ctx, lookup, target)
	if err != nil {
		return err
	}
	return k.store.BatchDelete(ctx, keysToDelete)
}

// PutBatch records every lookup/target pair in lookupMap, then removes
// every prior revision across the whole batch in one deletion pass.
func (k *KeyIndex) PutBatch(ctx context.Context, lookupMap map[string]string) error {
	var keysToDelete []string
	for lookup, target := range lookupMap {
		keys, err := k.put(ctx, lookup, target)
		if err != nil {
			return err
		}
		keysToDelete = append(keysToDelete, keys...)
	}
	return k.store.BatchDelete(ctx, keysToDelete)
}

// put writes the next revision for lookup and returns the keys of every
// revision that preceded it (the caller is responsible for deleting
// them).
func (k *KeyIndex) put(ctx context.Context, lookup, target string) ([]string, error) {
	keys, err := k.lookupKeys(ctx, lookup)
	if err != nil {
		return nil, err
	}
	revisionNumber := 1
	if len(keys) > 0 {
		last, err := revisionNumberForKey(keys[len(keys)-1])
		if err != nil {
			return nil, err
		}
		revisionNumber = last + 1
	}
	key := fmt.Sprintf("%s/%s%s%010d", k.prefix, lookup, Delimiter, revisionNumber)
	if err := k.store.PutWithMetadata(ctx, key, nil, map[string]string{targetMetadataKey: target}); err != nil {
		return nil, fmt.Errorf("keyindex: put %s: %w", lookup, err)
	}
	return keys, nil
}

// Get returns the target most recently recorded for lookup. ok is
// false if lookup has no entry.
func (k *KeyIndex) Get(ctx context.Context, lookup string) (target string, ok bool, err error) {
	keys, err := k.lookupKeys(ctx, lookup)
	if err != nil {
		return "", false, err
	}
	if len(keys) == 0 {
		return "", false, nil
	}
	md, err := k.store.GetMetadata(ctx, keys[len(keys)-1])
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("keyindex: get %s: %w", lookup, err)
	}
	return md[targetMetadataKey], true, nil
}

// Delete removes every revision recorded for lookup.
func (k *KeyIndex) Delete(ctx context.Context, lookup string) error {
	keys, err := k.lookupKeys(ctx, lookup)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := k.store.BatchDelete(ctx, keys); err != nil {
		return fmt.Errorf("keyindex: delete %s: %w", lookup, err)
	}
	return nil
}

func (k *KeyIndex) lookupKeys(ctx context.Context, lookup string) ([]string, error) {
	keys, err := k.store.List(ctx, fmt.Sprintf("%s/%s", k.prefix, lookup))
	if err != nil {
		return nil, fmt.Errorf("keyindex: list %s: %w", lookup, err)
	}
	return keys, nil
}

func revisionNumberForKey(key string) (int, error) {
	i := strings.LastIndex(key, Delimiter)
	if i < 0 {
		return 0, fmt.Errorf("keyindex: malformed key %q", key)
	}
	n, err := strconv.Atoi(key[i+len(Delimiter):])
	if err != nil {
		return 0, fmt.Errorf("keyindex: malformed revision in key %q: %w", key, err)
	}
	return n, nil
}
