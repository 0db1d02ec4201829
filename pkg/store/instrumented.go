package store

import (
	"context"

	"github.com/cuemby/flashflood/pkg/metrics"
)

// Instrumented wraps a Store, reporting every call's duration to
// flashflood_store_operation_duration_seconds labeled by operation name.
// flashflood.New wraps every backend in one of these so operators get
// per-op store latency regardless of which backend is configured.
type Instrumented struct {
	inner Store
}

// Instrument wraps s so its calls report timing through pkg/metrics.
func Instrument(s Store) *Instrumented {
	return &Instrumented{inner: s}
}

func (s *Instrumented) Put(ctx context.Context, key string, data []byte) error {
	timer := metrics.NewTimer()
	defer timer.ObserveStoreOp("put")
	return s.inner.Put(ctx, key, data)
}

func (s *Instrumented) PutWithMetadata(ctx context.Context, key string, data []byte, metadata map[string]string) error {
	timer := metrics.NewTimer()
	defer timer.ObserveStoreOp("put_with_metadata")
	return s.inner.PutWithMetadata(ctx, key, data, metadata)
}

func (s *Instrumented) Get(ctx context.Context, key string) ([]byte, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveStoreOp("get")
	return s.inner.Get(ctx, key)
}

func (s *Instrumented) GetRange(ctx context.Context, key string, start, end int64) ([]byte, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveStoreOp("get_range")
	return s.inner.GetRange(ctx, key, start, end)
}

func (s *Instrumented) GetMetadata(ctx context.Context, key string) (map[string]string, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveStoreOp("get_metadata")
	return s.inner.GetMetadata(ctx, key)
}

func (s *Instrumented) List(ctx context.Context, prefix string) ([]string, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveStoreOp("list")
	return s.inner.List(ctx, prefix)
}

func (s *Instrumented) Delete(ctx context.Context, key string) error {
	timer := metrics.NewTimer()
	defer timer.ObserveStoreOp("delete")
	return s.inner.Delete(ctx, key)
}

func (s *Instrumented) BatchDelete(ctx context.Context, keys []string) error {
	timer := metrics.NewTimer()
	defer timer.ObserveStoreOp("batch_delete")
	return s.inner.BatchDelete(ctx, keys)
}

func (s *Instrumented) PresignGet(ctx context.Context, key string) (string, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveStoreOp("presign_get")
	return s.inner.PresignGet(ctx, key)
}

func (s *Instrumented) ConcurrentList(ctx context.Context, prefixes []string) ([]string, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveStoreOp("concurrent_list")
	return s.inner.ConcurrentList(ctx, prefixes)
}
