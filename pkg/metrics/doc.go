/*
Package metrics provides Prometheus metrics collection and exposition for
FlashFlood. Metrics are registered at package init and exposed via an
HTTP handler for scraping.

# Metrics Catalog

flashflood_events_put_total (Counter): events accepted by Put.

flashflood_put_duration_seconds (Histogram): Put latency.

flashflood_updates_applied_total{action} (CounterVec): update/delete
markers applied, by action ("update"/"delete").

flashflood_update_duration_seconds (Histogram): time to apply pending
updates across journals.

flashflood_journals_combined_total (Counter): journals folded into a
combined journal during compaction.

flashflood_journal_duration_seconds (Histogram): compaction cycle
duration.

flashflood_replay_events_total (Counter): events yielded by event
stream replay.

flashflood_store_operation_duration_seconds{op} (HistogramVec): blob
store operation latency by op (put, put_with_metadata, get, get_range,
get_metadata, list, delete, batch_delete, presign_get, concurrent_list).

flashflood_journals_total, flashflood_notify_subscribers_total (Gauge):
sampled periodically by Collector from a running engine.

flashflood_compactor_cycles_total (Counter): compactor cycles completed.

# Usage

	// Engine operations record their own metrics; FlashFlood.Put does:
	timer := metrics.NewTimer()
	defer timer.ObservePut()
	// ... store the event ...
	metrics.EventsPutTotal.Inc()

	http.Handle("/metrics", metrics.Handler())

# Health

HealthChecker tracks named component health (e.g. "store", "compactor")
and exposes /health, /ready, and /live handlers. GetReadiness treats
"store" and "compactor" as critical: readiness fails until both have
reported in.
*/
package metrics
