// Package config loads a YAML configuration file describing which store
// backend to use, the journaling and compaction thresholds, and the
// worker pool size, and builds the wired-up collaborators (store.Store,
// flashflood.FlashFlood, compactor.Compactor) from it.
package config
