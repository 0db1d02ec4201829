// Package reader replays an event stream manifest against the blob it
// describes without going through a FlashFlood engine: given the
// manifest and stream URL a ListEventStreams call returned, it issues a
// single byte-range HTTP GET covering the events of interest and decodes
// them one at a time from the response body.
//
// This lets a consumer that only has a manifest and a presigned URL
// (fetched independently of the engine that produced it, e.g. from a
// different process or a cached index) replay events without store
// credentials.
package reader
