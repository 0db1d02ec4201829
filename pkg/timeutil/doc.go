/*
Package timeutil implements FlashFlood's fixed-width timestamp encoding and
the half-open date range arithmetic used throughout the journaling engine.

# Timestamp format

Timestamps are UTC, fixed-width, lexically sortable:

	YYYY-MM-DDTHHMMSS.ffffffZ   (27 bytes)

Lexical and chronological ordering coincide by construction, which is what
lets the engine compare journal and event identifiers as plain strings
instead of parsing them back into time.Time for every comparison.

# Date ranges

A DateRange is half-open: exclusive of Start, inclusive of End. An event
with date d is "in range" iff Start < d <= End. This mirrors the ranges
used by Replay, ListJournals, and the reader's ReplayEventStream.
*/
package timeutil
