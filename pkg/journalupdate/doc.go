// Package journalupdate implements UPDATE and DELETE markers: small
// store objects recording a pending change to one event of one
// journal, applied later by the engine's Update operation.
package journalupdate
