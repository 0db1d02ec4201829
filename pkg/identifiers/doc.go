/*
Package identifiers parses and formats the composite keys FlashFlood uses
to name journals and journal-update markers on the blob store. It does no
I/O: every type here is a pure string encoding/decoding layer over the key
formats defined by spec §4.B and §6.
*/
package identifiers
