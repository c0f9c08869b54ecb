// Package audit records a local history of condlock operations.
//
// Every encrypt, decrypt and inspect is appended to a JSON Lines file so a
// user can see when a note was locked and each time its unlock was attempted:
//
//	$XDG_STATE_HOME/condlock/history.jsonl
//
// Each entry contains:
//   - Timestamp (RFC3339 with microseconds, UTC)
//   - Operation name
//   - Envelope digest and unlock condition
//   - Oracle status, round ID and degraded flag when a check ran
//
// Entries never contain note plaintext, keys or the envelope itself.
//
// # Failure Handling
//
// History logging is best-effort. If logging fails (permissions, disk full,
// etc.), the operation continues without error.
//
// # Reading Logs
//
// Use ReadEntries() to parse the log for display. Malformed entries are
// silently skipped to handle partial writes.
package audit
