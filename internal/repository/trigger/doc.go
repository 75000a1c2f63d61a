// Package trigger provides storage for the trigger ledger: an in-memory
// implementation serving all queries and a file-backed variant that persists
// the ledger as JSON so recorded events survive restarts.
package trigger
