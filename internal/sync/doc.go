// Package sync implements section-level synchronization between note
// platforms: change detection against the hash ledger, directive planning
// from the note-type schema, and directive execution against the vaults.
package sync
