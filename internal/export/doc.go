// Package export implements the batch export engine and its supporting
// policies.
//
// A run moves through Idle, Scanning, Processing, and one terminal state
// (Completed, Cancelled, or Failed). Items are processed in catalog order in
// fixed-size batches; each item gets an independent staleness decision, and a
// failing item is counted and logged without aborting the run. The memory
// governor is consulted on an item cadence and forced at every batch
// boundary, which is also where the cooperative cancellation flag is checked.
//
// Exported files carry an embedded JSON metadata chunk (sequence, export
// options, export date, source fingerprint) that the staleness check reads
// back without a full image decode. Run tallies are persisted to a small
// SQLite ledger for the history command.
package export
