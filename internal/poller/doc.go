// Package poller reads device measurements on a fixed interval and hands the
// resulting snapshots to sinks.
//
// A cycle measures every configured kind independently; a failing register
// blanks only its own entry. Cycles never overlap and failed reads are not
// retried before the next tick. Debouncing, if wanted, comes from the device
// client's read cache.
package poller
