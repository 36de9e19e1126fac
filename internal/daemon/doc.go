// Package daemon coordinates the long-running taggenius process: it owns the
// ledger and blueprint stores, supervises the batch processor, and enforces
// single-instance execution through a flock-based lock file.
//
// The daemon exposes the operations the IPC layer serves (submit, status,
// cancel, output, cache inspection) so transport code stays free of storage
// details.
package daemon
