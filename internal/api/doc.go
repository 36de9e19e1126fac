// Package api defines wire-format types and converters for the IPC layer.
// It translates ledger and cache models into transport-friendly DTOs so the
// CLI can render results without coupling to internal types.
//
// # Key Types
//
// Job/JobItem: transport representation of a ledger entry and its per-track
// outcomes, including the rendered tag set for completed items.
//
// CacheEntry: one cached blueprint row for cache inspection commands.
//
// DaemonStatus: aggregated runtime information including job stats and the
// batch processor state.
//
// # Converters
//
// FromJob/FromItem/FromCacheEntry: internal model -> DTO, with RFC3339
// millisecond timestamps.
//
// ToDescriptors/ToDetailConfig: submission payload -> internal types; the
// ledger validates the result, conversion itself never rejects.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Internal enums (jobs.Status, jobs.ItemState,
// tags.Group) are exposed as lowercase strings.
package api
