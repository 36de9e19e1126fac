// Package jobs is the durable job ledger: one record per batch submission,
// plus the ordered per-track items that carry each job's output. The ledger
// owns the queued/running/completed/failed/cancelled lifecycle, the
// cancellation flag, progress counters, and heartbeat-based reclaim of
// abandoned jobs. A job is mutated only by the worker executing it; any
// number of status readers may poll concurrently.
package jobs
