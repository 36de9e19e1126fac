// Package worker runs the batch processor: a manager that polls the job
// ledger for queued jobs and executes them one at a time. Per item the loop
// checks for cancellation, resolves the track's blueprint through the cache
// (classifying on a miss), renders the job's detail configuration, and
// records the outcome. Per-item failures are recorded and the loop continues;
// only validation-class failures abort a whole job. Ledger outages abandon
// the job mid-run and heartbeat reclaim requeues it later.
package worker
