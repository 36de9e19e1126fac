package ipc

import "taggenius/internal/api"

// StartRequest triggers batch processor startup.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops the batch processor.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon/worker status information.
type StatusResponse struct {
	Running      bool             `json:"running"`
	PID          int              `json:"pid"`
	JobStats     map[string]int   `json:"job_stats"`
	CacheCount   int              `json:"cache_count"`
	LedgerDBPath string           `json:"ledger_db_path"`
	CacheDBPath  string           `json:"cache_db_path"`
	LockPath     string           `json:"lock_path"`
	Worker       api.WorkerStatus `json:"worker"`
}

// SubmitRequest queues a classification batch.
type SubmitRequest struct {
	Tracks []api.TrackInput `json:"tracks"`
	Detail map[string]int   `json:"detail"`
}

// SubmitResponse returns the queued job.
type SubmitResponse struct {
	Job api.Job `json:"job"`
}

// JobStatusRequest fetches a single job by id.
type JobStatusRequest struct {
	ID string `json:"id"`
}

// JobStatusResponse contains a single job.
type JobStatusResponse struct {
	Job api.Job `json:"job"`
}

// JobListRequest filters the job listing by status.
type JobListRequest struct {
	Statuses []string `json:"statuses"`
}

// JobListResponse contains the matching jobs, newest first.
type JobListResponse struct {
	Jobs []api.Job `json:"jobs"`
}

// CancelRequest asks for cooperative cancellation of a job.
type CancelRequest struct {
	ID string `json:"id"`
}

// CancelResponse reports whether the request applied to a live job.
type CancelResponse struct {
	Cancelled bool    `json:"cancelled"`
	Job       api.Job `json:"job"`
}

// OutputRequest fetches a job's ordered per-item results.
type OutputRequest struct {
	ID string `json:"id"`
}

// OutputResponse pairs a job with its per-item results.
type OutputResponse struct {
	Job   api.Job       `json:"job"`
	Items []api.JobItem `json:"items"`
}

// CacheListRequest fetches all cached blueprints.
type CacheListRequest struct{}

// CacheListResponse contains cache entries, newest first.
type CacheListResponse struct {
	Entries []api.CacheEntry `json:"entries"`
}

// CacheRemoveRequest evicts a single cached blueprint by track identity.
type CacheRemoveRequest struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// CacheRemoveResponse reports whether an entry was evicted.
type CacheRemoveResponse struct {
	Removed bool `json:"removed"`
}

// CacheClearRequest evicts every cached blueprint.
type CacheClearRequest struct{}

// CacheClearResponse reports number of evicted entries.
type CacheClearResponse struct {
	Removed int64 `json:"removed"`
}
