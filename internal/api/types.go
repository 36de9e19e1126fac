package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// TrackInput describes one track in a submission payload.
type TrackInput struct {
	Title     string `json:"title"`
	Artist    string `json:"artist,omitempty"`
	GenreHint string `json:"genreHint,omitempty"`
	Year      string `json:"year,omitempty"`
}

// RenderedTags is the transport form of one track's output tag set.
type RenderedTags struct {
	PrimaryGenre string              `json:"primaryGenre"`
	Tags         map[string][]string `json:"tags,omitempty"`
	EnergyLevel  int                 `json:"energyLevel,omitempty"`
}

// Job describes a ledger entry in a transport-friendly format.
type Job struct {
	ID              string         `json:"id"`
	Status          string         `json:"status"`
	Detail          map[string]int `json:"detail"`
	TrackCount      int            `json:"trackCount"`
	Processed       int            `json:"processed"`
	CancelRequested bool           `json:"cancelRequested"`
	ErrorMessage    string         `json:"errorMessage,omitempty"`
	CreatedAt       string         `json:"createdAt,omitempty"`
	StartedAt       string         `json:"startedAt,omitempty"`
	FinishedAt      string         `json:"finishedAt,omitempty"`
}

// JobItem describes one track's outcome within a job.
type JobItem struct {
	Position     int           `json:"position"`
	Track        TrackInput    `json:"track"`
	State        string        `json:"state"`
	CacheHit     bool          `json:"cacheHit"`
	Rendered     *RenderedTags `json:"rendered,omitempty"`
	ErrorMessage string        `json:"errorMessage,omitempty"`
	UpdatedAt    string        `json:"updatedAt,omitempty"`
}

// CacheEntry describes one cached blueprint row.
type CacheEntry struct {
	Identity  string `json:"identity"`
	Title     string `json:"title"`
	Artist    string `json:"artist,omitempty"`
	Model     string `json:"model,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// WorkerStatus summarizes batch processor state.
type WorkerStatus struct {
	Running   bool   `json:"running"`
	LastError string `json:"lastError,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	LedgerDBPath string         `json:"ledgerDbPath"`
	CacheDBPath  string         `json:"cacheDbPath"`
	LockFilePath string         `json:"lockFilePath"`
	JobStats     map[string]int `json:"jobStats"`
	CacheCount   int            `json:"cacheCount"`
	Worker       WorkerStatus   `json:"worker"`
}

// JobListResponse wraps a collection of jobs for API responses.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// JobResponse wraps a single job.
type JobResponse struct {
	Job Job `json:"job"`
}

// JobOutputResponse pairs a job with its ordered per-item results.
type JobOutputResponse struct {
	Job   Job       `json:"job"`
	Items []JobItem `json:"items"`
}
