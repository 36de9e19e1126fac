package jobs

import (
	"strings"
	"time"

	"taggenius/internal/tags"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

var allStatuses = []Status{
	StatusQueued,
	StatusRunning,
	StatusCompleted,
	StatusFailed,
	StatusCancelled,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status is final. Terminal jobs never
// transition again.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Job is one batch submission persisted in SQLite.
type Job struct {
	ID              string
	Status          Status
	Detail          tags.DetailConfig
	TrackCount      int
	Processed       int
	CancelRequested bool
	ErrorMessage    string
	CreatedAt       time.Time
	StartedAt       *time.Time
	FinishedAt      *time.Time
	LastHeartbeat   *time.Time
}

// ItemState tracks one track's outcome within a job.
type ItemState string

const (
	ItemPending   ItemState = "pending"
	ItemCompleted ItemState = "completed"
	ItemFailed    ItemState = "failed"
)

// Item is one track within a job, in submission order. Rendered holds the
// output tag set once the item completes; failed items carry an error
// message instead.
type Item struct {
	JobID        string
	Position     int
	Descriptor   tags.TrackDescriptor
	State        ItemState
	CacheHit     bool
	Rendered     *tags.RenderedTagSet
	ErrorMessage string
	UpdatedAt    *time.Time
}

// Done reports whether the item has a terminal outcome.
func (i Item) Done() bool {
	return i.State == ItemCompleted || i.State == ItemFailed
}
