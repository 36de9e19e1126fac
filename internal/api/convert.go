package api

import (
	"time"

	"taggenius/internal/blueprint"
	"taggenius/internal/jobs"
	"taggenius/internal/tags"
)

// FromJob converts a ledger record to its API representation.
func FromJob(job *jobs.Job) Job {
	if job == nil {
		return Job{}
	}
	dto := Job{
		ID:              job.ID,
		Status:          string(job.Status),
		Detail:          detailToMap(job.Detail),
		TrackCount:      job.TrackCount,
		Processed:       job.Processed,
		CancelRequested: job.CancelRequested,
		ErrorMessage:    job.ErrorMessage,
	}
	if !job.CreatedAt.IsZero() {
		dto.CreatedAt = job.CreatedAt.UTC().Format(dateTimeFormat)
	}
	dto.StartedAt = formatOptionalTime(job.StartedAt)
	dto.FinishedAt = formatOptionalTime(job.FinishedAt)
	return dto
}

// FromJobs converts a slice of ledger records into API DTOs.
func FromJobs(records []*jobs.Job) []Job {
	if len(records) == 0 {
		return nil
	}
	out := make([]Job, 0, len(records))
	for _, job := range records {
		out = append(out, FromJob(job))
	}
	return out
}

// FromItem converts one job item into its API representation.
func FromItem(item jobs.Item) JobItem {
	dto := JobItem{
		Position: item.Position,
		Track: TrackInput{
			Title:     item.Descriptor.Title,
			Artist:    item.Descriptor.Artist,
			GenreHint: item.Descriptor.GenreHint,
			Year:      item.Descriptor.Year,
		},
		State:        string(item.State),
		CacheHit:     item.CacheHit,
		ErrorMessage: item.ErrorMessage,
		UpdatedAt:    formatOptionalTime(item.UpdatedAt),
	}
	if item.Rendered != nil {
		dto.Rendered = fromRendered(*item.Rendered)
	}
	return dto
}

// FromItems converts a slice of job items into API DTOs.
func FromItems(items []jobs.Item) []JobItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]JobItem, 0, len(items))
	for _, item := range items {
		out = append(out, FromItem(item))
	}
	return out
}

// FromCacheEntry converts a cache listing row into its API representation.
func FromCacheEntry(entry blueprint.Entry) CacheEntry {
	dto := CacheEntry{
		Identity: string(entry.Identity),
		Title:    entry.Title,
		Artist:   entry.Artist,
		Model:    entry.Model,
	}
	if !entry.CreatedAt.IsZero() {
		dto.CreatedAt = entry.CreatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromCacheEntries converts cache rows into API DTOs.
func FromCacheEntries(entries []blueprint.Entry) []CacheEntry {
	if len(entries) == 0 {
		return nil
	}
	out := make([]CacheEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, FromCacheEntry(entry))
	}
	return out
}

// ToDescriptors converts submission payload tracks into internal descriptors.
func ToDescriptors(inputs []TrackInput) []tags.TrackDescriptor {
	out := make([]tags.TrackDescriptor, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, tags.TrackDescriptor{
			Title:     in.Title,
			Artist:    in.Artist,
			GenreHint: in.GenreHint,
			Year:      in.Year,
		})
	}
	return out
}

// ToDetailConfig converts a wire detail map into a tags.DetailConfig. Unknown
// group names survive conversion and are rejected by DetailConfig.Validate.
func ToDetailConfig(detail map[string]int) tags.DetailConfig {
	if detail == nil {
		return nil
	}
	cfg := make(tags.DetailConfig, len(detail))
	for group, count := range detail {
		cfg[tags.Group(group)] = count
	}
	return cfg
}

// ToRenderedTagSet converts a wire tag set back into its internal form.
func ToRenderedTagSet(dto RenderedTags) tags.RenderedTagSet {
	rendered := tags.RenderedTagSet{
		PrimaryGenre: dto.PrimaryGenre,
		EnergyLevel:  dto.EnergyLevel,
	}
	if len(dto.Tags) > 0 {
		rendered.Tags = make(map[tags.Group][]string, len(dto.Tags))
		for group, list := range dto.Tags {
			rendered.Tags[tags.Group(group)] = append([]string(nil), list...)
		}
	}
	return rendered
}

func detailToMap(cfg tags.DetailConfig) map[string]int {
	out := make(map[string]int, len(cfg))
	for group, count := range cfg {
		out[string(group)] = count
	}
	return out
}

func fromRendered(rendered tags.RenderedTagSet) *RenderedTags {
	dto := &RenderedTags{
		PrimaryGenre: rendered.PrimaryGenre,
		EnergyLevel:  rendered.EnergyLevel,
	}
	if len(rendered.Tags) > 0 {
		dto.Tags = make(map[string][]string, len(rendered.Tags))
		for group, list := range rendered.Tags {
			dto.Tags[string(group)] = append([]string(nil), list...)
		}
	}
	return dto
}

func formatOptionalTime(ts *time.Time) string {
	if ts == nil || ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(dateTimeFormat)
}
