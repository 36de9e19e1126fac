package tags

// RenderedTagSet is the per-job, per-track output: the blueprint's primary
// genre and energy level unchanged, plus each descriptor list truncated to the
// configured length. Rendered sets are recomputed per job and never persisted
// on their own.
type RenderedTagSet struct {
	PrimaryGenre string             `json:"primary_genre"`
	Tags         map[Group][]string `json:"tags"`
	EnergyLevel  int                `json:"energy_level"`
}

// Render derives a trimmed view of a blueprint. Pure and deterministic: for
// each group in cfg the first N entries of the blueprint's list are kept
// (clamped to the list length), preserving the blueprint's ordering. Groups
// omitted from cfg are suppressed. The blueprint is never mutated; the result
// shares no slices with it.
func Render(bp Blueprint, cfg DetailConfig) RenderedTagSet {
	out := RenderedTagSet{
		PrimaryGenre: bp.PrimaryGenre,
		Tags:         make(map[Group][]string, len(cfg)),
		EnergyLevel:  bp.EnergyLevel,
	}
	for _, group := range allGroups {
		count, ok := cfg[group]
		if !ok || count <= 0 {
			continue
		}
		list := bp.Descriptors[group]
		if count > len(list) {
			count = len(list)
		}
		if count == 0 {
			continue
		}
		out.Tags[group] = append([]string(nil), list[:count]...)
	}
	return out
}

// FlatTags returns every rendered tag in canonical group order, primary genre
// first. Used by exporters that write a single delimited field.
func (r RenderedTagSet) FlatTags() []string {
	out := make([]string, 0, 1+len(r.Tags)*MaxGroupCount)
	if r.PrimaryGenre != "" {
		out = append(out, r.PrimaryGenre)
	}
	for _, group := range allGroups {
		out = append(out, r.Tags[group]...)
	}
	return out
}
