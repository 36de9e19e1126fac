package tags

import "time"

// Group identifies one secondary descriptor list within a blueprint.
type Group string

const (
	GroupSubGenre   Group = "sub_genre"
	GroupEnergyVibe Group = "energy_vibe"
	GroupSituation  Group = "situation_environment"
	GroupComponents Group = "components"
	GroupTimePeriod Group = "time_period"
)

// MaxGroupCount is the number of tags requested per group when a blueprint is
// generated. Renders can only trim below this, never expand past it.
const MaxGroupCount = 3

// SchemaVersion is bumped when the blueprint shape changes; cached blueprints
// with an older version are regenerated wholesale rather than migrated.
const SchemaVersion = 1

var allGroups = []Group{
	GroupSubGenre,
	GroupEnergyVibe,
	GroupSituation,
	GroupComponents,
	GroupTimePeriod,
}

// Groups returns the descriptor groups in canonical order.
func Groups() []Group {
	cp := make([]Group, len(allGroups))
	copy(cp, allGroups)
	return cp
}

// KnownGroup reports whether value names a descriptor group.
func KnownGroup(value Group) bool {
	for _, group := range allGroups {
		if group == value {
			return true
		}
	}
	return false
}

// Blueprint is the maximal-detail classification result cached per identity.
// List ordering reflects the classifier's salience ranking and is preserved
// verbatim; once stored a blueprint is only ever replaced, never edited.
type Blueprint struct {
	PrimaryGenre  string             `json:"primary_genre"`
	Descriptors   map[Group][]string `json:"descriptors"`
	EnergyLevel   int                `json:"energy_level"`
	SchemaVersion int                `json:"schema_version"`
	Model         string             `json:"model,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

// Group returns the descriptor list for a group, or nil when absent.
func (b Blueprint) Group(group Group) []string {
	return b.Descriptors[group]
}

// Clone returns a deep copy so callers can hold blueprints without aliasing
// the cache's lists.
func (b Blueprint) Clone() Blueprint {
	cp := b
	if b.Descriptors != nil {
		cp.Descriptors = make(map[Group][]string, len(b.Descriptors))
		for group, list := range b.Descriptors {
			cp.Descriptors[group] = append([]string(nil), list...)
		}
	}
	return cp
}

// ClampEnergy forces a classifier-supplied energy level onto the 1..10 scale.
func ClampEnergy(level int) int {
	if level < 1 {
		return 1
	}
	if level > 10 {
		return 10
	}
	return level
}
