package testsupport

import (
	"strings"

	"taggenius/internal/tags"
)

func trackFromLabel(label string) tags.TrackDescriptor {
	if artist, title, ok := strings.Cut(label, " - "); ok {
		return tags.TrackDescriptor{Title: strings.TrimSpace(title), Artist: strings.TrimSpace(artist)}
	}
	return tags.TrackDescriptor{Title: strings.TrimSpace(label)}
}

// Blueprint returns a deterministic maximal-detail blueprint for tests.
func Blueprint(primary string) tags.Blueprint {
	return tags.Blueprint{
		PrimaryGenre: primary,
		Descriptors: map[tags.Group][]string{
			tags.GroupSubGenre:   {"deep house", "tech house", "melodic house"},
			tags.GroupEnergyVibe: {"uplifting", "driving", "hypnotic"},
			tags.GroupSituation:  {"club", "late night", "festival"},
			tags.GroupComponents: {"synth lead", "four on the floor", "female vocal"},
			tags.GroupTimePeriod: {"2010s"},
		},
		EnergyLevel:   7,
		SchemaVersion: tags.SchemaVersion,
		Model:         "test-model",
	}
}
