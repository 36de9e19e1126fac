package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"taggenius/internal/tags"
)

// RequestShape selects which descriptor groups a classification request asks
// for. Both shapes run the same prompt/call/parse pipeline; the shape only
// changes the group list embedded in the prompt.
type RequestShape int

const (
	// ShapeFull requests every descriptor group at maximum detail plus the
	// energy level. Used to build blueprints.
	ShapeFull RequestShape = iota
	// ShapePrimaryOnly requests just the primary genre. Used by callers that
	// need a fast categorical decision without paying for a full blueprint.
	ShapePrimaryOnly
)

func (s RequestShape) String() string {
	switch s {
	case ShapeFull:
		return "full"
	case ShapePrimaryOnly:
		return "primary_only"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

const systemPrompt = `You are a master music curator, "Tag Genius". Your mission is to provide concise, structured, and expertly curated tags for a DJ's library. Each tag must be concise and in lowercase. Respond with a JSON object only, no additional text.`

// requestedGroups returns the descriptor groups a shape asks for, in the
// canonical order they appear in the prompt.
func requestedGroups(shape RequestShape) []tags.Group {
	if shape == ShapePrimaryOnly {
		return nil
	}
	return tags.Groups()
}

func buildUserPrompt(desc tags.TrackDescriptor, shape RequestShape, enrichment json.RawMessage) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Here is the track:\n\nTrack: %q\n", desc.Label())
	if hint := strings.TrimSpace(desc.GenreHint); hint != "" {
		fmt.Fprintf(&sb, "Existing Genre: %s\n", hint)
	}
	if year := strings.TrimSpace(desc.Year); year != "" {
		fmt.Fprintf(&sb, "Year: %s\n", year)
	}
	if len(enrichment) > 0 {
		fmt.Fprintf(&sb, "Lexicon Data: %s\n", enrichment)
	}
	sb.WriteString("\nProvide tags as a JSON object with these keys and tag counts:\n")
	sb.WriteString("- primary_genre: 1 tag (the single best genre)\n")
	for _, group := range requestedGroups(shape) {
		fmt.Fprintf(&sb, "- %s: %d tag(s)\n", group, tags.MaxGroupCount)
	}
	if shape == ShapeFull {
		sb.WriteString("- energy_level: one integer from 1 (ambient) to 10 (peak intensity)\n")
	}
	sb.WriteString("Each tag key must map to a list of strings ordered from most to least fitting.")
	return sb.String()
}

// classificationPayload mirrors the JSON object the model is instructed to
// return. primary_genre arrives as a single-element list.
type classificationPayload struct {
	PrimaryGenre []string `json:"primary_genre"`
	SubGenre     []string `json:"sub_genre"`
	EnergyVibe   []string `json:"energy_vibe"`
	Situation    []string `json:"situation_environment"`
	Components   []string `json:"components"`
	TimePeriod   []string `json:"time_period"`
	EnergyLevel  int      `json:"energy_level"`
}

func (p classificationPayload) groupList(group tags.Group) []string {
	switch group {
	case tags.GroupSubGenre:
		return p.SubGenre
	case tags.GroupEnergyVibe:
		return p.EnergyVibe
	case tags.GroupSituation:
		return p.Situation
	case tags.GroupComponents:
		return p.Components
	case tags.GroupTimePeriod:
		return p.TimePeriod
	default:
		return nil
	}
}

func normalizeTagList(values []string, limit int) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		tag := strings.ToLower(strings.TrimSpace(value))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
