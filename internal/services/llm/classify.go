package llm

import (
	"context"
	"encoding/json"
	"time"

	"taggenius/internal/services"
	"taggenius/internal/tags"
)

// Classification is the parsed result of one classifier invocation. For
// ShapePrimaryOnly requests only PrimaryGenre is populated.
type Classification struct {
	PrimaryGenre string
	Descriptors  map[tags.Group][]string
	EnergyLevel  int
	Model        string
	Raw          string
}

// Blueprint converts a full-shape classification into a cacheable blueprint.
func (c Classification) Blueprint(now time.Time) tags.Blueprint {
	descriptors := make(map[tags.Group][]string, len(c.Descriptors))
	for group, list := range c.Descriptors {
		descriptors[group] = append([]string(nil), list...)
	}
	return tags.Blueprint{
		PrimaryGenre:  c.PrimaryGenre,
		Descriptors:   descriptors,
		EnergyLevel:   tags.ClampEnergy(c.EnergyLevel),
		SchemaVersion: tags.SchemaVersion,
		Model:         c.Model,
		CreatedAt:     now.UTC(),
	}
}

// Classify runs one classification request for the supplied descriptor.
// Transient transport failures are retried inside the client; after retry
// exhaustion the error is tagged services.ErrTransient. An unparseable
// response is tagged services.ErrPermanent and never retried.
func (c *Client) Classify(ctx context.Context, desc tags.TrackDescriptor, shape RequestShape) (Classification, error) {
	var empty Classification
	if !desc.Valid() {
		return empty, services.Wrap(services.ErrValidation, "llm", "classify", "track title required", nil)
	}

	var enrichment json.RawMessage
	if c.enricher != nil {
		// Enrichment is best effort; the enricher logs its own failures.
		if match, err := c.enricher.Lookup(ctx, desc.Title, desc.Artist); err == nil {
			enrichment = match
		}
	}

	content, err := c.completeJSON(ctx, systemPrompt, buildUserPrompt(desc, shape, enrichment), "llm classify")
	if err != nil {
		return empty, err
	}

	var payload classificationPayload
	if err := DecodeJSON(content, &payload); err != nil {
		return empty, services.Wrap(services.ErrPermanent, "llm", "classify", "parse payload", err)
	}

	primary := normalizeTagList(payload.PrimaryGenre, 1)
	if len(primary) == 0 {
		return empty, services.Wrap(services.ErrPermanent, "llm", "classify", "response missing primary genre", nil)
	}

	result := Classification{
		PrimaryGenre: primary[0],
		Model:        c.cfg.Model,
		Raw:          content,
	}
	if shape == ShapePrimaryOnly {
		return result, nil
	}

	result.Descriptors = make(map[tags.Group][]string, len(tags.Groups()))
	for _, group := range tags.Groups() {
		result.Descriptors[group] = normalizeTagList(payload.groupList(group), tags.MaxGroupCount)
	}
	result.EnergyLevel = tags.ClampEnergy(payload.EnergyLevel)
	return result, nil
}
