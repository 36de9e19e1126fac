package library

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"

	"taggenius/internal/tags"
)

// Track is one TRACK element of a Rekordbox collection export. Only the
// attributes this tool reads or writes are modeled; anything else in the
// source file is not carried through an export.
type Track struct {
	Name       string `xml:"Name,attr"`
	Artist     string `xml:"Artist,attr,omitempty"`
	Genre      string `xml:"Genre,attr,omitempty"`
	Year       string `xml:"Year,attr,omitempty"`
	AverageBpm string `xml:"AverageBpm,attr,omitempty"`
	Tonality   string `xml:"Tonality,attr,omitempty"`
	Label      string `xml:"Label,attr,omitempty"`
	Grouping   string `xml:"Grouping,attr,omitempty"`
	Comments   string `xml:"Comments,attr,omitempty"`
	Rating     string `xml:"Rating,attr,omitempty"`
}

// Collection is a parsed Rekordbox DJ_PLAYLISTS document.
type Collection struct {
	Version string
	Tracks  []Track
}

type document struct {
	XMLName    xml.Name       `xml:"DJ_PLAYLISTS"`
	Version    string         `xml:"Version,attr,omitempty"`
	Collection collectionElem `xml:"COLLECTION"`
}

type collectionElem struct {
	Entries int     `xml:"Entries,attr"`
	Tracks  []Track `xml:"TRACK"`
}

// ReadCollection parses a Rekordbox collection XML file.
func ReadCollection(path string) (*Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read collection: %w", err)
	}
	var doc document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse collection: %w", err)
	}
	return &Collection{Version: doc.Version, Tracks: doc.Collection.Tracks}, nil
}

// WriteCollection writes the collection back out as Rekordbox-style XML.
func WriteCollection(path string, col *Collection) error {
	doc := document{
		Version: col.Version,
		Collection: collectionElem{
			Entries: len(col.Tracks),
			Tracks:  col.Tracks,
		},
	}
	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode collection: %w", err)
	}
	payload := append([]byte(xml.Header), data...)
	payload = append(payload, '\n')
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write collection: %w", err)
	}
	return nil
}

// Descriptors converts collection tracks into classifier inputs. Tracks
// without a name are skipped; the ledger would reject them anyway.
func (c *Collection) Descriptors() []tags.TrackDescriptor {
	descriptors := make([]tags.TrackDescriptor, 0, len(c.Tracks))
	for _, track := range c.Tracks {
		if strings.TrimSpace(track.Name) == "" {
			continue
		}
		descriptors = append(descriptors, tags.TrackDescriptor{
			Title:     track.Name,
			Artist:    track.Artist,
			GenreHint: track.Genre,
			Year:      track.Year,
		})
	}
	return descriptors
}

// ApplyRendered writes rendered tag sets onto matching collection tracks:
// Grouping gets the primary genre, Comments the flattened tag list, and
// Rating the energy-derived star value. Returns how many tracks were tagged.
func (c *Collection) ApplyRendered(results map[tags.Identity]tags.RenderedTagSet) int {
	tagged := 0
	for i := range c.Tracks {
		track := &c.Tracks[i]
		id := tags.NewIdentity(track.Name, track.Artist)
		rendered, ok := results[id]
		if !ok {
			continue
		}
		track.Grouping = rendered.PrimaryGenre
		if flat := rendered.FlatTags(); len(flat) > 0 {
			track.Comments = strings.Join(flat, " / ")
		}
		if rendered.EnergyLevel > 0 {
			track.Rating = strconv.Itoa(EnergyRating(rendered.EnergyLevel))
		}
		tagged++
	}
	return tagged
}

// EnergyRating maps an energy level 1..10 onto the 0..255 Rekordbox rating
// scale. Each star covers two energy points and a star is worth 51 rating
// units, the inverse of Rekordbox's own star thresholds.
func EnergyRating(energy int) int {
	stars := (tags.ClampEnergy(energy) + 1) / 2
	return stars * 51
}

// StarsFromRating converts a raw Rekordbox rating value to 0..5 stars.
func StarsFromRating(rating string) int {
	value, err := strconv.Atoi(strings.TrimSpace(rating))
	if err != nil {
		return 0
	}
	switch {
	case value >= 255:
		return 5
	case value >= 204:
		return 4
	case value >= 153:
		return 3
	case value >= 102:
		return 2
	case value >= 51:
		return 1
	default:
		return 0
	}
}
