package tags

import (
	"strings"

	"golang.org/x/text/cases"
)

// TrackDescriptor describes one track as submitted by a caller.
type TrackDescriptor struct {
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	GenreHint string `json:"genre_hint,omitempty"`
	Year      string `json:"year,omitempty"`
}

// Identity is the normalized (title, artist) cache key. Two descriptors with
// the same title and artist map to the same identity regardless of casing or
// surrounding whitespace; no other descriptor fields participate.
type Identity string

// identitySeparator keeps title and artist from colliding across the join
// (unit separator, never present in normalized text).
const identitySeparator = "\x1f"

var identityFolder = cases.Fold()

// NewIdentity builds the normalized identity key for a title/artist pair.
func NewIdentity(title, artist string) Identity {
	return Identity(normalizeIdentityPart(title) + identitySeparator + normalizeIdentityPart(artist))
}

func normalizeIdentityPart(value string) string {
	folded := identityFolder.String(strings.TrimSpace(value))
	return strings.Join(strings.Fields(folded), " ")
}

// Identity returns the cache key for the descriptor.
func (d TrackDescriptor) Identity() Identity {
	return NewIdentity(d.Title, d.Artist)
}

// Label returns the "artist - title" display form used in logs and prompts.
func (d TrackDescriptor) Label() string {
	artist := strings.TrimSpace(d.Artist)
	title := strings.TrimSpace(d.Title)
	switch {
	case artist == "" && title == "":
		return "(unknown track)"
	case artist == "":
		return title
	case title == "":
		return artist
	default:
		return artist + " - " + title
	}
}

// Valid reports whether the descriptor carries enough information to be
// classified. Title is required; artist is strongly recommended but a blank
// artist still yields a usable identity.
func (d TrackDescriptor) Valid() bool {
	return strings.TrimSpace(d.Title) != ""
}

// Parts splits an identity back into its normalized title and artist halves,
// for display.
func (id Identity) Parts() (title, artist string) {
	parts := strings.SplitN(string(id), identitySeparator, 2)
	title = parts[0]
	if len(parts) > 1 {
		artist = parts[1]
	}
	return title, artist
}
