package library

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"taggenius/internal/tags"
)

const sampleXML = `<?xml version="1.0" encoding="UTF-8"?>
<DJ_PLAYLISTS Version="1.0.0">
  <COLLECTION Entries="3">
    <TRACK Name="One More Time" Artist="Daft Punk" Genre="House" Year="2000" AverageBpm="123.00" Tonality="Dm" Rating="204"/>
    <TRACK Name="Archangel" Artist="Burial" Genre="Dubstep" Comments="old comment"/>
    <TRACK Name="" Artist="Nameless"/>
  </COLLECTION>
</DJ_PLAYLISTS>
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "collection.xml")
	if err := os.WriteFile(path, []byte(sampleXML), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	return path
}

func TestReadCollectionDescriptors(t *testing.T) {
	col, err := ReadCollection(writeSample(t))
	if err != nil {
		t.Fatalf("ReadCollection: %v", err)
	}
	if col.Version != "1.0.0" {
		t.Fatalf("version = %q", col.Version)
	}
	if len(col.Tracks) != 3 {
		t.Fatalf("tracks = %d", len(col.Tracks))
	}

	descriptors := col.Descriptors()
	if len(descriptors) != 2 {
		t.Fatalf("descriptors = %d, want 2 (nameless track skipped)", len(descriptors))
	}
	first := descriptors[0]
	if first.Title != "One More Time" || first.Artist != "Daft Punk" || first.GenreHint != "House" || first.Year != "2000" {
		t.Fatalf("descriptor = %+v", first)
	}
}

func TestApplyRenderedAndRoundTrip(t *testing.T) {
	col, err := ReadCollection(writeSample(t))
	if err != nil {
		t.Fatalf("ReadCollection: %v", err)
	}

	rendered := tags.RenderedTagSet{
		PrimaryGenre: "house",
		Tags: map[tags.Group][]string{
			tags.GroupSubGenre:   {"french house"},
			tags.GroupEnergyVibe: {"euphoric"},
		},
		EnergyLevel: 9,
	}
	results := map[tags.Identity]tags.RenderedTagSet{
		tags.NewIdentity("One More Time", "Daft Punk"): rendered,
	}

	if tagged := col.ApplyRendered(results); tagged != 1 {
		t.Fatalf("tagged = %d, want 1", tagged)
	}

	track := col.Tracks[0]
	if track.Grouping != "house" {
		t.Fatalf("grouping = %q", track.Grouping)
	}
	if !strings.Contains(track.Comments, "french house") || !strings.Contains(track.Comments, "euphoric") {
		t.Fatalf("comments = %q", track.Comments)
	}
	if track.Rating != "255" {
		t.Fatalf("rating = %q", track.Rating)
	}
	if col.Tracks[1].Comments != "old comment" {
		t.Fatal("untagged track should keep its comment")
	}

	out := filepath.Join(t.TempDir(), "tagged.xml")
	if err := WriteCollection(out, col); err != nil {
		t.Fatalf("WriteCollection: %v", err)
	}
	reread, err := ReadCollection(out)
	if err != nil {
		t.Fatalf("reread: %v", err)
	}
	if reread.Tracks[0].Grouping != "house" || reread.Tracks[0].Rating != "255" {
		t.Fatalf("round trip lost tags: %+v", reread.Tracks[0])
	}
}

func TestEnergyRating(t *testing.T) {
	cases := []struct {
		energy int
		rating int
	}{
		{1, 51},
		{2, 51},
		{3, 102},
		{5, 153},
		{8, 204},
		{10, 255},
		{0, 51},   // clamped up
		{99, 255}, // clamped down
	}
	for _, tc := range cases {
		if got := EnergyRating(tc.energy); got != tc.rating {
			t.Fatalf("EnergyRating(%d) = %d, want %d", tc.energy, got, tc.rating)
		}
	}
}

func TestStarsFromRating(t *testing.T) {
	if got := StarsFromRating("204"); got != 4 {
		t.Fatalf("stars = %d, want 4", got)
	}
	if got := StarsFromRating(""); got != 0 {
		t.Fatalf("stars = %d, want 0", got)
	}
	if got := StarsFromRating("31"); got != 0 {
		t.Fatalf("stars = %d, want 0", got)
	}
}
