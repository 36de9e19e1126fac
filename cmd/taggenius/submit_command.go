package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"taggenius/internal/api"
	"taggenius/internal/config"
	"taggenius/internal/ipc"
	"taggenius/internal/library"
	"taggenius/internal/tags"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var xmlPath string
	var trackFlags []string
	var detailFlags []string
	var primaryOnly bool
	var fullDetail bool

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Queue a batch of tracks for classification",
		Long: `Queue a batch of tracks for classification.

Tracks come from a Rekordbox collection export (--xml) or from repeated
--track "Artist - Title" flags. Without detail flags the job renders the
per-group counts from the [tagging] config section; --full renders every
group at maximum detail and --primary-only renders only the primary
genre and energy level.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tracks, err := collectTracks(xmlPath, trackFlags)
			if err != nil {
				return err
			}
			if len(tracks) == 0 {
				return fmt.Errorf("no tracks to submit; use --xml or --track")
			}

			detail, err := buildDetail(ctx.configValue(), detailFlags, primaryOnly, fullDetail)
			if err != nil {
				return err
			}

			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Submit(ipc.SubmitRequest{Tracks: tracks, Detail: detail})
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "Submitted job %s (%d tracks)\n", resp.Job.ID, resp.Job.TrackCount)
				fmt.Fprintf(stdout, "Check progress with `taggenius show %s`\n", resp.Job.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&xmlPath, "xml", "", "Rekordbox collection XML to read tracks from")
	cmd.Flags().StringArrayVar(&trackFlags, "track", nil, `Track as "Artist - Title" (repeatable)`)
	cmd.Flags().StringArrayVar(&detailFlags, "detail", nil, "Detail override as group=count (repeatable)")
	cmd.Flags().BoolVar(&primaryOnly, "primary-only", false, "Render only primary genre and energy level")
	cmd.Flags().BoolVar(&fullDetail, "full", false, "Render every descriptor group at maximum detail")
	cmd.MarkFlagsMutuallyExclusive("primary-only", "full")
	return cmd
}

func collectTracks(xmlPath string, trackFlags []string) ([]api.TrackInput, error) {
	var tracks []api.TrackInput

	if strings.TrimSpace(xmlPath) != "" {
		col, err := library.ReadCollection(xmlPath)
		if err != nil {
			return nil, err
		}
		for _, desc := range col.Descriptors() {
			tracks = append(tracks, api.TrackInput{
				Title:     desc.Title,
				Artist:    desc.Artist,
				GenreHint: desc.GenreHint,
				Year:      desc.Year,
			})
		}
	}

	for _, flag := range trackFlags {
		track, err := parseTrackFlag(flag)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

// parseTrackFlag splits "Artist - Title" into its parts. A value without the
// separator is treated as a bare title.
func parseTrackFlag(value string) (api.TrackInput, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return api.TrackInput{}, fmt.Errorf("track value must not be empty")
	}
	artist, title, found := strings.Cut(trimmed, " - ")
	if !found {
		return api.TrackInput{Title: trimmed}, nil
	}
	return api.TrackInput{Title: strings.TrimSpace(title), Artist: strings.TrimSpace(artist)}, nil
}

func buildDetail(cfg *config.Config, detailFlags []string, primaryOnly, fullDetail bool) (map[string]int, error) {
	switch {
	case primaryOnly:
		if len(detailFlags) > 0 {
			return nil, fmt.Errorf("--primary-only conflicts with --detail")
		}
		return map[string]int{}, nil
	case fullDetail:
		if len(detailFlags) > 0 {
			return nil, fmt.Errorf("--full conflicts with --detail")
		}
		detail := make(map[string]int, len(tags.Groups()))
		for _, group := range tags.Groups() {
			detail[string(group)] = tags.MaxGroupCount
		}
		return detail, nil
	case len(detailFlags) == 0:
		var defaults tags.DetailConfig
		if cfg != nil {
			defaults = cfg.Tagging.DetailConfig()
		}
		detail := make(map[string]int, len(defaults))
		for group, count := range defaults {
			detail[string(group)] = count
		}
		return detail, nil
	}

	detail := make(map[string]int, len(detailFlags))
	for _, flag := range detailFlags {
		group, countText, found := strings.Cut(flag, "=")
		if !found {
			return nil, fmt.Errorf("detail %q: expected group=count", flag)
		}
		group = strings.TrimSpace(group)
		if !tags.KnownGroup(tags.Group(group)) {
			return nil, fmt.Errorf("detail %q: unknown descriptor group %q", flag, group)
		}
		count, err := strconv.Atoi(strings.TrimSpace(countText))
		if err != nil {
			return nil, fmt.Errorf("detail %q: count must be an integer", flag)
		}
		if count < 0 || count > tags.MaxGroupCount {
			return nil, fmt.Errorf("detail %q: count must be between 0 and %d", flag, tags.MaxGroupCount)
		}
		detail[group] = count
	}
	return detail, nil
}
