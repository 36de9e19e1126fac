package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"taggenius/internal/api"
	"taggenius/internal/ipc"
	"taggenius/internal/library"
	"taggenius/internal/tags"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var xmlPath string
	var outPath string

	cmd := &cobra.Command{
		Use:   "export <job-id>",
		Short: "Write a job's results into a Rekordbox collection XML",
		Long: `Write a job's results into a Rekordbox collection XML.

Completed tracks get their primary genre in Grouping, the flattened tag
list in Comments, and an energy-derived star Rating. Tracks the job did
not classify pass through untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(xmlPath) == "" {
				return fmt.Errorf("--xml is required")
			}
			target := strings.TrimSpace(outPath)
			if target == "" {
				target = taggedOutputPath(xmlPath)
			}

			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Output(args[0])
				if err != nil {
					return err
				}

				results := renderedByIdentity(resp.Items)
				if len(results) == 0 {
					return fmt.Errorf("job %s has no completed tracks to export", shortJobID(resp.Job.ID))
				}

				col, err := library.ReadCollection(xmlPath)
				if err != nil {
					return err
				}
				tagged := col.ApplyRendered(results)
				if err := library.WriteCollection(target, col); err != nil {
					return err
				}

				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "Tagged %d of %d tracks\n", tagged, len(col.Tracks))
				fmt.Fprintf(stdout, "Wrote %s\n", target)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&xmlPath, "xml", "", "Rekordbox collection XML to apply results to")
	cmd.Flags().StringVar(&outPath, "out", "", "Output path (defaults to <input>_tagged.xml)")
	return cmd
}

func renderedByIdentity(items []api.JobItem) map[tags.Identity]tags.RenderedTagSet {
	results := make(map[tags.Identity]tags.RenderedTagSet)
	for _, item := range items {
		if item.State != "completed" || item.Rendered == nil {
			continue
		}
		id := tags.NewIdentity(item.Track.Title, item.Track.Artist)
		results[id] = api.ToRenderedTagSet(*item.Rendered)
	}
	return results
}

func taggedOutputPath(input string) string {
	ext := filepath.Ext(input)
	if ext == "" {
		return input + "_tagged.xml"
	}
	return strings.TrimSuffix(input, ext) + "_tagged" + ext
}
