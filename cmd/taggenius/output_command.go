package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"taggenius/internal/api"
	"taggenius/internal/ipc"
	"taggenius/internal/tags"
)

func newOutputCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "output <job-id>",
		Short: "Show per-track results for a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Output(args[0])
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()

				if asJSON {
					payload := api.JobOutputResponse{Job: resp.Job, Items: resp.Items}
					encoder := json.NewEncoder(stdout)
					encoder.SetIndent("", "  ")
					return encoder.Encode(payload)
				}

				fmt.Fprintf(stdout, "Job %s: %s\n", shortJobID(resp.Job.ID), jobResultLine(resp.Job))
				if len(resp.Items) == 0 {
					fmt.Fprintln(stdout, "No tracks recorded")
					return nil
				}

				table := renderTable(
					[]string{"#", "Track", "State", "Genre", "Tags", "Energy", "Cache"},
					buildOutputRows(resp.Items),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				)
				fmt.Fprint(stdout, table)
				fmt.Fprintln(stdout)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit results as JSON")
	return cmd
}

func buildOutputRows(items []api.JobItem) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		genre := ""
		tagText := ""
		energy := ""
		cacheHit := ""
		switch {
		case item.State == "failed":
			tagText = strings.TrimSpace(item.ErrorMessage)
		case item.Rendered != nil:
			genre = item.Rendered.PrimaryGenre
			tagText = flattenTags(item.Rendered.Tags)
			if item.Rendered.EnergyLevel > 0 {
				energy = strconv.Itoa(item.Rendered.EnergyLevel)
			}
			cacheHit = yesNo(item.CacheHit)
		}
		rows = append(rows, []string{
			strconv.Itoa(item.Position + 1),
			trackLabel(item.Track),
			item.State,
			genre,
			tagText,
			energy,
			cacheHit,
		})
	}
	return rows
}

func trackLabel(track api.TrackInput) string {
	if strings.TrimSpace(track.Artist) == "" {
		return track.Title
	}
	return track.Artist + " - " + track.Title
}

func flattenTags(groups map[string][]string) string {
	if len(groups) == 0 {
		return ""
	}
	flat := make([]string, 0, len(groups)*3)
	for _, group := range tags.Groups() {
		flat = append(flat, groups[string(group)]...)
	}
	return strings.Join(flat, " / ")
}
