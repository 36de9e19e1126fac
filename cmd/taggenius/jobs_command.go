package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"taggenius/internal/api"
	"taggenius/internal/ipc"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var statusFilters []string

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List classification jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.JobList(statusFilters)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Jobs) == 0 {
					fmt.Fprintln(stdout, "No jobs found")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Status", "Tracks", "Processed", "Detail", "Created"},
					buildJobListRows(resp.Jobs),
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
				)
				fmt.Fprint(stdout, table)
				fmt.Fprintln(stdout)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&statusFilters, "status", nil, "Filter by job status (repeatable or comma separated)")
	return cmd
}

func buildJobListRows(jobList []api.Job) [][]string {
	rows := make([][]string, 0, len(jobList))
	for _, job := range jobList {
		rows = append(rows, []string{
			shortJobID(job.ID),
			jobStatusLabel(job),
			strconv.Itoa(job.TrackCount),
			strconv.Itoa(job.Processed),
			detailSummary(job.Detail),
			job.CreatedAt,
		})
	}
	return rows
}

func shortJobID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func jobStatusLabel(job api.Job) string {
	if job.CancelRequested && job.Status == "running" {
		return job.Status + " (cancelling)"
	}
	return job.Status
}

func detailSummary(detail map[string]int) string {
	if len(detail) == 0 {
		return "primary only"
	}
	total := 0
	for _, count := range detail {
		total += count
	}
	return fmt.Sprintf("%d groups, %d tags", len(detail), total)
}

func jobResultLine(job api.Job) string {
	switch job.Status {
	case "completed":
		return fmt.Sprintf("Completed %d/%d tracks", job.Processed, job.TrackCount)
	case "failed":
		message := strings.TrimSpace(job.ErrorMessage)
		if message == "" {
			message = "unknown error"
		}
		return "Failed: " + message
	case "cancelled":
		return fmt.Sprintf("Cancelled after %d/%d tracks", job.Processed, job.TrackCount)
	case "running":
		return fmt.Sprintf("Running, %d/%d tracks processed", job.Processed, job.TrackCount)
	default:
		return "Waiting in queue"
	}
}
