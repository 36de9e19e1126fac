package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"taggenius/internal/ipc"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show the status of a single job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.JobStatus(args[0])
				if err != nil {
					return err
				}
				job := resp.Job
				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)

				for _, line := range renderSectionHeader("Job "+shortJobID(job.ID), colorize) {
					fmt.Fprintln(stdout, line)
				}
				fmt.Fprintln(stdout, renderStatusLine("Status", jobStatusKind(job.Status), jobResultLine(job), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Detail", statusInfo, detailSummary(job.Detail), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Cancel requested", statusInfo, yesNo(job.CancelRequested), colorize))
				if job.CreatedAt != "" {
					fmt.Fprintln(stdout, renderStatusLine("Created", statusInfo, job.CreatedAt, colorize))
				}
				if job.StartedAt != "" {
					fmt.Fprintln(stdout, renderStatusLine("Started", statusInfo, job.StartedAt, colorize))
				}
				if job.FinishedAt != "" {
					fmt.Fprintln(stdout, renderStatusLine("Finished", statusInfo, job.FinishedAt, colorize))
				}
				if message := strings.TrimSpace(job.ErrorMessage); message != "" && job.Status != "failed" {
					fmt.Fprintln(stdout, renderStatusLine("Error", statusError, message, colorize))
				}
				return nil
			})
		},
	}
}

func jobStatusKind(status string) statusKind {
	switch status {
	case "completed":
		return statusOK
	case "failed":
		return statusError
	case "cancelled":
		return statusWarn
	default:
		return statusInfo
	}
}
