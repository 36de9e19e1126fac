package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"taggenius/internal/ipc"
)

func newCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Request cancellation of a queued or running job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Cancel(args[0])
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if !resp.Cancelled {
					fmt.Fprintf(stdout, "Job %s is already %s\n", shortJobID(resp.Job.ID), resp.Job.Status)
					return nil
				}
				switch resp.Job.Status {
				case "cancelled":
					fmt.Fprintf(stdout, "Job %s cancelled\n", shortJobID(resp.Job.ID))
				default:
					fmt.Fprintf(stdout, "Cancellation requested for job %s; it stops at the next track boundary\n", shortJobID(resp.Job.ID))
				}
				return nil
			})
		},
	}
}
