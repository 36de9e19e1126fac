package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"taggenius/internal/api"
	"taggenius/internal/ipc"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the blueprint cache",
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheRemoveCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	return cacheCmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached classification blueprints",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.CacheList()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Entries) == 0 {
					fmt.Fprintln(stdout, "Cache is empty")
					return nil
				}
				table := renderTable(
					[]string{"Title", "Artist", "Model", "Created"},
					buildCacheRows(resp.Entries),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprint(stdout, table)
				fmt.Fprintln(stdout)
				fmt.Fprintf(stdout, "%d cached blueprints\n", len(resp.Entries))
				return nil
			})
		},
	}
}

func newCacheRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   `remove "Artist - Title"`,
		Short: "Evict one cached blueprint by track",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			track, err := parseTrackFlag(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.CacheRemove(track.Title, track.Artist)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if !resp.Removed {
					fmt.Fprintln(stdout, "No cached blueprint for that track")
					return nil
				}
				fmt.Fprintln(stdout, "Cached blueprint removed; the next submission regenerates it")
				return nil
			})
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Evict every cached blueprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.CacheClear()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached blueprints\n", resp.Removed)
				return nil
			})
		},
	}
}

func buildCacheRows(entries []api.CacheEntry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{entry.Title, entry.Artist, entry.Model, entry.CreatedAt})
	}
	return rows
}
