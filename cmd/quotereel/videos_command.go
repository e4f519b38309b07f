package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newVideosCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "videos",
		Short: "List rendered videos available for download",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			runCtx := cmd.Context()
			if runCtx == nil {
				runCtx = context.Background()
			}
			videos, err := client.Videos(runCtx)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, videos)
			}
			if len(videos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No videos")
				return nil
			}
			rows := make([][]string, 0, len(videos))
			for _, video := range videos {
				rows = append(rows, videoRow(video))
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(videoColumns, rows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}
