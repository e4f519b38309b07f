package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"quotereel/internal/deps"
	"quotereel/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check binaries, directories, fonts and services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runCtx := cmd.Context()
			if runCtx == nil {
				runCtx = context.Background()
			}

			var rows [][]string
			failures := 0
			statuses := deps.CheckBinaries(deps.Requirements(cfg))
			if statuses[0].Available {
				statuses = append(statuses, deps.CheckFFmpegFeatures(runCtx, statuses[0].Path))
			}
			for _, status := range statuses {
				detail := status.Detail
				if status.Available && detail == "" {
					detail = status.Path
					if detail == "" {
						detail = status.Description
					}
				}
				if !status.Available && !status.Optional {
					failures++
				}
				rows = append(rows, []string{status.Name, checkMark(status.Available), detail})
			}
			for _, result := range preflight.RunAll(runCtx, cfg) {
				if !result.Passed {
					failures++
				}
				rows = append(rows, []string{result.Name, checkMark(result.Passed), result.Detail})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(checkColumns, rows))
			if failures > 0 {
				return fmt.Errorf("%d check(s) failed", failures)
			}
			return nil
		},
	}
}

func checkMark(ok bool) string {
	if ok {
		return "yes"
	}
	return "no"
}
