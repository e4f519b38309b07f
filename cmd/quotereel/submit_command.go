package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"quotereel/internal/api"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var wait bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "submit FILE",
		Short: "Submit a render job from a YAML or JSON scene file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := api.LoadSubmission(args[0])
			if err != nil {
				return err
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			runCtx := cmd.Context()
			if runCtx == nil {
				runCtx = context.Background()
			}
			accepted, err := client.Submit(runCtx, req)
			if err != nil {
				return fmt.Errorf("submit: %w", err)
			}
			if !wait {
				if asJSON {
					return writeJSON(cmd, accepted)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Job %s accepted (output %s)\n", accepted.JobID, accepted.OutputName)
				return nil
			}
			if !asJSON {
				fmt.Fprintf(cmd.OutOrStdout(), "Job %s accepted, waiting...\n", accepted.JobID)
			}
			return followJob(runCtx, cmd, client, accepted.JobID, asJSON)
		},
	}
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Follow the job until it finishes")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}
