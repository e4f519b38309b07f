package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"quotereel/internal/api"
	"quotereel/internal/job"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status ID",
		Short: "Show a render job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			runCtx := cmd.Context()
			if runCtx == nil {
				runCtx = context.Background()
			}
			if follow {
				return followJob(runCtx, cmd, client, args[0], asJSON)
			}
			record, err := client.Get(runCtx, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, record)
			}
			printJob(cmd.OutOrStdout(), record)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Stream progress until the job finishes")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

// followJob streams progress for id and prints the final record. A failed
// job is reported as a command error.
func followJob(ctx context.Context, cmd *cobra.Command, client *api.Client, id string, asJSON bool) error {
	out := cmd.OutOrStdout()
	live := isTerminal(out) && !asJSON
	final, err := client.Follow(ctx, id, func(event string, record job.Job) {
		switch {
		case asJSON:
		case live:
			fmt.Fprintf(out, "\r\033[K%3d%%  %s", record.Progress, record.Stage)
		default:
			fmt.Fprintf(out, "%3d%%  %s\n", record.Progress, record.Stage)
		}
	})
	if live {
		fmt.Fprintln(out)
	}
	if err != nil {
		return err
	}
	if asJSON {
		if err := writeJSON(cmd, final); err != nil {
			return err
		}
	} else {
		printJob(out, final)
	}
	if final.Status == job.StatusFailed {
		return errors.New("job " + final.ID + " failed")
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func printJob(w io.Writer, record job.Job) {
	rows := [][]string{
		{"Job", record.ID},
		{"Status", string(record.Status)},
		{"Stage", record.Stage},
		{"Progress", fmt.Sprintf("%d%%", record.Progress)},
		{"Scenes", fmt.Sprintf("%d", record.SceneCount)},
		{"Output", record.OutputName},
		{"Created", formatTime(record.CreatedAt)},
	}
	if record.Label != "" {
		rows = append(rows, []string{"Label", record.Label})
	}
	if record.Result != nil {
		rows = append(rows,
			[]string{"File", record.Result.Path},
			[]string{"Size", formatBytes(record.Result.SizeBytes)},
			[]string{"Duration", fmt.Sprintf("%.1fs", record.Result.DurationSeconds)},
		)
	}
	if record.Error != nil {
		message := record.Error.Message
		if record.Error.Detail != "" {
			message += " (" + record.Error.Detail + ")"
		}
		rows = append(rows,
			[]string{"Error", strings.TrimSpace(message)},
			[]string{"Error kind", record.Error.Kind},
			[]string{"Failed at", record.Error.Stage},
		)
	}
	fmt.Fprintln(w, renderTable(detailColumns, rows))
}
