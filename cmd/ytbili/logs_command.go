package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"ytbili/internal/config"
	"ytbili/internal/daemonrun"
	"ytbili/internal/logs"
	"ytbili/internal/workflow"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var jobID int64
	var grep string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the daemon log",
		Long: "Show the daemon log. With --job the job's own log is shown when it exists; " +
			"otherwise the daemon log is filtered to lines tagged with that job.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, filter := logTarget(cfg, jobID)
			filter = logs.All(filter, logs.ContainsFilter(grep))

			out := cmd.OutOrStdout()
			emit := func(batch []string) error {
				for _, line := range batch {
					fmt.Fprintln(out, line)
				}
				return nil
			}

			chunk, err := logs.Last(path, lines, filter)
			if err != nil {
				return err
			}
			if len(chunk.Lines) == 0 && !follow {
				if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
					return fmt.Errorf("no log at %s", path)
				}
			}
			_ = emit(chunk.Lines)
			if !follow {
				return nil
			}

			followCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			err = logs.Follow(followCtx, path, chunk.Offset, logs.DefaultPollInterval, filter, emit)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	cmd.Flags().Int64Var(&jobID, "job", 0, "Show the log of one job")
	cmd.Flags().StringVar(&grep, "grep", "", "Only show lines containing this text")
	return cmd
}

// logTarget picks the file to read. A job's own log wins over the daemon log.
func logTarget(cfg *config.Config, jobID int64) (string, logs.LineFilter) {
	daemonLog := filepath.Join(cfg.Paths.LogDir, daemonrun.CurrentLogName)
	if jobID <= 0 {
		return daemonLog, nil
	}
	jobLog := filepath.Join(cfg.JobDir(jobID), workflow.JobLogFileName)
	if _, err := os.Stat(jobLog); err == nil {
		return jobLog, nil
	}
	return daemonLog, logs.ItemFilter(jobID)
}
