package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"ytbili/internal/queue"
	"ytbili/internal/workdir"
)

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	var olderThan string
	var includeCompleted bool
	var dryRun bool
	var list bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete job directories no longer needed",
		Long: "Delete job directories whose job was removed from the queue. With --completed the " +
			"directories of finished jobs go too. Failed and running jobs keep their files so they can resume.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			maxAge, err := parseAge(olderThan)
			if err != nil {
				return err
			}
			return ctx.withStore(cmd.Context(), func(store *queue.Store) error {
				out := cmd.OutOrStdout()
				if list {
					dirs, err := workdir.Scan(cmd.Context(), cfg.Paths.WorkDir, store)
					if err != nil {
						return err
					}
					if len(dirs) == 0 {
						fmt.Fprintln(out, "No job directories")
						return nil
					}
					fmt.Fprint(out, renderTable(workDirColumns, buildWorkDirRows(dirs, time.Now())))
					return nil
				}

				result, err := workdir.Clean(cmd.Context(), cfg.Paths.WorkDir, store, workdir.CleanOptions{
					MaxAge:           maxAge,
					IncludeCompleted: includeCompleted,
					DryRun:           dryRun,
				}, nil)
				if err != nil {
					return err
				}
				verb := "Removed"
				if dryRun {
					verb = "Would remove"
				}
				for _, dir := range result.Removed {
					fmt.Fprintf(out, "%s %s (%s, %s)\n", verb, dir.Name, dir.State, humanize.Bytes(uint64(dir.Size)))
				}
				for _, failure := range result.Errors {
					fmt.Fprintf(out, "Failed to remove %s: %v\n", failure.Path, failure.Err)
				}
				fmt.Fprintf(out, "%s %d job directories, %s\n", verb, len(result.Removed), humanize.Bytes(uint64(result.FreedBytes)))
				if len(result.Errors) > 0 {
					return fmt.Errorf("%d job directories could not be removed", len(result.Errors))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&olderThan, "older-than", "0", "Only remove directories older than this (e.g. 12h, 7d)")
	cmd.Flags().BoolVar(&includeCompleted, "completed", false, "Also remove directories of completed jobs")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be removed")
	cmd.Flags().BoolVar(&list, "list", false, "List job directories with their size and state")
	return cmd
}

var workDirColumns = []column{
	{header: "Job", right: true},
	{header: "State"},
	{header: "Size", right: true},
	{header: "Modified"},
}

func buildWorkDirRows(dirs []workdir.Dir, now time.Time) [][]string {
	rows := make([][]string, 0, len(dirs))
	for _, dir := range dirs {
		rows = append(rows, []string{
			strconv.FormatInt(dir.JobID, 10),
			string(dir.State),
			humanize.Bytes(uint64(dir.Size)),
			humanize.RelTime(dir.ModTime, now, "ago", "from now"),
		})
	}
	return rows
}

// parseAge accepts Go durations plus a whole-day suffix such as 7d.
func parseAge(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == "0" {
		return 0, nil
	}
	if days, ok := strings.CutSuffix(value, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid age %q", value)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	age, err := time.ParseDuration(value)
	if err != nil || age < 0 {
		return 0, fmt.Errorf("invalid age %q", value)
	}
	return age, nil
}
