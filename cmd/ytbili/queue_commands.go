package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ytbili/internal/api"
	"ytbili/internal/daemonctl"
	"ytbili/internal/queue"
	"ytbili/internal/queueaccess"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the job queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueResetCommand(ctx))
	queueCmd.AddCommand(newQueueHealthCommand(ctx))

	return queueCmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show job counts per status",
		RunE: func(cmd *cobra.Command, args []string) error {
			var counts map[string]int
			err := ctx.withAccess(cmd.Context(), func(session queueaccess.Session) error {
				var err error
				counts, err = session.Access.Stats(cmd.Context())
				return err
			})
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, api.QueueStatsResponse{Counts: counts})
			}
			rows := buildQueueStatusRows(counts)
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable([]column{{header: "Status"}, {header: "Count", right: true}}, rows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print JSON")
	return cmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var statuses []string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			filters, err := parseStatusFilters(statuses)
			if err != nil {
				return err
			}
			var items []api.QueueItem
			err = ctx.withAccess(cmd.Context(), func(session queueaccess.Session) error {
				var err error
				items, err = session.Access.List(cmd.Context(), filters)
				return err
			})
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, api.QueueListResponse{Items: api.SortQueueItemsNewestFirst(items)})
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable(queueListColumns, buildQueueListRows(items, time.Now())))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "Filter by queue status (repeatable)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print JSON")
	return cmd
}

func parseStatusFilters(values []string) ([]string, error) {
	statuses := make([]string, 0, len(values))
	for _, value := range values {
		status, ok := queue.ParseStatus(value)
		if !ok {
			return nil, fmt.Errorf("unknown queue status %q", value)
		}
		statuses = append(statuses, string(status))
	}
	return statuses, nil
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one job with its artefacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			var item *api.QueueItem
			err = ctx.withAccess(cmd.Context(), func(session queueaccess.Session) error {
				var err error
				item, err = session.Access.Describe(cmd.Context(), ids[0])
				return err
			})
			if err != nil {
				return err
			}
			if item == nil {
				return fmt.Errorf("job %d not found", ids[0])
			}
			if jsonOut {
				return writeJSON(cmd, api.QueueItemResponse{Item: *item})
			}
			for _, line := range queueItemDetails(*item) {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print JSON")
	return cmd
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <id>...",
		Short: "Resume failed jobs from the step that failed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			var result api.RetryItemsResult
			err = ctx.withAccess(cmd.Context(), func(session queueaccess.Session) error {
				var err error
				result, err = session.Access.Retry(cmd.Context(), ids)
				return err
			})
			if err != nil {
				return err
			}
			printRetryResult(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func printRetryResult(out io.Writer, result api.RetryItemsResult) {
	for _, item := range result.Items {
		switch item.Outcome {
		case api.RetryItemUpdated:
			fmt.Fprintf(out, "Job %d will resume at %s\n", item.ID, formatStatusLabel(item.NewStatus))
		case api.RetryItemNotFound:
			fmt.Fprintf(out, "Job %d not found\n", item.ID)
		case api.RetryItemNotFailed:
			fmt.Fprintf(out, "Job %d is not failed\n", item.ID)
		}
	}
	fmt.Fprintf(out, "Retried %d job(s)\n", result.UpdatedCount)
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>...",
		Short: "Remove jobs from the queue",
		Long:  "Remove jobs from the queue. Working directories are left on disk.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			var result api.RemoveItemsResult
			err = ctx.withAccess(cmd.Context(), func(session queueaccess.Session) error {
				var err error
				result, err = session.Access.Remove(cmd.Context(), ids)
				return err
			})
			if err != nil {
				return err
			}
			printRemoveResult(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func printRemoveResult(out io.Writer, result api.RemoveItemsResult) {
	for _, item := range result.Items {
		switch item.Outcome {
		case api.RemoveItemRemoved:
			fmt.Fprintf(out, "Removed job %d\n", item.ID)
		case api.RemoveItemNotFound:
			fmt.Fprintf(out, "Job %d not found\n", item.ID)
		case api.RemoveItemBusy:
			fmt.Fprintf(out, "Job %d is being processed\n", item.ID)
		}
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var clearCompleted bool
	var clearFailed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove jobs from the queue database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearCompleted && clearFailed {
				return errors.New("specify only one of --completed or --failed")
			}
			if !clearCompleted && !clearFailed && daemonRunning(ctx.configValue()) {
				return errors.New("the daemon is running; stop it before clearing every job, or pass --completed or --failed")
			}
			return ctx.withStore(cmd.Context(), func(store *queue.Store) error {
				out := cmd.OutOrStdout()
				switch {
				case clearCompleted:
					removed, err := store.ClearCompleted(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Cleared %d completed jobs\n", removed)
				case clearFailed:
					removed, err := store.ClearFailed(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Cleared %d failed jobs\n", removed)
				default:
					removed, err := store.Clear(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Cleared %d jobs\n", removed)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearCompleted, "completed", false, "Remove only completed jobs")
	cmd.Flags().BoolVar(&clearFailed, "failed", false, "Remove only failed jobs")
	return cmd
}

func newQueueResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-stuck",
		Short: "Return interrupted jobs to the start of their step",
		RunE: func(cmd *cobra.Command, args []string) error {
			if daemonRunning(ctx.configValue()) {
				return errors.New("the daemon is running; it resets interrupted jobs itself on startup")
			}
			return ctx.withStore(cmd.Context(), func(store *queue.Store) error {
				reset, err := store.ResetStuckProcessing(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d interrupted jobs\n", reset)
				return nil
			})
		},
	}
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the queue database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(store *queue.Store) error {
				health, err := store.CheckHealth(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				lines := []string{
					renderStatusLine("Database", okOrError(health.DatabaseReadable), health.DBPath, colorize),
					renderStatusLine("Schema", statusInfo, valueOrDash(health.SchemaVersion), colorize),
					renderStatusLine("Jobs table", okOrError(health.TableExists), "", colorize),
					renderStatusLine("Integrity", okOrError(health.IntegrityCheck), "", colorize),
					renderStatusLine("Jobs", statusInfo, strconv.Itoa(health.TotalItems), colorize),
				}
				if len(health.MissingColumns) > 0 {
					lines = append(lines, renderStatusLine("Missing columns", statusError, strings.Join(health.MissingColumns, ", "), colorize))
				}
				if health.Error != "" {
					lines = append(lines, renderStatusLine("Error", statusError, health.Error, colorize))
				}
				printSection(out, "Queue Database", colorize, lines)
				return nil
			})
		},
	}
}

func okOrError(ok bool) statusKind {
	if ok {
		return statusOK
	}
	return statusError
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid job id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func asAPIError(err error) (*daemonctl.APIError, bool) {
	var apiErr *daemonctl.APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
