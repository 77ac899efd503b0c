package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ytbili/internal/api"
	"ytbili/internal/daemon"
	"ytbili/internal/daemonrun"
	"ytbili/internal/logging"
	"ytbili/internal/notifications"
	"ytbili/internal/queue"
	"ytbili/internal/stageexec"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var flags submitFlags
	var jobID int64
	var verbose bool

	cmd := &cobra.Command{
		Use:   "process [youtube-url]",
		Short: "Run a job through the whole pipeline in the foreground",
		Long: "Run a job through the whole pipeline in the foreground without a daemon. " +
			"Pass a URL to create a job, or --job to resume an existing one from where it stopped.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 0) == (jobID == 0) {
				return errors.New("pass either a YouTube URL or --job")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			lock, err := acquireDaemonLock(cfg)
			if err != nil {
				return err
			}
			defer lock.Unlock()

			logger, err := ctx.cliLogger(verbose)
			if err != nil {
				return err
			}

			return ctx.withStore(cmd.Context(), func(store *queue.Store) error {
				var item *queue.Item
				if jobID > 0 {
					item, err = resumableJob(cmd, store, jobID)
				} else {
					item, err = createJob(cmd, ctx, store, flags.request(args[0]))
				}
				if err != nil {
					return err
				}

				stages, cleanup, err := daemonrun.BuildStages(cmd.Context(), cfg, store, logger)
				if err != nil {
					return err
				}
				defer cleanup()

				fmt.Fprintf(cmd.OutOrStdout(), "Processing job %d: %s\n", item.ID, item.DisplayTitle())
				runErr := stageexec.RunPipeline(cmd.Context(), stageexec.PipelineOptions{
					Logger: logger,
					Store:  store,
					Observer: &stageexec.Observer{
						Notifier: notifications.NewService(cfg),
						Logger:   logger,
					},
					Steps: stages.Steps(),
					Item:  item,
				})

				if latest, err := store.GetByID(cmd.Context(), item.ID); err == nil && latest != nil {
					item = latest
				}
				fmt.Fprintln(cmd.OutOrStdout())
				for _, line := range queueItemDetails(api.FromQueueItem(item)) {
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
				if runErr != nil {
					logger.Error("job failed", logging.Int64(logging.FieldItemID, item.ID), logging.Error(runErr))
					return fmt.Errorf("job %d failed; resume with `ytbili process --job %d`", item.ID, item.ID)
				}
				return nil
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().Int64Var(&jobID, "job", 0, "Resume an existing job by id")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")
	return cmd
}

func createJob(cmd *cobra.Command, ctx *commandContext, store *queue.Store, req daemon.SubmitRequest) (*queue.Item, error) {
	sub, err := daemon.BuildSubmission(ctx.configValue(), req)
	if err != nil {
		return nil, describeSubmitError(err, 0)
	}
	item, err := store.NewJob(cmd.Context(), sub)
	if errors.Is(err, queue.ErrDuplicate) && item != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Video already queued as job %d; continuing it\n", item.ID)
		return item, nil
	}
	return item, err
}

func resumableJob(cmd *cobra.Command, store *queue.Store, id int64) (*queue.Item, error) {
	item, err := store.GetByID(cmd.Context(), id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("job %d not found", id)
	}
	switch {
	case item.Status == queue.StatusCompleted:
		return nil, fmt.Errorf("job %d is already completed", id)
	case item.Status == queue.StatusFailed:
		if _, err := store.RetryFailed(cmd.Context(), id); err != nil {
			return nil, err
		}
		return store.GetByID(cmd.Context(), id)
	case queue.IsProcessingStatus(item.Status):
		// Left over from an interrupted run; the lock guarantees nothing else owns it.
		if _, err := store.ResetStuckProcessing(cmd.Context()); err != nil {
			return nil, err
		}
		return store.GetByID(cmd.Context(), id)
	}
	return item, nil
}
