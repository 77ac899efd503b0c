package stageexec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"ytbili/internal/logging"
	"ytbili/internal/queue"
	"ytbili/internal/services"
	"ytbili/internal/stage"
)

// Handler is the stage contract used by the execution helper.
type Handler interface {
	Prepare(context.Context, *queue.Item) error
	Execute(context.Context, *queue.Item) error
}

// Options controls stage execution and queue persistence behavior.
type Options struct {
	Logger   *slog.Logger
	Store    *queue.Store
	Observer *Observer
	Step     Step
	Item     *queue.Item
}

// Run executes one stage and applies the same queue transitions the daemon
// uses: processing status, Prepare, Execute, done status. A failure marks the
// job failed with the step's start status as the resume point.
func Run(ctx context.Context, opts Options) error {
	if opts.Step.Handler == nil {
		return fmt.Errorf("stage handler unavailable: %s", opts.Step.Name)
	}
	if opts.Store == nil {
		return fmt.Errorf("queue store is required")
	}
	if opts.Item == nil {
		return fmt.Errorf("queue item is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	step := opts.Step
	item := opts.Item
	stageCtx := services.WithStage(services.WithItemID(ctx, item.ID), step.Name)
	stageCtx = services.WithLane(stageCtx, string(step.Lane))
	if item.VideoID != "" {
		stageCtx = services.WithVideoID(stageCtx, item.VideoID)
	}
	stageLogger := logging.WithContext(stageCtx, logger)
	if aware, ok := step.Handler.(stage.LoggerAware); ok {
		aware.SetLogger(stageLogger)
	}

	stageLogger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("processing_status", string(step.Processing)),
		logging.String("source_url", strings.TrimSpace(item.SourceURL)),
	)
	started := time.Now()

	SetProcessingState(item, step.Processing)
	if err := opts.Store.Update(stageCtx, item); err != nil {
		return fmt.Errorf("persist processing transition: %w", err)
	}

	if err := step.Handler.Prepare(stageCtx, item); err != nil {
		return handleFailure(stageCtx, stageLogger, opts, time.Since(started), err)
	}
	if err := opts.Store.Update(stageCtx, item); err != nil {
		return fmt.Errorf("persist stage preparation: %w", err)
	}

	if err := step.Handler.Execute(stageCtx, item); err != nil {
		return handleFailure(stageCtx, stageLogger, opts, time.Since(started), err)
	}

	CompleteState(item, step)
	if err := opts.Store.Update(stageCtx, item); err != nil {
		return fmt.Errorf("persist stage result: %w", err)
	}

	elapsed := time.Since(started)
	stageLogger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_status", string(item.Status)),
		logging.String("progress_stage", strings.TrimSpace(item.ProgressStage)),
		logging.String("progress_message", strings.TrimSpace(item.ProgressMessage)),
		logging.Duration("stage_duration", elapsed),
	)
	opts.Observer.StageFinished(stageCtx, step.Name, item, elapsed, nil)
	return nil
}

// PipelineOptions configures RunPipeline.
type PipelineOptions struct {
	Logger   *slog.Logger
	Store    *queue.Store
	Observer *Observer
	Steps    []Step
	Item     *queue.Item
}

// RunPipeline runs every remaining step of a job in order until it completes
// or a step fails.
func RunPipeline(ctx context.Context, opts PipelineOptions) error {
	item := opts.Item
	if item == nil {
		return fmt.Errorf("queue item is required")
	}
	if len(opts.Steps) == 0 {
		return fmt.Errorf("pipeline has no stages")
	}
	for item.Status != queue.StatusCompleted {
		if err := ctx.Err(); err != nil {
			return err
		}
		if item.Status == queue.StatusFailed {
			return fmt.Errorf("job %d failed: %s", item.ID, item.ErrorMessage)
		}
		step, ok := StepFor(opts.Steps, item.Status)
		if !ok {
			return fmt.Errorf("job %d: no stage starts at status %s", item.ID, item.Status)
		}
		if err := Run(ctx, Options{
			Logger:   opts.Logger,
			Store:    opts.Store,
			Observer: opts.Observer,
			Step:     step,
			Item:     item,
		}); err != nil {
			return err
		}
	}
	return nil
}

// FailureMessage derives the message persisted on a failed job.
func FailureMessage(stepName string, stageErr error) string {
	if stageErr == nil {
		return fmt.Sprintf("%s failed without error detail", stepName)
	}
	message := strings.TrimSpace(services.Details(stageErr).Message)
	if message == "" {
		message = strings.TrimSpace(stageErr.Error())
	}
	if message == "" {
		message = fmt.Sprintf("%s failed", stepName)
	}
	return message
}

// FailureAttrs renders the structured fields logged for a stage failure.
func FailureAttrs(stageErr error) []logging.Attr {
	details := services.Details(stageErr)
	attrs := []logging.Attr{
		logging.String("resolved_status", string(queue.StatusFailed)),
		logging.Alert("stage_failure"),
		logging.String(logging.FieldErrorKind, string(details.Kind)),
		logging.String(logging.FieldErrorOperation, details.Operation),
		logging.String(logging.FieldErrorHint, details.Hint),
		logging.String(logging.FieldEventType, "stage_failure"),
	}
	if details.Cause != nil {
		attrs = append(attrs, logging.String(logging.FieldErrorDetail, details.Cause.Error()))
	}
	return append(attrs, logging.Error(stageErr))
}

func handleFailure(ctx context.Context, logger *slog.Logger, opts Options, elapsed time.Duration, stageErr error) error {
	if errors.Is(stageErr, context.Canceled) {
		logger.Debug("stage interrupted")
		return stageErr
	}
	message := FailureMessage(opts.Step.Name, stageErr)
	opts.Item.SetFailed(message, opts.Step.Start)

	attrs := append(FailureAttrs(stageErr), logging.String("error_message", message))
	logger.Error("stage failed", logging.Args(attrs...)...)
	if err := opts.Store.Update(ctx, opts.Item); err != nil {
		logger.Error("failed to persist stage failure", logging.Error(err))
	}
	opts.Observer.StageFinished(ctx, opts.Step.Name, opts.Item, elapsed, stageErr)
	return stageErr
}

// SetProcessingState moves item into its in-flight status with a fresh heartbeat.
func SetProcessingState(item *queue.Item, processing queue.Status) {
	now := time.Now().UTC()
	item.Status = processing
	item.ProgressStage = deriveStageLabel(processing)
	item.ProgressMessage = fmt.Sprintf("%s started", deriveStageLabel(processing))
	item.ProgressPercent = 0
	item.ErrorMessage = ""
	item.LastHeartbeat = &now
}

// CompleteState moves item to the step's done status after a successful Execute.
func CompleteState(item *queue.Item, step Step) {
	if item.Status == step.Processing || item.Status == "" {
		item.Status = step.Done
	}
	item.LastHeartbeat = nil
	if item.Status == queue.StatusCompleted {
		item.ProgressStage = deriveStageLabel(queue.StatusCompleted)
		item.ProgressPercent = 100
		if strings.TrimSpace(item.ProgressMessage) == "" {
			item.ProgressMessage = deriveStageLabel(queue.StatusCompleted)
		}
	}
}

func deriveStageLabel(status queue.Status) string {
	if status == "" {
		return ""
	}
	parts := strings.Fields(strings.ReplaceAll(string(status), "_", " "))
	for i, part := range parts {
		if part == "" {
			continue
		}
		runes := []rune(strings.ToLower(part))
		runes[0] = unicode.ToUpper(runes[0])
		parts[i] = string(runes)
	}
	return strings.Join(parts, " ")
}
