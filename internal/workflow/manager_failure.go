package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ytbili/internal/logging"
	"ytbili/internal/queue"
	"ytbili/internal/stageexec"
)

// handleStageFailure marks the job failed with the step's start status as the
// resume point, persists it and reports the failure.
func (m *Manager) handleStageFailure(ctx context.Context, logger *slog.Logger, step stageexec.Step, item *queue.Item, elapsed time.Duration, stageErr error) {
	message := stageexec.FailureMessage(step.Name, stageErr)
	item.SetFailed(message, step.Start)

	attrs := append(stageexec.FailureAttrs(stageErr),
		logging.String("error_message", message),
		logging.String("resume_status", string(step.Start)),
	)
	logger.Error("stage failed", logging.Args(attrs...)...)

	if err := m.store.Update(ctx, item); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("daemon shutting down, could not persist stage failure")
		} else {
			logger.Error("failed to persist stage failure", logging.Error(err))
		}
	}

	m.setLastError(stageErr)
	m.setLastItem(item)
	m.observer.StageFinished(ctx, step.Name, item, elapsed, stageErr)
	m.checkQueueCompletion(ctx)
}
