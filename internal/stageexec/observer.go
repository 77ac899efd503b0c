package stageexec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ytbili/internal/logging"
	"ytbili/internal/metrics"
	"ytbili/internal/notifications"
	"ytbili/internal/queue"
)

// Observer turns stage outcomes into metrics and notifications. A nil
// Observer, or nil fields, disable the corresponding side effect.
type Observer struct {
	Notifier notifications.Service
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// StageFinished records one stage run for item. It must be called after the
// item carries its post-stage status.
func (o *Observer) StageFinished(ctx context.Context, stepName string, item *queue.Item, elapsed time.Duration, stageErr error) {
	if o == nil || item == nil || errors.Is(stageErr, context.Canceled) {
		return
	}
	o.Metrics.ObserveStage(stepName, elapsed, stageErr)

	if stageErr != nil {
		if stepName == StageUpload {
			o.Metrics.ObserveUpload(metrics.UploadFailed)
		}
		o.publish(ctx, notifications.EventError, notifications.Payload{
			"error":   stageErr,
			"context": fmt.Sprintf("%s (job #%d)", stepName, item.ID),
		})
		return
	}

	if stepName == StageUpload {
		if item.UploadSucceeded {
			o.Metrics.ObserveUpload(metrics.UploadSucceeded)
		} else {
			o.Metrics.ObserveUpload(metrics.UploadFailed)
			o.publish(ctx, notifications.EventUploadFailed, notifications.Payload{
				"title": item.DisplayTitle(),
				"error": item.UploadError,
			})
		}
	}

	if item.Status != queue.StatusCompleted {
		return
	}
	if stepName != StageUpload {
		o.Metrics.ObserveUpload(metrics.UploadSkipped)
	}
	o.publish(ctx, notifications.EventJobCompleted, notifications.Payload{
		"title":            item.DisplayTitle(),
		"upload_url":       item.UploadURL,
		"upload_succeeded": item.UploadSucceeded,
	})
}

func (o *Observer) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if o.Notifier == nil {
		return
	}
	if err := o.Notifier.Publish(ctx, event, payload); err != nil {
		logger := o.Logger
		if logger == nil {
			logger = logging.NewNop()
		}
		if errors.Is(err, context.Canceled) {
			logger.Debug("shutting down, notification dropped", logging.String("event", string(event)))
			return
		}
		logger.Debug("notification failed", logging.String("event", string(event)), logging.Error(err))
	}
}
