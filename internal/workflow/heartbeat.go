package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ytbili/internal/logging"
	"ytbili/internal/queue"
)

const defaultHeartbeatInterval = 15 * time.Second

// HeartbeatMonitor keeps the heartbeat of running jobs fresh and hands jobs
// whose heartbeat went stale back to their lane.
type HeartbeatMonitor struct {
	store    *queue.Store
	logger   *slog.Logger
	interval time.Duration
	timeout  time.Duration
}

// NewHeartbeatMonitor builds a monitor. A zero timeout disables reclaiming.
func NewHeartbeatMonitor(store *queue.Store, logger *slog.Logger, interval, timeout time.Duration) *HeartbeatMonitor {
	if interval <= 0 {
		interval = defaultHeartbeatInterval
	}
	return &HeartbeatMonitor{
		store:    store,
		logger:   logging.NewComponentLogger(logger, "workflow-heartbeat"),
		interval: interval,
		timeout:  timeout,
	}
}

// ReclaimStaleItems rolls jobs in statuses back to their stage start status
// when their last heartbeat is older than the timeout. This is how a job
// interrupted by a crash or a killed yt-dlp gets picked up again.
func (h *HeartbeatMonitor) ReclaimStaleItems(ctx context.Context, logger *slog.Logger, statuses []queue.Status) error {
	if h.timeout <= 0 || len(statuses) == 0 {
		return nil
	}
	reclaimed, err := h.store.ReclaimStaleProcessing(ctx, time.Now().Add(-h.timeout), statuses...)
	if err != nil || reclaimed == 0 {
		return err
	}
	logger.Info("reclaimed stale jobs",
		logging.Int64("count", reclaimed),
		logging.Duration("heartbeat_timeout", h.timeout),
		logging.String(logging.FieldEventType, "heartbeat_reclaimed"),
	)
	return nil
}

// Beat refreshes the heartbeat of itemID until the returned stop function is
// called. stop waits for the background writer to exit.
func (h *HeartbeatMonitor) Beat(ctx context.Context, itemID int64) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.beat(ctx, itemID)
	}()
	return func() {
		cancel()
		<-done
	}
}

func (h *HeartbeatMonitor) beat(ctx context.Context, itemID int64) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	logger := logging.WithContext(ctx, h.logger)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		err := h.store.UpdateHeartbeat(ctx, itemID)
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled):
			return
		default:
			logging.WarnWithContext(logger, "heartbeat update failed", "heartbeat_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check queue database access"),
				logging.String(logging.FieldImpact, "job may be reclaimed as stale while still running"),
			)
		}
	}
}
