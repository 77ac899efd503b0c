package workflow

import (
	"context"
	"errors"
	"time"

	"ytbili/internal/logging"
	"ytbili/internal/notifications"
	"ytbili/internal/queue"
)

// onItemStarted announces a new batch the first time a job starts after the
// queue was drained.
func (m *Manager) onItemStarted(ctx context.Context) {
	stats, ok := m.batchStats(ctx, "start notification will not be sent")
	if !ok {
		return
	}
	m.mu.Lock()
	fresh := m.batchStart.IsZero()
	if fresh {
		m.batchStart = time.Now()
	}
	m.mu.Unlock()

	if fresh {
		m.publish(ctx, notifications.EventQueueStarted, notifications.Payload{"count": activeJobs(stats)})
	}
}

// checkQueueCompletion closes the batch once no job is left to work on.
func (m *Manager) checkQueueCompletion(ctx context.Context) {
	stats, ok := m.batchStats(ctx, "completion notification will not be sent")
	if !ok || activeJobs(stats) > 0 {
		return
	}
	m.mu.Lock()
	start := m.batchStart
	m.batchStart = time.Time{}
	m.mu.Unlock()
	if start.IsZero() {
		return
	}

	m.publish(ctx, notifications.EventQueueCompleted, notifications.Payload{
		"processed": stats[queue.StatusCompleted],
		"failed":    stats[queue.StatusFailed],
		"duration":  time.Since(start),
	})
}

func (m *Manager) batchStats(ctx context.Context, impact string) (map[queue.Status]int, bool) {
	stats, err := m.store.Stats(ctx)
	switch {
	case err == nil:
		return stats, true
	case errors.Is(err, context.Canceled):
		m.logger.Debug("queue stats skipped during shutdown")
	default:
		m.logger.Warn("queue stats unavailable; notification skipped",
			logging.Error(err),
			logging.String(logging.FieldEventType, "queue_stats_failed"),
			logging.String(logging.FieldErrorHint, "check queue database access"),
			logging.String(logging.FieldImpact, impact),
		)
	}
	return nil, false
}

func (m *Manager) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if m.notifier == nil {
		return
	}
	err := m.notifier.Publish(ctx, event, payload)
	if err == nil {
		return
	}
	msg := "notification failed"
	if errors.Is(err, context.Canceled) {
		msg = "notification dropped during shutdown"
	}
	m.logger.Debug(msg, logging.String("event", string(event)), logging.Error(err))
}

// activeJobs counts jobs that are neither completed nor failed.
func activeJobs(stats map[queue.Status]int) int {
	n := 0
	for status, count := range stats {
		if status != queue.StatusCompleted && status != queue.StatusFailed {
			n += count
		}
	}
	return n
}
