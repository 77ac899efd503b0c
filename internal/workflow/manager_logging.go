package workflow

import (
	"context"
	"log/slog"

	"ytbili/internal/logging"
	"ytbili/internal/queue"
	"ytbili/internal/services"
)

func (m *Manager) laneLogger(lane *laneState) *slog.Logger {
	name := string(lane.kind)
	return logging.NewComponentLogger(m.logger, "workflow-"+name).
		With(logging.String(logging.FieldLane, name))
}

// stageLogger tees the context-enriched logger into the job's own log file.
// The daemon log alone is used when that file cannot be opened.
func (m *Manager) stageLogger(ctx context.Context, base *slog.Logger, item *queue.Item) (*slog.Logger, func()) {
	if base == nil {
		base = m.logger
	}
	logger := logging.WithContext(ctx, base)

	jobLogger, closer, err := m.jobLogs.Open(logger, item)
	if err != nil {
		logger.Warn("job log unavailable",
			logging.Error(err),
			logging.String(logging.FieldEventType, "job_log_unavailable"),
			logging.String(logging.FieldErrorHint, "check work directory permissions"),
			logging.String(logging.FieldImpact, "stage output only reaches the daemon log"),
		)
		return logger, func() {}
	}
	return jobLogger, func() { _ = closer.Close() }
}

// withStageContext tags ctx with everything a stage log line should carry.
func withStageContext(ctx context.Context, lane *laneState, stageName string, item *queue.Item, requestID string) context.Context {
	if item != nil {
		ctx = services.WithVideoID(services.WithItemID(ctx, item.ID), item.VideoID)
	}
	if lane != nil {
		ctx = services.WithLane(ctx, string(lane.kind))
	}
	return services.WithRequestID(services.WithStage(ctx, stageName), requestID)
}
