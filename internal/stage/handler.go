package stage

import (
	"context"
	"log/slog"

	"ytbili/internal/queue"
)

// Handler describes the contract the workflow manager needs from each stage.
type Handler interface {
	Prepare(context.Context, *queue.Item) error
	Execute(context.Context, *queue.Item) error
	HealthCheck(context.Context) Health
}

// LoggerAware is implemented by stages that accept the manager's logger.
type LoggerAware interface {
	SetLogger(*slog.Logger)
}

// ProgressStore persists in-flight progress for a job.
type ProgressStore interface {
	UpdateProgress(context.Context, *queue.Item) error
}
