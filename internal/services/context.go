package services

import "context"

type contextKey int

const (
	itemIDKey contextKey = iota
	videoIDKey
	stageKey
	laneKey
	requestIDKey
)

func withText(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func text(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	value, ok := ctx.Value(key).(string)
	return value, ok && value != ""
}

// WithItemID tags ctx with the queue item being processed.
func WithItemID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, itemIDKey, id)
}

// ItemIDFromContext reports the queue item tagged by WithItemID.
func ItemIDFromContext(ctx context.Context) (int64, bool) {
	if ctx == nil {
		return 0, false
	}
	id, ok := ctx.Value(itemIDKey).(int64)
	return id, ok
}

// WithVideoID tags ctx with the YouTube video identifier of the job.
func WithVideoID(ctx context.Context, videoID string) context.Context {
	return withText(ctx, videoIDKey, videoID)
}

func VideoIDFromContext(ctx context.Context) (string, bool) { return text(ctx, videoIDKey) }

// WithStage tags ctx with the pipeline stage name. Blank names leave ctx untouched.
func WithStage(ctx context.Context, stage string) context.Context {
	return withText(ctx, stageKey, stage)
}

func StageFromContext(ctx context.Context) (string, bool) { return text(ctx, stageKey) }

// WithLane tags ctx with the worker lane (fetch or publish).
func WithLane(ctx context.Context, lane string) context.Context {
	return withText(ctx, laneKey, lane)
}

func LaneFromContext(ctx context.Context) (string, bool) { return text(ctx, laneKey) }

// WithRequestID tags ctx with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withText(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) (string, bool) { return text(ctx, requestIDKey) }
