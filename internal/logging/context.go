package logging

import (
	"context"
	"log/slog"

	"ytbili/internal/services"
)

// Structured field keys shared by every component.
const (
	FieldComponent     = "component"
	FieldItemID        = "item_id"
	FieldVideoID       = "video_id"
	FieldStage         = "stage"
	FieldLane          = "lane"
	FieldCorrelationID = "correlation_id"

	// FieldEventType classifies a line for filtering: stage_start, upload_failed and so on.
	FieldEventType = "event_type"
	FieldAlert     = "alert"
	FieldImpact    = "impact"
	FieldErrorHint = "error_hint"

	// Populated from services.ErrorDetails.
	FieldErrorKind      = "error_kind"
	FieldErrorOperation = "error_operation"
	FieldErrorDetail    = "error_detail"
)

var textContextFields = []struct {
	key    string
	lookup func(context.Context) (string, bool)
}{
	{FieldStage, services.StageFromContext},
	{FieldVideoID, services.VideoIDFromContext},
	{FieldLane, services.LaneFromContext},
	{FieldCorrelationID, services.RequestIDFromContext},
}

// ContextFields turns the job identifiers carried by ctx into attributes.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var attrs []slog.Attr
	if id, ok := services.ItemIDFromContext(ctx); ok {
		attrs = append(attrs, slog.Int64(FieldItemID, id))
	}
	for _, f := range textContextFields {
		if v, ok := f.lookup(ctx); ok {
			attrs = append(attrs, slog.String(f.key, v))
		}
	}
	return attrs
}

// WithContext binds ContextFields(ctx) to logger. A nil logger discards.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if attrs := ContextFields(ctx); len(attrs) > 0 {
		return logger.With(Args(attrs...)...)
	}
	return logger
}
