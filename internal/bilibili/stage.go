package bilibili

import (
	"context"
	"errors"
	"log/slog"

	"ytbili/internal/config"
	"ytbili/internal/logging"
	"ytbili/internal/queue"
	"ytbili/internal/services"
	"ytbili/internal/stage"
)

const (
	stageName             = "bilibili"
	progressStageUpload   = "Uploading to Bilibili"
	progressStageComplete = "Completed"
)

// Stage is the workflow stage that submits the video to Bilibili.
type Stage struct {
	store    *queue.Store
	uploader Uploader
	cfg      config.Bilibili
	logger   *slog.Logger
}

// NewStage constructs the upload stage. A nil uploader selects the browser uploader.
func NewStage(cfg config.Bilibili, store *queue.Store, uploader Uploader, logger *slog.Logger) *Stage {
	if uploader == nil {
		uploader = NewBrowserUploader(cfg, logger)
	}
	return &Stage{store: store, uploader: uploader, cfg: cfg, logger: logging.NewComponentLogger(logger, "bilibili")}
}

// SetLogger allows the workflow manager to route stage logs into the item-scoped log.
func (s *Stage) SetLogger(logger *slog.Logger) {
	if s == nil {
		return
	}
	s.logger = logging.NewComponentLogger(logger, "bilibili")
}

// Prepare verifies the video is still on disk and resets the previous upload outcome.
func (s *Stage) Prepare(ctx context.Context, item *queue.Item) error {
	if s == nil || s.uploader == nil || s.store == nil {
		return services.Wrap(services.ErrConfiguration, stageName, "prepare", "Upload stage is not configured", nil)
	}
	if err := stage.RequireFile(stageName, "video file", item.VideoFile); err != nil {
		return err
	}
	item.UploadSucceeded = false
	item.UploadError = ""
	item.UploadURL = ""
	item.InitProgress(progressStageUpload, "Opening the creator page")
	return s.store.UpdateProgress(ctx, item)
}

// Execute uploads the video. Unless bilibili.fail_on_error is set, a failed
// upload is recorded on the job and the job still completes.
func (s *Stage) Execute(ctx context.Context, item *queue.Item) error {
	if item == nil {
		return services.Wrap(services.ErrValidation, stageName, "execute", "Queue item is nil", nil)
	}
	meta := BuildMetadata(item, s.cfg)
	s.logger.Info("bilibili upload started",
		logging.String(logging.FieldEventType, "upload_started"),
		logging.String("title", meta.Title),
		logging.Int("tags", len(meta.Tags)),
		logging.String("video_file", item.VideoFile),
	)

	result, err := s.uploader.Upload(ctx, item.VideoFile, meta)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		wrapped := classify(err)
		if s.cfg.FailOnError {
			return wrapped
		}
		item.UploadSucceeded = false
		item.UploadError = err.Error()
		item.SetProgressComplete(progressStageComplete, "Subtitles ready; Bilibili upload failed")
		details := services.Details(wrapped)
		logging.WarnWithContext(s.logger, "bilibili upload failed; job completes without upload", "upload_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorKind, string(details.Kind)),
			logging.String(logging.FieldErrorHint, "run 'ytbili bilibili login' if the session expired, then retry the job"),
			logging.String(logging.FieldImpact, "video was not published"),
		)
		return nil
	}

	item.UploadSucceeded = true
	item.UploadURL = result.URL
	item.SetProgressComplete(progressStageComplete, "Uploaded to Bilibili")
	s.logger.Info("bilibili upload completed",
		logging.String(logging.FieldEventType, "upload_completed"),
		logging.String("location", result.URL),
	)
	return nil
}

// HealthCheck verifies a Chrome executable is available.
func (s *Stage) HealthCheck(context.Context) stage.Health {
	if s == nil || s.uploader == nil {
		return stage.Unhealthy(stageName, "stage not configured")
	}
	if _, ok := s.uploader.(*BrowserUploader); ok {
		if _, err := FindChrome(s.cfg); err != nil {
			return stage.Unhealthy(stageName, err.Error())
		}
	}
	return stage.Healthy(stageName)
}

func classify(err error) error {
	var stepErr *StepError
	operation := "upload"
	if errors.As(err, &stepErr) {
		operation = stepErr.Step
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return services.WithHint(
			services.Wrap(services.ErrTimeout, stageName, operation, "browser step timed out", err),
			"the login session may have expired; run 'ytbili bilibili login'",
		)
	}
	return services.Wrap(services.ErrExternalTool, stageName, operation, "browser upload failed", err)
}
