package translation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"google.golang.org/api/googleapi"

	"ytbili/internal/logging"
	"ytbili/internal/queue"
	"ytbili/internal/services"
	"ytbili/internal/services/llm"
	"ytbili/internal/stage"
	"ytbili/internal/subtitles"
)

const (
	stageName               = "translation"
	progressStageTranslate  = "Translating"
	progressStageTranslated = "Translated"
)

// Stage is the workflow stage that produces the translated subtitle track.
type Stage struct {
	store   *queue.Store
	service *Service
	logger  *slog.Logger
}

// NewStage constructs the translation stage.
func NewStage(store *queue.Store, service *Service, logger *slog.Logger) *Stage {
	return &Stage{store: store, service: service, logger: logging.NewComponentLogger(logger, "translation")}
}

// SetLogger allows the workflow manager to route stage logs into the item-scoped log.
func (s *Stage) SetLogger(logger *slog.Logger) {
	if s == nil {
		return
	}
	s.logger = logging.NewComponentLogger(logger, "translation")
}

// Prepare verifies the original subtitles are present.
func (s *Stage) Prepare(ctx context.Context, item *queue.Item) error {
	if s == nil || s.service == nil || s.service.translator == nil || s.store == nil {
		return services.Wrap(services.ErrConfiguration, stageName, "prepare", "Translation stage is not configured", nil)
	}
	if err := stage.RequireFile(stageName, "original subtitles", item.OriginalSubtitles); err != nil {
		return err
	}
	item.InitProgress(progressStageTranslate, fmt.Sprintf("Translating to %s", s.service.Target()))
	return s.store.UpdateProgress(ctx, item)
}

// Execute translates every cue and writes translated_subtitles.srt.
func (s *Stage) Execute(ctx context.Context, item *queue.Item) error {
	if item == nil {
		return services.Wrap(services.ErrValidation, stageName, "execute", "Queue item is nil", nil)
	}
	cues, err := subtitles.Load(item.OriginalSubtitles)
	if err != nil {
		return services.Wrap(services.ErrValidation, stageName, "load subtitles", "original subtitles are unreadable", err)
	}
	if len(cues) == 0 {
		return services.Wrap(services.ErrValidation, stageName, "load subtitles", "original subtitles contain no cues", nil)
	}

	translated, err := s.service.TranslateCues(ctx, cues, item.SourceLanguage, item.TargetLanguage, func(done, total int) {
		percent := float64(done) / float64(total) * 100
		stage.ReportProgress(ctx, s.store, s.logger, item, progressStageTranslate,
			fmt.Sprintf("Batch %d/%d", done, total), percent)
		s.logger.Debug("translation batch completed",
			logging.Int("batch", done),
			logging.Int("batches", total),
		)
	})
	if err != nil {
		return err
	}

	dir := item.WorkDir
	if dir == "" {
		dir = filepath.Dir(item.OriginalSubtitles)
	}
	path := filepath.Join(dir, subtitles.TranslatedFileName)
	if err := subtitles.Save(path, translated); err != nil {
		return services.Wrap(services.ErrTransient, stageName, "write subtitles", "failed to write translated subtitles", err)
	}
	item.TranslatedSubtitles = path
	item.SetProgressComplete(progressStageTranslated, fmt.Sprintf("Translated %d cues", len(translated)))
	s.logger.Info("translation completed",
		logging.String(logging.FieldEventType, "translation_completed"),
		logging.String("provider", s.service.ProviderName()),
		logging.String("target_language", s.service.Target()),
		logging.Int("cues", len(translated)),
		logging.String("subtitle_file", path),
	)
	return nil
}

// HealthCheck reports whether a translator is configured.
func (s *Stage) HealthCheck(context.Context) stage.Health {
	if s == nil || s.service == nil || s.service.translator == nil {
		return stage.Unhealthy(stageName, "stage not configured")
	}
	return stage.Healthy(stageName)
}

// Close releases the translator's client when it holds one.
func (s *Stage) Close() error {
	if s == nil || s.service == nil {
		return nil
	}
	if closer, ok := s.service.translator.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func classify(err error, provider string, batch, total int) error {
	op := fmt.Sprintf("translate batch %d/%d", batch, total)
	message := provider + " translation failed"
	switch status := statusOf(err); {
	case errors.Is(err, context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, stageName, op, message, err)
	case errors.Is(err, context.Canceled):
		return err
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return services.WithHint(
			services.Wrap(services.ErrConfiguration, stageName, op, message, err),
			"check the translation credentials",
		)
	case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
		return services.Wrap(services.ErrTransient, stageName, op, message, err)
	default:
		return services.Wrap(services.ErrExternalTool, stageName, op, message, err)
	}
}

func statusOf(err error) int {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return llm.StatusCode(err)
}
