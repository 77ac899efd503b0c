package transcription

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"

	"ytbili/internal/logging"
	"ytbili/internal/queue"
	"ytbili/internal/services"
	"ytbili/internal/stage"
)

const (
	stageName                = "transcription"
	progressStageTranscribe  = "Transcribing"
	progressStageTranscribed = "Transcribed"
)

// Stage is the workflow stage that produces the original subtitle track.
type Stage struct {
	store   *queue.Store
	service *Service
	logger  *slog.Logger
}

// NewStage constructs the transcription stage.
func NewStage(store *queue.Store, service *Service, logger *slog.Logger) *Stage {
	return &Stage{store: store, service: service, logger: logging.NewComponentLogger(logger, "transcription")}
}

// SetLogger allows the workflow manager to route stage logs into the item-scoped log.
func (s *Stage) SetLogger(logger *slog.Logger) {
	if s == nil {
		return
	}
	s.logger = logging.NewComponentLogger(logger, "transcription")
}

// Prepare verifies the extracted audio is present.
func (s *Stage) Prepare(ctx context.Context, item *queue.Item) error {
	if s == nil || s.service == nil || s.service.provider == nil || s.store == nil {
		return services.Wrap(services.ErrConfiguration, stageName, "prepare", "Transcription stage is not configured", nil)
	}
	if err := stage.RequireFile(stageName, "audio file", item.AudioFile); err != nil {
		return err
	}
	item.InitProgress(progressStageTranscribe, fmt.Sprintf("Running %s", s.service.ProviderName()))
	return s.store.UpdateProgress(ctx, item)
}

// Execute transcribes the audio into original_subtitles.srt.
func (s *Stage) Execute(ctx context.Context, item *queue.Item) error {
	if item == nil {
		return services.Wrap(services.ErrValidation, stageName, "execute", "Queue item is nil", nil)
	}
	dir := item.WorkDir
	if dir == "" {
		dir = filepath.Dir(item.AudioFile)
	}
	s.logger.Info("transcription started",
		logging.String(logging.FieldEventType, "transcription_started"),
		logging.String("provider", s.service.ProviderName()),
		logging.String("audio_file", item.AudioFile),
	)
	result, err := s.service.Transcribe(ctx, item.AudioFile, dir, item.SourceLanguage)
	if err != nil {
		return err
	}
	item.OriginalSubtitles = result.Path
	item.SetProgressComplete(progressStageTranscribed, fmt.Sprintf("Transcribed %d cues", result.Cues))
	s.logger.Info("transcription completed",
		logging.String(logging.FieldEventType, "transcription_completed"),
		logging.String("provider", result.Provider),
		logging.Int("cues", result.Cues),
		logging.String("subtitle_file", result.Path),
	)
	return nil
}

// HealthCheck verifies the provider's executable is installed. The OpenAI
// provider needs only an API key, which config validation already enforces.
func (s *Stage) HealthCheck(context.Context) stage.Health {
	if s == nil || s.service == nil || s.service.provider == nil {
		return stage.Unhealthy(stageName, "stage not configured")
	}
	if tool, ok := s.service.provider.(interface{ Binary() string }); ok {
		if _, err := exec.LookPath(tool.Binary()); err != nil {
			return stage.Unhealthy(stageName, fmt.Sprintf("%s not found in PATH", tool.Binary()))
		}
	}
	return stage.Healthy(stageName)
}
