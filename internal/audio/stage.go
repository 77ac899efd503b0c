package audio

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
	stageName              = "audio"
	progressStageExtract   = "Extracting audio"
	progressStageExtracted = "Audio extracted"
)

// Stage is the workflow stage that extracts the audio track for transcription.
type Stage struct {
	store     *queue.Store
	extractor *Extractor
	logger    *slog.Logger
}

// NewStage constructs the audio extraction stage.
func NewStage(store *queue.Store, extractor *Extractor, logger *slog.Logger) *Stage {
	return &Stage{store: store, extractor: extractor, logger: logging.NewComponentLogger(logger, "audio-extract")}
}

// SetLogger allows the workflow manager to route stage logs into the item-scoped log.
func (s *Stage) SetLogger(logger *slog.Logger) {
	if s == nil {
		return
	}
	s.logger = logging.NewComponentLogger(logger, "audio-extract")
}

// Prepare verifies the downloaded video is present.
func (s *Stage) Prepare(ctx context.Context, item *queue.Item) error {
	if s == nil || s.extractor == nil || s.store == nil {
		return services.Wrap(services.ErrConfiguration, stageName, "prepare", "Audio stage is not configured", nil)
	}
	if err := stage.RequireFile(stageName, "video file", item.VideoFile); err != nil {
		return err
	}
	item.InitProgress(progressStageExtract, "Running ffmpeg")
	return s.store.UpdateProgress(ctx, item)
}

// Execute extracts the audio track into the job directory.
func (s *Stage) Execute(ctx context.Context, item *queue.Item) error {
	if item == nil {
		return services.Wrap(services.ErrValidation, stageName, "execute", "Queue item is nil", nil)
	}
	dir := item.WorkDir
	if dir == "" {
		dir = filepath.Dir(item.VideoFile)
	}
	output, err := s.extractor.Extract(ctx, item.VideoFile, dir)
	if err != nil {
		return err
	}
	if err := stage.RequireFile(stageName, "audio file", output); err != nil {
		return err
	}
	item.AudioFile = output
	item.SetProgressComplete(progressStageExtracted, "Audio extracted")
	s.logger.Info("audio extracted",
		logging.String(logging.FieldEventType, "audio_extracted"),
		logging.String("audio_file", output),
	)
	return nil
}

// HealthCheck verifies ffmpeg and ffprobe are installed.
func (s *Stage) HealthCheck(context.Context) stage.Health {
	if s == nil || s.extractor == nil {
		return stage.Unhealthy(stageName, "stage not configured")
	}
	for _, binary := range s.extractor.Binaries() {
		if _, err := exec.LookPath(binary); err != nil {
			return stage.Unhealthy(stageName, fmt.Sprintf("%s not found in PATH", binary))
		}
	}
	return stage.Healthy(stageName)
}
