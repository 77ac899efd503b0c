package subtitles

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"ytbili/internal/logging"
	"ytbili/internal/queue"
	"ytbili/internal/services"
	"ytbili/internal/stage"
)

const (
	stageName           = "subtitles"
	progressStageMerge  = "Merging"
	progressStageMerged = "Merged"
)

// Merger combines the original and translated subtitles of a job into the
// bilingual SRT artifact.
type Merger struct {
	store  *queue.Store
	logger *slog.Logger
}

// NewMerger constructs the bilingual merge stage.
func NewMerger(store *queue.Store, logger *slog.Logger) *Merger {
	return &Merger{store: store, logger: logging.NewComponentLogger(logger, "subtitle-merge")}
}

// SetLogger allows the workflow manager to route stage logs into the item-scoped log.
func (m *Merger) SetLogger(logger *slog.Logger) {
	if m == nil {
		return
	}
	m.logger = logging.NewComponentLogger(logger, "subtitle-merge")
}

// Prepare checks that both input subtitle files exist.
func (m *Merger) Prepare(ctx context.Context, item *queue.Item) error {
	if m == nil || m.store == nil {
		return services.Wrap(services.ErrConfiguration, stageName, "prepare", "Queue store unavailable", nil)
	}
	if err := stage.RequireFile(stageName, "original subtitles", item.OriginalSubtitles); err != nil {
		return err
	}
	if err := stage.RequireFile(stageName, "translated subtitles", item.TranslatedSubtitles); err != nil {
		return err
	}
	item.InitProgress(progressStageMerge, "Merging bilingual subtitles")
	return m.store.UpdateProgress(ctx, item)
}

// Execute writes bilingual_subtitles.srt next to the other job artifacts.
func (m *Merger) Execute(ctx context.Context, item *queue.Item) error {
	if item == nil {
		return services.Wrap(services.ErrValidation, stageName, "execute", "Queue item is nil", nil)
	}
	original, err := Load(item.OriginalSubtitles)
	if err != nil {
		return services.Wrap(services.ErrValidation, stageName, "load original", "Original subtitles are unreadable", err)
	}
	translated, err := Load(item.TranslatedSubtitles)
	if err != nil {
		return services.Wrap(services.ErrValidation, stageName, "load translation", "Translated subtitles are unreadable", err)
	}
	merged, err := MergeBilingual(original, translated)
	if err != nil {
		return services.WithHint(
			services.Wrap(services.ErrValidation, stageName, "merge", "Subtitle tracks do not line up", err),
			"retry the job from the translation step",
		)
	}
	if issues := ValidateCues(merged); len(issues) > 0 {
		m.logger.Warn("bilingual subtitles have format issues",
			logging.String("issues", strings.Join(issues, ", ")),
			logging.String(logging.FieldEventType, "subtitle_validation_issues"),
			logging.String(logging.FieldErrorHint, "inspect the bilingual SRT before publishing"),
			logging.String(logging.FieldImpact, "players may display some cues incorrectly"),
		)
	}

	dir := item.WorkDir
	if dir == "" {
		dir = filepath.Dir(item.OriginalSubtitles)
	}
	output := filepath.Join(dir, BilingualFileName)
	if err := Save(output, merged); err != nil {
		return services.Wrap(services.ErrTransient, stageName, "write", "Failed to write bilingual subtitles", err)
	}
	item.BilingualSubtitles = output
	item.SetProgressComplete(progressStageMerged, fmt.Sprintf("Merged %d cues", len(merged)))
	m.logger.Info("bilingual subtitles written",
		logging.String(logging.FieldEventType, "subtitles_merged"),
		logging.String("path", output),
		logging.Int("cues", len(merged)),
	)
	return nil
}

// HealthCheck reports readiness; merging has no external dependencies.
func (m *Merger) HealthCheck(context.Context) stage.Health {
	if m == nil || m.store == nil {
		return stage.Unhealthy(stageName, "queue store unavailable")
	}
	return stage.Healthy(stageName)
}
