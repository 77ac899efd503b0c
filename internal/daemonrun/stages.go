package daemonrun

import (
	"context"
	"fmt"
	"log/slog"

	"ytbili/internal/audio"
	"ytbili/internal/bilibili"
	"ytbili/internal/config"
	"ytbili/internal/download"
	"ytbili/internal/logging"
	"ytbili/internal/queue"
	"ytbili/internal/stageexec"
	"ytbili/internal/subtitles"
	"ytbili/internal/transcription"
	"ytbili/internal/translation"
)

// BuildStages constructs the production pipeline for cfg. The upload stage is
// only included when bilibili.enabled is set. The returned cleanup releases
// provider clients and must be called once the stages are no longer used.
func BuildStages(ctx context.Context, cfg *config.Config, store *queue.Store, logger *slog.Logger) (stageexec.StageSet, func(), error) {
	provider, err := transcription.NewProvider(cfg)
	if err != nil {
		return stageexec.StageSet{}, nil, fmt.Errorf("transcription provider: %w", err)
	}
	translator, err := translation.NewTranslator(ctx, cfg)
	if err != nil {
		return stageexec.StageSet{}, nil, fmt.Errorf("translation provider: %w", err)
	}
	translationStage := translation.NewStage(store, translation.NewService(cfg.Translation, translator), logger)

	set := stageexec.StageSet{
		Downloader:     download.NewDownloader(cfg, store, download.NewClient(cfg.Download), logger),
		AudioExtractor: audio.NewStage(store, audio.NewExtractor(cfg.Audio), logger),
		Transcriber:    transcription.NewStage(store, transcription.NewService(cfg.Transcription, provider), logger),
		Translator:     translationStage,
		Merger:         subtitles.NewMerger(store, logger),
	}
	if cfg.Bilibili.Enabled {
		set.Uploader = bilibili.NewStage(cfg.Bilibili, store, nil, logger)
	}
	cleanup := func() {
		if err := translationStage.Close(); err != nil {
			logger.Warn("close translation client", logging.Error(err))
		}
	}
	return set, cleanup, nil
}
