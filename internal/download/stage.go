package download

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"ytbili/internal/config"
	"ytbili/internal/logging"
	"ytbili/internal/queue"
	"ytbili/internal/services"
	"ytbili/internal/stage"
)

const (
	stageName               = "download"
	progressStageDownload   = "Downloading"
	progressStageDownloaded = "Downloaded"
)

// Downloader is the workflow stage that fetches the source video.
type Downloader struct {
	cfg    *config.Config
	store  *queue.Store
	client *Client
	logger *slog.Logger
}

// NewDownloader constructs the download stage.
func NewDownloader(cfg *config.Config, store *queue.Store, client *Client, logger *slog.Logger) *Downloader {
	if client == nil && cfg != nil {
		client = NewClient(cfg.Download)
	}
	return &Downloader{cfg: cfg, store: store, client: client, logger: logging.NewComponentLogger(logger, "downloader")}
}

// SetLogger allows the workflow manager to route stage logs into the item-scoped log.
func (d *Downloader) SetLogger(logger *slog.Logger) {
	if d == nil {
		return
	}
	d.logger = logging.NewComponentLogger(logger, "downloader")
}

// Prepare assigns the job directory and resets progress.
func (d *Downloader) Prepare(ctx context.Context, item *queue.Item) error {
	if d == nil || d.client == nil || d.cfg == nil {
		return services.Wrap(services.ErrConfiguration, stageName, "prepare", "Download stage is not configured", nil)
	}
	if d.store == nil {
		return services.Wrap(services.ErrConfiguration, stageName, "prepare", "Queue store unavailable", nil)
	}
	if strings.TrimSpace(item.WorkDir) == "" {
		item.WorkDir = d.cfg.JobDir(item.ID)
	}
	if err := stage.EnsureDir(stageName, item.WorkDir); err != nil {
		return err
	}
	item.InitProgress(progressStageDownload, "Starting yt-dlp")
	return d.store.UpdateProgress(ctx, item)
}

// Execute runs yt-dlp and records the video file and its title on the job.
func (d *Downloader) Execute(ctx context.Context, item *queue.Item) error {
	if item == nil {
		return services.Wrap(services.ErrValidation, stageName, "execute", "Queue item is nil", nil)
	}
	sourceURL, videoID, err := NormalizeURL(item.SourceURL)
	if err != nil {
		return err
	}
	if item.VideoID == "" {
		item.VideoID = videoID
	}

	sampler := logging.NewProgressSampler(10)
	d.logger.Info("download started",
		logging.String(logging.FieldEventType, "download_started"),
		logging.String("url", sourceURL),
		logging.String("work_dir", item.WorkDir),
	)
	result, err := d.client.Download(ctx, sourceURL, item.WorkDir, func(percent float64) {
		if sampler.Sample(progressStageDownload, percent) {
			d.logger.Info("download progress", logging.Float64("percent", percent))
			stage.ReportProgress(ctx, d.store, d.logger, item, progressStageDownload, fmt.Sprintf("%.1f%% downloaded", percent), percent)
		}
	})
	if err != nil {
		return err
	}
	if err := stage.RequireFile(stageName, "video file", result.Path); err != nil {
		return err
	}

	item.VideoFile = result.Path
	item.SourceTitle = strings.TrimSpace(result.Title)
	item.SetProgressComplete(progressStageDownloaded, "Video downloaded")
	d.logger.Info("download completed",
		logging.String(logging.FieldEventType, "download_completed"),
		logging.String("video_file", result.Path),
		logging.String("source_title", item.SourceTitle),
	)
	return nil
}

// HealthCheck verifies yt-dlp is installed.
func (d *Downloader) HealthCheck(context.Context) stage.Health {
	if d == nil || d.client == nil {
		return stage.Unhealthy(stageName, "stage not configured")
	}
	if _, err := exec.LookPath(d.client.Binary()); err != nil {
		return stage.Unhealthy(stageName, fmt.Sprintf("%s not found in PATH", d.client.Binary()))
	}
	return stage.Healthy(stageName)
}
