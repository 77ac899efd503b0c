package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"ytbili/internal/config"
	"ytbili/internal/fileutil"
	"ytbili/internal/services"
)

// CommandRunner executes a command and returns its standard output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Extractor pulls the audio track out of a downloaded video with ffmpeg.
type Extractor struct {
	ffmpeg   string
	ffprobe  string
	codec    string
	quality  string
	fileName string
	run      CommandRunner
}

// NewExtractor builds an extractor from configuration.
func NewExtractor(cfg config.Audio) *Extractor {
	return &Extractor{
		ffmpeg:   cfg.FFmpegBinary,
		ffprobe:  cfg.FFprobeBinary,
		codec:    cfg.Codec,
		quality:  cfg.Quality,
		fileName: cfg.FileName,
		run:      runCommand,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (e *Extractor) WithCommandRunner(runner CommandRunner) {
	if runner != nil {
		e.run = runner
	}
}

// Binaries returns the executables the extractor needs.
func (e *Extractor) Binaries() []string {
	return []string{e.ffmpeg, e.ffprobe}
}

// Extract writes the audio track of video into dir and returns the output path.
// Videos without an audio stream are rejected before ffmpeg runs.
func (e *Extractor) Extract(ctx context.Context, video, dir string) (string, error) {
	probe, err := Probe(ctx, e.run, e.ffprobe, video)
	if err != nil {
		return "", classify(err, "probe video", "ffprobe could not read the video")
	}
	if probe.AudioStreamCount() == 0 {
		return "", services.WithHint(
			services.Wrap(services.ErrValidation, stageName, "probe video", "video has no audio stream", nil),
			"the source video is silent; nothing can be transcribed",
		)
	}

	output := filepath.Join(dir, e.fileName)
	if _, err := e.run(ctx, e.ffmpeg, e.buildArgs(video, output)...); err != nil {
		// A retry must not mistake a truncated file for a finished extraction.
		_ = fileutil.RemoveIfExists(output)
		return "", classify(err, "run ffmpeg", "audio extraction failed")
	}
	return output, nil
}

func (e *Extractor) buildArgs(video, output string) []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", video,
		"-vn",
		"-acodec", e.codec,
	}
	if e.quality != "" {
		args = append(args, "-q:a", e.quality)
	}
	return append(args, output)
}

func classify(err error, operation, message string) error {
	switch {
	case errors.Is(err, exec.ErrNotFound):
		return services.WithHint(
			services.Wrap(services.ErrConfiguration, stageName, operation, message, err),
			"install ffmpeg or set audio.ffmpeg_binary and audio.ffprobe_binary",
		)
	case errors.Is(err, context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, stageName, operation, message, err)
	default:
		return services.Wrap(services.ErrExternalTool, stageName, operation, message, err)
	}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return output, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return output, nil
}
