package deps

import (
	"ytbili/internal/bilibili"
	"ytbili/internal/config"
)

// PipelineRequirements lists the programs the configured pipeline needs.
func PipelineRequirements(cfg *config.Config) []Requirement {
	requirements := []Requirement{
		{
			Name:        "yt-dlp",
			Command:     cfg.Download.Binary,
			Description: "Required for YouTube downloads",
		},
		{
			Name:        "FFmpeg",
			Command:     cfg.Audio.FFmpegBinary,
			Description: "Required for audio extraction",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Audio.FFprobeBinary,
			Description: "Verifies downloaded videos carry an audio track",
			Optional:    true,
		},
	}
	switch cfg.Transcription.Provider {
	case config.TranscriptionWhisper:
		requirements = append(requirements, Requirement{
			Name:        "Whisper",
			Command:     cfg.TranscriptionBinary(),
			Description: "Required for local transcription",
		})
	case config.TranscriptionWhisperX:
		requirements = append(requirements, Requirement{
			Name:        "uvx",
			Command:     cfg.TranscriptionBinary(),
			Description: "Required for WhisperX-driven transcription",
		})
	}
	return requirements
}

// CheckPipeline reports every binary the configured pipeline needs, including
// the browser used for Bilibili uploads when uploads are enabled.
func CheckPipeline(cfg *config.Config) []Status {
	statuses := CheckBinaries(PipelineRequirements(cfg))
	if cfg.Bilibili.Enabled {
		statuses = append(statuses, CheckChrome(cfg.Bilibili))
	}
	return statuses
}

// CheckChrome reports the browser chromedp will launch for uploads.
func CheckChrome(cfg config.Bilibili) Status {
	status := Status{
		Name:        "Chrome",
		Command:     cfg.ChromePath,
		Description: "Required for Bilibili uploads",
	}
	path, err := bilibili.FindChrome(cfg)
	if err != nil {
		status.Detail = err.Error()
		return status
	}
	status.Command = path
	status.Path = path
	status.Available = true
	return status
}
