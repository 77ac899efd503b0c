package transcription

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"ytbili/internal/config"
	langpkg "ytbili/internal/language"
	"ytbili/internal/services"
	"ytbili/internal/services/llm"
	"ytbili/internal/subtitles"
)

// Provider turns an audio file into timed cues.
type Provider interface {
	Name() string
	Transcribe(ctx context.Context, audioPath, outputDir, language string) ([]subtitles.Cue, error)
}

// CommandRunner executes an external command (for testing).
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Result describes a finished transcription.
type Result struct {
	Provider string
	Path     string
	Cues     int
}

// Service runs the configured provider and writes the original subtitle track.
type Service struct {
	provider Provider
	language string
	timeout  time.Duration
}

// NewService wraps provider with the transcription settings.
func NewService(cfg config.Transcription, provider Provider) *Service {
	var timeout time.Duration
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &Service{provider: provider, language: cfg.Language, timeout: timeout}
}

// NewProvider builds the provider selected by transcription.provider.
func NewProvider(cfg *config.Config) (Provider, error) {
	switch cfg.Transcription.Provider {
	case config.TranscriptionWhisper, "":
		return NewWhisper(cfg.Transcription), nil
	case config.TranscriptionWhisperX:
		return NewWhisperX(cfg.Transcription), nil
	case config.TranscriptionOpenAI:
		client := llm.NewClient(llm.Config{
			APIKey:         cfg.OpenAI.APIKey,
			BaseURL:        cfg.OpenAI.BaseURL,
			TimeoutSeconds: cfg.OpenAI.TimeoutSeconds,
		})
		return NewOpenAI(client, cfg.Transcription.Model), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, stageName, "select provider",
			fmt.Sprintf("unsupported transcription provider %q", cfg.Transcription.Provider), nil)
	}
}

// ProviderName reports the active provider.
func (s *Service) ProviderName() string {
	if s == nil || s.provider == nil {
		return ""
	}
	return s.provider.Name()
}

// Transcribe runs the provider against audioPath and writes
// original_subtitles.srt into outputDir. language overrides the configured
// source language when set.
func (s *Service) Transcribe(ctx context.Context, audioPath, outputDir, language string) (Result, error) {
	if strings.TrimSpace(language) == "" {
		language = s.language
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	cues, err := s.provider.Transcribe(ctx, audioPath, outputDir, langpkg.ToISO2(language))
	if err != nil {
		return Result{}, classify(ctx, err, s.provider.Name())
	}
	cues = dropBlank(cues)
	if len(cues) == 0 {
		return Result{}, services.WithHint(
			services.Wrap(services.ErrValidation, stageName, "parse transcript", "transcript is empty", nil),
			"the audio may contain no speech; check the language setting",
		)
	}

	path := filepath.Join(outputDir, subtitles.OriginalFileName)
	if err := subtitles.Save(path, subtitles.Renumber(cues)); err != nil {
		return Result{}, services.Wrap(services.ErrTransient, stageName, "write subtitles", "failed to write original subtitles", err)
	}
	return Result{Provider: s.provider.Name(), Path: path, Cues: len(cues)}, nil
}

func dropBlank(cues []subtitles.Cue) []subtitles.Cue {
	out := cues[:0:0]
	for _, cue := range cues {
		if strings.TrimSpace(cue.Text) == "" {
			continue
		}
		out = append(out, cue)
	}
	return out
}

func classify(ctx context.Context, err error, provider string) error {
	if services.Details(err).Kind != services.KindUnknown {
		return err
	}
	switch {
	case errors.Is(err, exec.ErrNotFound):
		return services.WithHint(
			services.Wrap(services.ErrConfiguration, stageName, "run "+provider, "transcription tool not found", err),
			"install the tool or set transcription.binary",
		)
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return services.WithHint(
			services.Wrap(services.ErrTimeout, stageName, "run "+provider, "transcription timed out", err),
			"raise transcription.timeout_seconds or pick a smaller model",
		)
	case llm.StatusCode(err) == http.StatusUnauthorized || llm.StatusCode(err) == http.StatusForbidden:
		return services.WithHint(
			services.Wrap(services.ErrConfiguration, stageName, "run "+provider, "OpenAI rejected the API key", err),
			"check openai.api_key",
		)
	case errors.Is(err, os.ErrNotExist):
		return services.Wrap(services.ErrNotFound, stageName, "run "+provider, "transcript output missing", err)
	default:
		return services.Wrap(services.ErrExternalTool, stageName, "run "+provider, "transcription failed", err)
	}
}
