package transcription

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"ytbili/internal/config"
	"ytbili/internal/fileutil"
	"ytbili/internal/subtitles"
)

// Whisper runs the openai-whisper command line tool.
type Whisper struct {
	binary string
	model  string
	cuda   bool
	run    CommandRunner
}

// NewWhisper builds the whisper CLI provider.
func NewWhisper(cfg config.Transcription) *Whisper {
	binary := cfg.Binary
	if binary == "" {
		binary = "whisper"
	}
	return &Whisper{binary: binary, model: cfg.Model, cuda: cfg.CUDAEnabled, run: runCommand}
}

// WithCommandRunner sets a custom command runner (for testing).
func (w *Whisper) WithCommandRunner(runner CommandRunner) {
	if runner != nil {
		w.run = runner
	}
}

// Name implements Provider.
func (w *Whisper) Name() string { return config.TranscriptionWhisper }

// Binary returns the executable looked up by health checks.
func (w *Whisper) Binary() string { return w.binary }

// Transcribe implements Provider.
func (w *Whisper) Transcribe(ctx context.Context, audioPath, outputDir, language string) ([]subtitles.Cue, error) {
	if err := w.run(ctx, w.binary, w.buildArgs(audioPath, outputDir, language)...); err != nil {
		return nil, err
	}
	return loadOutput(w.binary, audioPath, outputDir)
}

func (w *Whisper) buildArgs(audioPath, outputDir, language string) []string {
	args := []string{
		audioPath,
		"--model", w.model,
		"--output_format", "srt",
		"--output_dir", outputDir,
		"--verbose", "False",
	}
	if language != "" {
		args = append(args, "--language", language)
	}
	if w.cuda {
		args = append(args, "--device", "cuda")
	}
	return args
}

// loadOutput reads the SRT a whisper-style tool left in outputDir.
func loadOutput(binary, audioPath, outputDir string) ([]subtitles.Cue, error) {
	path := outputPath(audioPath, outputDir)
	if !fileutil.NonEmptyFile(path) {
		return nil, fmt.Errorf("%s wrote no subtitles to %s", binary, path)
	}
	return subtitles.Load(path)
}

// outputPath is where whisper-style tools write <audio basename>.srt.
func outputPath(audioPath, outputDir string) string {
	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	return filepath.Join(outputDir, base+".srt")
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, tail(string(output), 2000))
	}
	return nil
}

func tail(text string, limit int) string {
	text = strings.TrimSpace(text)
	if len(text) <= limit {
		return text
	}
	return "..." + text[len(text)-limit:]
}
