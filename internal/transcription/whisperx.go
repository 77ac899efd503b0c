package transcription

import (
	"context"

	"ytbili/internal/config"
	"ytbili/internal/subtitles"
)

// WhisperX tuning passed to every run.
const (
	WhisperXCommand   = "uvx"
	CUDAIndexURL      = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL      = "https://pypi.org/simple"
	BatchSize         = "4"
	ChunkSize         = "15"
	VADOnset          = "0.08"
	VADOffset         = "0.07"
	BeamSize          = "10"
	SegmentResolution = "sentence"
	VADMethod         = "silero"
	CPUDevice         = "cpu"
	CUDADevice        = "cuda"
	CPUComputeType    = "float32"
)

// WhisperX runs whisperx through uvx so no Python environment has to be managed.
type WhisperX struct {
	model string
	cuda  bool
	run   CommandRunner
}

// NewWhisperX builds the whisperx provider.
func NewWhisperX(cfg config.Transcription) *WhisperX {
	return &WhisperX{model: cfg.Model, cuda: cfg.CUDAEnabled, run: runCommand}
}

// WithCommandRunner sets a custom command runner (for testing).
func (w *WhisperX) WithCommandRunner(runner CommandRunner) {
	if runner != nil {
		w.run = runner
	}
}

// Name implements Provider.
func (w *WhisperX) Name() string { return config.TranscriptionWhisperX }

// Binary returns the executable looked up by health checks.
func (w *WhisperX) Binary() string { return WhisperXCommand }

// Transcribe implements Provider.
func (w *WhisperX) Transcribe(ctx context.Context, audioPath, outputDir, language string) ([]subtitles.Cue, error) {
	if err := w.run(ctx, WhisperXCommand, w.buildArgs(audioPath, outputDir, language)...); err != nil {
		return nil, err
	}
	return loadOutput(WhisperXCommand, audioPath, outputDir)
}

func (w *WhisperX) buildArgs(audioPath, outputDir, language string) []string {
	args := make([]string, 0, 32)
	if w.cuda {
		args = append(args, "--index-url", CUDAIndexURL, "--extra-index-url", PypiIndexURL)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}

	args = append(args,
		"whisperx",
		audioPath,
		"--model", w.model,
		"--batch_size", BatchSize,
		"--output_dir", outputDir,
		"--output_format", "srt",
		"--segment_resolution", SegmentResolution,
		"--chunk_size", ChunkSize,
		"--vad_method", VADMethod,
		"--vad_onset", VADOnset,
		"--vad_offset", VADOffset,
		"--beam_size", BeamSize,
	)
	if language != "" {
		args = append(args, "--language", language)
	}
	if w.cuda {
		args = append(args, "--device", CUDADevice)
	} else {
		args = append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
	}
	return args
}
