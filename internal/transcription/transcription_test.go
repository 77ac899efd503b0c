package transcription

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"ytbili/internal/config"
	"ytbili/internal/logging"
	"ytbili/internal/services"
	"ytbili/internal/services/llm"
	"ytbili/internal/subtitles"
	"ytbili/internal/testsupport"
)

const scrambledSRT = `7
00:00:01,000 --> 00:00:02,000
First line

9
00:00:02,500 --> 00:00:03,000


12
00:00:03,500 --> 00:00:05,000
Second line
`

// srtWriter simulates whisper-style tools by writing <audio>.srt into --output_dir.
type srtWriter struct {
	content string
	err     error
	calls   [][]string
}

func (s *srtWriter) run(_ context.Context, name string, args ...string) error {
	s.calls = append(s.calls, append([]string{name}, args...))
	if s.err != nil {
		return s.err
	}
	idx := slices.Index(args, "--output_dir")
	audio := args[0]
	if name == WhisperXCommand {
		audio = args[slices.Index(args, "whisperx")+1]
	}
	return os.WriteFile(outputPath(audio, args[idx+1]), []byte(s.content), 0o644)
}

func TestWhisperBuildArgs(t *testing.T) {
	cfg := config.Default().Transcription
	cfg.CUDAEnabled = true
	args := NewWhisper(cfg).buildArgs("/job/extracted_audio.mp3", "/job", "en")
	want := []string{"/job/extracted_audio.mp3", "--model", "base", "--output_format", "srt",
		"--output_dir", "/job", "--verbose", "False", "--language", "en", "--device", "cuda"}
	if !slices.Equal(args, want) {
		t.Fatalf("unexpected args\n got %v\nwant %v", args, want)
	}
}

func TestWhisperXBuildArgs(t *testing.T) {
	cfg := config.Default().Transcription
	cfg.Model = "large-v3"
	args := NewWhisperX(cfg).buildArgs("/job/a.mp3", "/job", "")
	if args[0] != "--index-url" || args[1] != PypiIndexURL || args[2] != "whisperx" {
		t.Fatalf("unexpected uvx prefix %v", args[:3])
	}
	joined := strings.Join(args, " ")
	for _, fragment := range []string{"--model large-v3", "--output_format srt", "--device cpu --compute_type float32"} {
		if !strings.Contains(joined, fragment) {
			t.Fatalf("expected %q in %s", fragment, joined)
		}
	}
	if strings.Contains(joined, "--language") {
		t.Fatalf("did not expect language flag: %s", joined)
	}
}

func TestServiceRenumbersAndDropsBlankCues(t *testing.T) {
	dir := t.TempDir()
	writer := &srtWriter{content: scrambledSRT}
	provider := NewWhisper(config.Default().Transcription)
	provider.WithCommandRunner(writer.run)
	service := NewService(config.Transcription{Language: "English"}, provider)

	result, err := service.Transcribe(context.Background(), filepath.Join(dir, "extracted_audio.mp3"), dir, "")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if result.Path != filepath.Join(dir, subtitles.OriginalFileName) || result.Cues != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	if got := writer.calls[0]; !slices.Contains(got, "en") {
		t.Fatalf("expected configured language to be passed as iso code, got %v", got)
	}
	cues, err := subtitles.Load(result.Path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cues) != 2 || cues[0].Index != 1 || cues[1].Index != 2 || cues[1].Text != "Second line" {
		t.Fatalf("unexpected cues %+v", cues)
	}
	if cues[1].Start != 3500*time.Millisecond {
		t.Fatalf("expected timing to survive, got %v", cues[1].Start)
	}
}

func TestServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		writer *srtWriter
		marker error
	}{
		{"empty transcript", &srtWriter{content: "1\n00:00:00,000 --> 00:00:01,000\n \n"}, services.ErrValidation},
		{"tool missing", &srtWriter{err: exec.ErrNotFound}, services.ErrConfiguration},
		{"tool failure", &srtWriter{err: errors.New("exit status 1")}, services.ErrExternalTool},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			provider := NewWhisper(config.Default().Transcription)
			provider.WithCommandRunner(tc.writer.run)
			_, err := NewService(config.Transcription{}, provider).Transcribe(context.Background(), filepath.Join(dir, "a.mp3"), dir, "")
			if !errors.Is(err, tc.marker) {
				t.Fatalf("expected %v, got %v", tc.marker, err)
			}
		})
	}
}

func TestOpenAIProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(scrambledSRT))
	}))
	defer server.Close()

	dir := t.TempDir()
	audio := filepath.Join(dir, "a.mp3")
	testsupport.WriteFile(t, audio, 64)
	client := llm.NewClient(llm.Config{APIKey: "test", BaseURL: server.URL + "/v1"})
	service := NewService(config.Transcription{}, NewOpenAI(client, "whisper-1"))

	result, err := service.Transcribe(context.Background(), audio, dir, "")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if result.Provider != config.TranscriptionOpenAI || result.Cues != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestNewProviderSelectsConfiguredTool(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithOpenAIKey("k"))
	for provider, want := range map[string]string{
		config.TranscriptionWhisper:  "whisper",
		config.TranscriptionWhisperX: "whisperx",
		config.TranscriptionOpenAI:   "openai",
	} {
		cfg.Transcription.Provider = provider
		p, err := NewProvider(cfg)
		if err != nil {
			t.Fatalf("NewProvider(%s): %v", provider, err)
		}
		if p.Name() != want {
			t.Fatalf("provider %s: got %s", provider, p.Name())
		}
	}
	cfg.Transcription.Provider = "vosk"
	if _, err := NewProvider(cfg); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestStageWritesOriginalSubtitles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewJob(t, store, "dQw4w9WgXcQ")
	item.WorkDir = cfg.JobDir(item.ID)
	item.AudioFile = filepath.Join(item.WorkDir, cfg.Audio.FileName)
	testsupport.WriteFile(t, item.AudioFile, 256)

	provider := NewWhisper(cfg.Transcription)
	provider.WithCommandRunner((&srtWriter{content: testsupport.SampleSRT}).run)
	stg := NewStage(store, NewService(cfg.Transcription, provider), logging.NewNop())

	ctx := context.Background()
	if err := stg.Prepare(ctx, item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := stg.Execute(ctx, item); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if item.OriginalSubtitles != filepath.Join(item.WorkDir, subtitles.OriginalFileName) {
		t.Fatalf("unexpected subtitle path %q", item.OriginalSubtitles)
	}
	if item.ProgressPercent != 100 {
		t.Fatalf("expected completed progress, got %v", item.ProgressPercent)
	}
}

func TestStagePrepareRequiresAudio(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewJob(t, store, "dQw4w9WgXcQ")
	stg := NewStage(store, NewService(cfg.Transcription, NewWhisper(cfg.Transcription)), nil)
	if err := stg.Prepare(context.Background(), item); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStageHealthCheckLooksUpBinary(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("whisper"))
	stg := NewStage(nil, NewService(cfg.Transcription, NewWhisper(cfg.Transcription)), nil)
	if health := stg.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("expected healthy stage, got %+v", health)
	}
	cfg.Transcription.Binary = "definitely-not-installed-whisper"
	stg = NewStage(nil, NewService(cfg.Transcription, NewWhisper(cfg.Transcription)), nil)
	if health := stg.HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected unhealthy stage when binary is missing")
	}
}
