package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"ytbili/internal/config"
)

func clearSecretEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENAI_API_KEY",
		"OPENAI_BASE_URL",
		"GOOGLE_TRANSLATE_API_KEY",
		"GOOGLE_APPLICATION_CREDENTIALS",
		"YTBILI_API_TOKEN",
		"YTBILI_NTFY_TOPIC",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	clearSecretEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantWork := filepath.Join(tempHome, ".local", "share", "ytbili", "work")
	if cfg.Paths.WorkDir != wantWork {
		t.Fatalf("unexpected work dir: got %q want %q", cfg.Paths.WorkDir, wantWork)
	}
	if cfg.Paths.APIBind != "127.0.0.1:5000" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Transcription.Provider != config.TranscriptionWhisper || cfg.Transcription.Model != "base" {
		t.Fatalf("unexpected transcription defaults: %+v", cfg.Transcription)
	}
	if cfg.Translation.Provider != config.TranslationGoogle || cfg.Translation.TargetLanguage != "zh-CN" {
		t.Fatalf("unexpected translation defaults: %+v", cfg.Translation)
	}
	if cfg.Translation.BatchSize != 10 {
		t.Fatalf("unexpected batch size: %d", cfg.Translation.BatchSize)
	}
	if !cfg.Bilibili.Enabled || cfg.Bilibili.FailOnError {
		t.Fatalf("unexpected bilibili switches: %+v", cfg.Bilibili)
	}
	if cfg.Bilibili.DefaultTitle != "从YouTube转载的视频" {
		t.Fatalf("unexpected default title %q", cfg.Bilibili.DefaultTitle)
	}
	if strings.Join(cfg.Bilibili.DefaultTags, ",") != "转载,双语字幕,YouTube" {
		t.Fatalf("unexpected default tags %v", cfg.Bilibili.DefaultTags)
	}
	if cfg.Audio.FileName != "extracted_audio.mp3" {
		t.Fatalf("unexpected audio file name %q", cfg.Audio.FileName)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.WorkDir, cfg.Paths.LogDir, cfg.Bilibili.ProfileDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
	if got := cfg.JobDir(7); got != filepath.Join(wantWork, "job-7") {
		t.Fatalf("unexpected job dir %q", got)
	}
}

func TestLoadCustomPath(t *testing.T) {
	clearSecretEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "ytbili.toml")

	type payload struct {
		Paths struct {
			WorkDir string `toml:"work_dir"`
		} `toml:"paths"`
		Translation struct {
			TargetLanguage string `toml:"target_language"`
			BatchSize      int    `toml:"batch_size"`
		} `toml:"translation"`
		Workflow struct {
			HeartbeatInterval int `toml:"heartbeat_interval"`
			HeartbeatTimeout  int `toml:"heartbeat_timeout"`
		} `toml:"workflow"`
	}
	custom := payload{}
	custom.Paths.WorkDir = filepath.Join(tempDir, "jobs")
	custom.Translation.TargetLanguage = "ja"
	custom.Translation.BatchSize = 25
	custom.Workflow.HeartbeatInterval = 20
	custom.Workflow.HeartbeatTimeout = 200
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.WorkDir != custom.Paths.WorkDir {
		t.Fatalf("expected work dir from file, got %q", cfg.Paths.WorkDir)
	}
	if cfg.Translation.TargetLanguage != "ja" || cfg.Translation.BatchSize != 25 {
		t.Fatalf("expected translation overrides, got %+v", cfg.Translation)
	}
	if cfg.Workflow.HeartbeatInterval != 20 || cfg.Workflow.HeartbeatTimeout != 200 {
		t.Fatalf("expected heartbeat overrides, got %+v", cfg.Workflow)
	}
}

func TestEnvironmentFillsMissingSecrets(t *testing.T) {
	clearSecretEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "ytbili.toml")
	content := "[translation]\nprovider = \"openai\"\n\n[paths]\napi_token = \"file-token\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("OPENAI_API_KEY", "env-openai")
	t.Setenv("YTBILI_API_TOKEN", "env-token")
	t.Setenv("YTBILI_NTFY_TOPIC", "https://ntfy.example/topic")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.OpenAI.APIKey != "env-openai" {
		t.Fatalf("expected openai key from env, got %q", cfg.OpenAI.APIKey)
	}
	if cfg.Paths.APIToken != "file-token" {
		t.Fatalf("expected file token to win over env, got %q", cfg.Paths.APIToken)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.example/topic" {
		t.Fatalf("expected ntfy topic from env, got %q", cfg.Notifications.NtfyTopic)
	}
}

func TestLoadRejectsOpenAIProviderWithoutKey(t *testing.T) {
	clearSecretEnv(t)
	configPath := filepath.Join(t.TempDir(), "ytbili.toml")
	if err := os.WriteFile(configPath, []byte("[transcription]\nprovider = \"openai\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := config.Load(configPath)
	if err == nil {
		t.Fatal("expected missing key error")
	}
	if !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Fatalf("expected env var hint in error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:   "defaults",
			mutate: func(*config.Config) {},
		},
		{
			name:    "unknown transcription provider",
			mutate:  func(c *config.Config) { c.Transcription.Provider = "vosk" },
			wantErr: "transcription.provider",
		},
		{
			name:    "bad target language",
			mutate:  func(c *config.Config) { c.Translation.TargetLanguage = "not a tag" },
			wantErr: "translation.target_language",
		},
		{
			name:    "batch too large",
			mutate:  func(c *config.Config) { c.Translation.BatchSize = 500 },
			wantErr: "batch_size",
		},
		{
			name: "heartbeat timeout not above interval",
			mutate: func(c *config.Config) {
				c.Workflow.HeartbeatInterval = 30
				c.Workflow.HeartbeatTimeout = 30
			},
			wantErr: "heartbeat_timeout",
		},
		{
			name:    "negative work dir retention",
			mutate:  func(c *config.Config) { c.Workflow.WorkDirRetentionDays = -1 },
			wantErr: "work_dir_retention_days",
		},
		{
			name:    "invalid upload url",
			mutate:  func(c *config.Config) { c.Bilibili.UploadURL = "member.bilibili.com" },
			wantErr: "bilibili.upload_url",
		},
		{
			name: "upload url ignored when disabled",
			mutate: func(c *config.Config) {
				c.Bilibili.Enabled = false
				c.Bilibili.UploadURL = "member.bilibili.com"
			},
		},
		{
			name:    "unknown log level",
			mutate:  func(c *config.Config) { c.Logging.Level = "trace" },
			wantErr: "logging.level",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Paths.WorkDir = t.TempDir()
			cfg.Paths.LogDir = t.TempDir()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestCreateSampleLoads(t *testing.T) {
	clearSecretEnv(t)
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config did not load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Download.Format != config.Default().Download.Format {
		t.Fatalf("sample download format drifted from defaults: %q", cfg.Download.Format)
	}
}
