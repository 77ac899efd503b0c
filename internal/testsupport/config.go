package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"ytbili/internal/config"
)

// ConfigOption adjusts the config built by NewConfig.
type ConfigOption func(t testing.TB, root string, cfg *config.Config)

// NewConfig returns a default config whose work, log and browser profile
// directories live under a fresh temp dir. The API binds an ephemeral port,
// log pruning is off and Bilibili uploads stay disabled unless WithBilibili
// is passed.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkDir = filepath.Join(root, "work")
	cfg.Paths.LogDir = filepath.Join(root, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Logging.RetentionDays = 0
	cfg.Bilibili.Enabled = false
	cfg.Bilibili.ProfileDir = filepath.Join(root, "chrome-profile")

	for _, opt := range opts {
		opt(t, root, &cfg)
	}
	return &cfg
}

// BaseDir is the temp root NewConfig placed the config's directories under.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkDir)
}

func WithBilibili() ConfigOption {
	return func(_ testing.TB, _ string, cfg *config.Config) {
		cfg.Bilibili.Enabled = true
	}
}

func WithOpenAIKey(key string) ConfigOption {
	return func(_ testing.TB, _ string, cfg *config.Config) {
		cfg.OpenAI.APIKey = key
	}
}

// WithAPIToken turns on bearer authentication for the HTTP API.
func WithAPIToken(token string) ConfigOption {
	return func(_ testing.TB, _ string, cfg *config.Config) {
		cfg.Paths.APIToken = token
	}
}

// WithStubbedBinaries puts no-op executables named after names at the front
// of PATH for the rest of the test. Without names it stubs yt-dlp, ffmpeg
// and whisper.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(t testing.TB, root string, _ *config.Config) {
		if len(names) == 0 {
			names = []string{"yt-dlp", "ffmpeg", "whisper"}
		}
		bin := filepath.Join(root, "bin")
		if err := os.MkdirAll(bin, 0o755); err != nil {
			t.Fatalf("create stub dir: %v", err)
		}
		for _, name := range names {
			if err := os.WriteFile(filepath.Join(bin, name), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
				t.Fatalf("stub %s: %v", name, err)
			}
		}
		t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}
