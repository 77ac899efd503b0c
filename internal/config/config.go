package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	WorkDir  string `toml:"work_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Download contains yt-dlp settings.
type Download struct {
	Binary         string `toml:"binary"`
	Format         string `toml:"format"`
	MergeFormat    string `toml:"merge_output_format"`
	OutputTemplate string `toml:"output_template"`
	CookiesFile    string `toml:"cookies_file"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Audio contains ffmpeg audio extraction settings.
type Audio struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
	Codec         string `toml:"codec"`
	Quality       string `toml:"quality"`
	FileName      string `toml:"file_name"`
}

// Transcription selects and tunes the speech-to-text provider.
type Transcription struct {
	// Provider is one of "whisper", "whisperx" or "openai".
	Provider string `toml:"provider"`
	// Model is the local model name, or the OpenAI audio model for the openai provider.
	Model          string `toml:"model"`
	Language       string `toml:"language"`
	Binary         string `toml:"binary"`
	CUDAEnabled    bool   `toml:"cuda_enabled"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Translation selects and tunes the subtitle translation provider.
type Translation struct {
	// Provider is one of "google" or "openai".
	Provider              string `toml:"provider"`
	TargetLanguage        string `toml:"target_language"`
	SourceLanguage        string `toml:"source_language"`
	BatchSize             int    `toml:"batch_size"`
	GoogleAPIKey          string `toml:"google_api_key"`
	GoogleCredentialsFile string `toml:"google_credentials_file"`
	Model                 string `toml:"model"`
}

// OpenAI contains shared connection settings for OpenAI-compatible APIs.
type OpenAI struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Bilibili contains browser upload configuration.
type Bilibili struct {
	Enabled              bool     `toml:"enabled"`
	UploadURL            string   `toml:"upload_url"`
	LoginURL             string   `toml:"login_url"`
	ProfileDir           string   `toml:"profile_dir"`
	ChromePath           string   `toml:"chrome_path"`
	Headless             bool     `toml:"headless"`
	FailOnError          bool     `toml:"fail_on_error"`
	DefaultTitle         string   `toml:"default_title"`
	DefaultDescription   string   `toml:"default_description"`
	DefaultTags          []string `toml:"default_tags"`
	UploadTimeoutSeconds int      `toml:"upload_timeout_seconds"`
	SubmitTimeoutSeconds int      `toml:"submit_timeout_seconds"`
}

// API contains HTTP API behaviour switches.
type API struct {
	RejectWhenBusy bool     `toml:"reject_when_busy"`
	CORSOrigins    []string `toml:"cors_origins"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Jobs           bool   `toml:"jobs"`
	Queue          bool   `toml:"queue"`
	Errors         bool   `toml:"errors"`
}

// Workflow contains configuration for daemon timing and intervals.
type Workflow struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	HeartbeatInterval  int `toml:"heartbeat_interval"`
	HeartbeatTimeout   int `toml:"heartbeat_timeout"`

	// WorkDirRetentionDays removes job directories of completed or deleted
	// jobs older than this at daemon startup. Zero keeps them.
	WorkDirRetentionDays int `toml:"work_dir_retention_days"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for ytbili.
//
// Configuration sections by subsystem:
//   - Paths: job work directory, logs and API bind address
//   - Download: yt-dlp invocation
//   - Audio: ffmpeg audio extraction
//   - Transcription: whisper, whisperx or OpenAI speech-to-text
//   - Translation: Google Cloud Translation or OpenAI chat translation
//   - OpenAI: shared OpenAI connection settings
//   - Bilibili: browser upload settings and default video metadata
//   - API: HTTP API behaviour
//   - Notifications: ntfy push notification settings
//   - Workflow: daemon polling intervals and heartbeats
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Download      Download      `toml:"download"`
	Audio         Audio         `toml:"audio"`
	Transcription Transcription `toml:"transcription"`
	Translation   Translation   `toml:"translation"`
	OpenAI        OpenAI        `toml:"openai"`
	Bilibili      Bilibili      `toml:"bilibili"`
	API           API           `toml:"api"`
	Notifications Notifications `toml:"notifications"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and environment secrets applied.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.applyEnvironment(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("ytbili.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Bilibili.Enabled && strings.TrimSpace(c.Bilibili.ProfileDir) != "" {
		if err := os.MkdirAll(c.Bilibili.ProfileDir, 0o700); err != nil {
			return fmt.Errorf("create browser profile directory %q: %w", c.Bilibili.ProfileDir, err)
		}
	}
	return nil
}

// JobDir returns the working directory used for a single job's artifacts.
func (c *Config) JobDir(id int64) string {
	return filepath.Join(c.Paths.WorkDir, fmt.Sprintf("job-%d", id))
}

// TranscriptionBinary returns the executable used by the configured transcription provider.
func (c *Config) TranscriptionBinary() string {
	switch c.Transcription.Provider {
	case TranscriptionWhisperX:
		return "uvx"
	case TranscriptionOpenAI:
		return ""
	default:
		return c.Transcription.Binary
	}
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
