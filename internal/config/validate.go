package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateBilibili(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.WorkDir == "" {
		return errors.New("paths.work_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	switch c.Transcription.Provider {
	case TranscriptionWhisper, TranscriptionWhisperX:
	case TranscriptionOpenAI:
		if c.OpenAI.APIKey == "" {
			return c.missingKeyError("openai.api_key is required when transcription.provider is \"openai\"", "OPENAI_API_KEY")
		}
	default:
		return fmt.Errorf("transcription.provider: unsupported value %q (expected whisper, whisperx or openai)", c.Transcription.Provider)
	}
	if c.Transcription.Language != "" {
		if _, err := language.Parse(c.Transcription.Language); err != nil {
			return fmt.Errorf("transcription.language: %w", err)
		}
	}
	if c.Transcription.TimeoutSeconds < 0 {
		return errors.New("transcription.timeout_seconds must be zero or positive")
	}
	return nil
}

func (c *Config) validateTranslation() error {
	switch c.Translation.Provider {
	case TranslationGoogle:
	case TranslationOpenAI:
		if c.OpenAI.APIKey == "" {
			return c.missingKeyError("openai.api_key is required when translation.provider is \"openai\"", "OPENAI_API_KEY")
		}
	default:
		return fmt.Errorf("translation.provider: unsupported value %q (expected google or openai)", c.Translation.Provider)
	}
	if _, err := language.Parse(c.Translation.TargetLanguage); err != nil {
		return fmt.Errorf("translation.target_language: %w", err)
	}
	if c.Translation.SourceLanguage != "" {
		if _, err := language.Parse(c.Translation.SourceLanguage); err != nil {
			return fmt.Errorf("translation.source_language: %w", err)
		}
	}
	if c.Translation.BatchSize > 128 {
		return errors.New("translation.batch_size must not exceed 128")
	}
	return nil
}

func (c *Config) validateBilibili() error {
	if !c.Bilibili.Enabled {
		return nil
	}
	parsed, err := url.Parse(c.Bilibili.UploadURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("bilibili.upload_url: invalid url %q", c.Bilibili.UploadURL)
	}
	if strings.TrimSpace(c.Bilibili.ProfileDir) == "" {
		return errors.New("bilibili.profile_dir must be set when bilibili.enabled is true")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.queue_poll_interval":  c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
		"workflow.heartbeat_interval":   c.Workflow.HeartbeatInterval,
		"workflow.heartbeat_timeout":    c.Workflow.HeartbeatTimeout,
	}); err != nil {
		return err
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must be greater than workflow.heartbeat_interval")
	}
	if c.Workflow.WorkDirRetentionDays < 0 {
		return errors.New("workflow.work_dir_retention_days must be zero or positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

func (c *Config) missingKeyError(message, envName string) error {
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return fmt.Errorf("%s. Set %s env var or edit %s (create with 'ytbili config init')", message, envName, defaultPath)
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
