package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeDownload(); err != nil {
		return err
	}
	c.normalizeAudio()
	c.normalizeTranscription()
	if err := c.normalizeTranslation(); err != nil {
		return err
	}
	c.OpenAI.APIKey = strings.TrimSpace(c.OpenAI.APIKey)
	c.OpenAI.BaseURL = strings.TrimRight(strings.TrimSpace(c.OpenAI.BaseURL), "/")
	if c.OpenAI.TimeoutSeconds <= 0 {
		c.OpenAI.TimeoutSeconds = defaultOpenAITimeout
	}
	if err := c.normalizeBilibili(); err != nil {
		return err
	}
	c.normalizeAPI()
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeDownload() error {
	c.Download.Binary = strings.TrimSpace(c.Download.Binary)
	if c.Download.Binary == "" {
		c.Download.Binary = defaultYTDLPBinary
	}
	c.Download.Format = strings.TrimSpace(c.Download.Format)
	if c.Download.Format == "" {
		c.Download.Format = defaultYTDLPFormat
	}
	c.Download.MergeFormat = strings.TrimSpace(c.Download.MergeFormat)
	if c.Download.MergeFormat == "" {
		c.Download.MergeFormat = defaultMergeFormat
	}
	c.Download.OutputTemplate = strings.TrimSpace(c.Download.OutputTemplate)
	if c.Download.OutputTemplate == "" {
		c.Download.OutputTemplate = defaultOutputTemplate
	}
	var err error
	if c.Download.CookiesFile, err = expandPath(strings.TrimSpace(c.Download.CookiesFile)); err != nil {
		return fmt.Errorf("download.cookies_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeAudio() {
	c.Audio.FFmpegBinary = strings.TrimSpace(c.Audio.FFmpegBinary)
	if c.Audio.FFmpegBinary == "" {
		c.Audio.FFmpegBinary = defaultFFmpegBinary
	}
	c.Audio.FFprobeBinary = strings.TrimSpace(c.Audio.FFprobeBinary)
	if c.Audio.FFprobeBinary == "" {
		c.Audio.FFprobeBinary = defaultFFprobeBinary
	}
	c.Audio.Codec = strings.TrimSpace(c.Audio.Codec)
	if c.Audio.Codec == "" {
		c.Audio.Codec = defaultAudioCodec
	}
	c.Audio.Quality = strings.TrimSpace(c.Audio.Quality)
	c.Audio.FileName = strings.TrimSpace(c.Audio.FileName)
	if c.Audio.FileName == "" {
		c.Audio.FileName = defaultAudioFileName
	}
}

func (c *Config) normalizeTranscription() {
	c.Transcription.Provider = strings.ToLower(strings.TrimSpace(c.Transcription.Provider))
	if c.Transcription.Provider == "" {
		c.Transcription.Provider = TranscriptionWhisper
	}
	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)
	if c.Transcription.Provider == TranscriptionOpenAI {
		// The local default model name means nothing to the audio API.
		if c.Transcription.Model == "" || c.Transcription.Model == defaultTranscriptionModel {
			c.Transcription.Model = defaultOpenAITranscriptionModel
		}
	} else if c.Transcription.Model == "" {
		c.Transcription.Model = defaultTranscriptionModel
	}
	c.Transcription.Language = strings.ToLower(strings.TrimSpace(c.Transcription.Language))
	c.Transcription.Binary = strings.TrimSpace(c.Transcription.Binary)
	if c.Transcription.Binary == "" {
		c.Transcription.Binary = defaultWhisperBinary
	}
}

func (c *Config) normalizeTranslation() error {
	c.Translation.Provider = strings.ToLower(strings.TrimSpace(c.Translation.Provider))
	if c.Translation.Provider == "" {
		c.Translation.Provider = TranslationGoogle
	}
	c.Translation.TargetLanguage = strings.TrimSpace(c.Translation.TargetLanguage)
	if c.Translation.TargetLanguage == "" {
		c.Translation.TargetLanguage = defaultTargetLanguage
	}
	c.Translation.SourceLanguage = strings.TrimSpace(c.Translation.SourceLanguage)
	if c.Translation.BatchSize <= 0 {
		c.Translation.BatchSize = defaultTranslationBatchSize
	}
	c.Translation.GoogleAPIKey = strings.TrimSpace(c.Translation.GoogleAPIKey)
	var err error
	if c.Translation.GoogleCredentialsFile, err = expandPath(strings.TrimSpace(c.Translation.GoogleCredentialsFile)); err != nil {
		return fmt.Errorf("translation.google_credentials_file: %w", err)
	}
	c.Translation.Model = strings.TrimSpace(c.Translation.Model)
	if c.Translation.Model == "" {
		c.Translation.Model = defaultTranslationModel
	}
	return nil
}

func (c *Config) normalizeBilibili() error {
	c.Bilibili.UploadURL = strings.TrimSpace(c.Bilibili.UploadURL)
	if c.Bilibili.UploadURL == "" {
		c.Bilibili.UploadURL = defaultUploadURL
	}
	c.Bilibili.LoginURL = strings.TrimSpace(c.Bilibili.LoginURL)
	if c.Bilibili.LoginURL == "" {
		c.Bilibili.LoginURL = defaultLoginURL
	}
	if strings.TrimSpace(c.Bilibili.ProfileDir) == "" {
		c.Bilibili.ProfileDir = defaultProfileDir
	}
	var err error
	if c.Bilibili.ProfileDir, err = expandPath(c.Bilibili.ProfileDir); err != nil {
		return fmt.Errorf("bilibili.profile_dir: %w", err)
	}
	c.Bilibili.ChromePath = strings.TrimSpace(c.Bilibili.ChromePath)
	c.Bilibili.DefaultTitle = strings.TrimSpace(c.Bilibili.DefaultTitle)
	if c.Bilibili.DefaultTitle == "" {
		c.Bilibili.DefaultTitle = defaultVideoTitle
	}
	c.Bilibili.DefaultDescription = strings.TrimSpace(c.Bilibili.DefaultDescription)
	if c.Bilibili.DefaultDescription == "" {
		c.Bilibili.DefaultDescription = defaultVideoDescription
	}
	c.Bilibili.DefaultTags = normalizeList(c.Bilibili.DefaultTags, false)
	if len(c.Bilibili.DefaultTags) == 0 {
		c.Bilibili.DefaultTags = append([]string(nil), defaultVideoTags...)
	}
	if c.Bilibili.UploadTimeoutSeconds <= 0 {
		c.Bilibili.UploadTimeoutSeconds = defaultUploadTimeout
	}
	if c.Bilibili.SubmitTimeoutSeconds <= 0 {
		c.Bilibili.SubmitTimeoutSeconds = defaultSubmitTimeout
	}
	return nil
}

func (c *Config) normalizeAPI() {
	c.API.CORSOrigins = normalizeList(c.API.CORSOrigins, false)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func normalizeList(values []string, lower bool) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if lower {
			trimmed = strings.ToLower(trimmed)
		}
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
