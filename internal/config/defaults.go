package config

// Transcription providers.
const (
	TranscriptionWhisper  = "whisper"
	TranscriptionWhisperX = "whisperx"
	TranscriptionOpenAI   = "openai"
)

// Translation providers.
const (
	TranslationGoogle = "google"
	TranslationOpenAI = "openai"
)

const (
	defaultConfigPath               = "~/.config/ytbili/config.toml"
	defaultWorkDir                  = "~/.local/share/ytbili/work"
	defaultLogDir                   = "~/.local/share/ytbili/logs"
	defaultProfileDir               = "~/.local/share/ytbili/chrome-profile"
	defaultAPIBind                  = "127.0.0.1:5000"
	defaultYTDLPBinary              = "yt-dlp"
	defaultYTDLPFormat              = "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"
	defaultMergeFormat              = "mp4"
	defaultOutputTemplate           = "%(title)s.%(ext)s"
	defaultDownloadTimeout          = 3600
	defaultFFmpegBinary             = "ffmpeg"
	defaultFFprobeBinary            = "ffprobe"
	defaultAudioCodec               = "libmp3lame"
	defaultAudioQuality             = "2"
	defaultAudioFileName            = "extracted_audio.mp3"
	defaultTranscriptionModel       = "base"
	defaultOpenAITranscriptionModel = "whisper-1"
	defaultWhisperBinary            = "whisper"
	defaultTranscriptionTimeout     = 7200
	defaultTargetLanguage           = "zh-CN"
	defaultTranslationBatchSize     = 10
	defaultTranslationModel         = "gpt-4o-mini"
	defaultOpenAITimeout            = 120
	defaultUploadURL                = "https://member.bilibili.com/video/upload.html"
	defaultLoginURL                 = "https://passport.bilibili.com/login"
	defaultVideoTitle               = "从YouTube转载的视频"
	defaultVideoDescription         = "这是一个从YouTube转载并添加了双语字幕的视频。"
	defaultUploadTimeout            = 600
	defaultSubmitTimeout            = 30
	defaultNotifyRequestTimeout     = 10
	defaultQueuePollInterval        = 5
	defaultErrorRetryInterval       = 10
	defaultHeartbeatInterval        = 15
	defaultHeartbeatTimeout         = 120
	defaultLogFormat                = "console"
	defaultLogLevel                 = "info"
	defaultLogRetentionDays         = 30
)

var defaultVideoTags = []string{"转载", "双语字幕", "YouTube"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Download: Download{
			Binary:         defaultYTDLPBinary,
			Format:         defaultYTDLPFormat,
			MergeFormat:    defaultMergeFormat,
			OutputTemplate: defaultOutputTemplate,
			TimeoutSeconds: defaultDownloadTimeout,
		},
		Audio: Audio{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			Codec:         defaultAudioCodec,
			Quality:       defaultAudioQuality,
			FileName:      defaultAudioFileName,
		},
		Transcription: Transcription{
			Provider:       TranscriptionWhisper,
			Model:          defaultTranscriptionModel,
			Binary:         defaultWhisperBinary,
			TimeoutSeconds: defaultTranscriptionTimeout,
		},
		Translation: Translation{
			Provider:       TranslationGoogle,
			TargetLanguage: defaultTargetLanguage,
			BatchSize:      defaultTranslationBatchSize,
			Model:          defaultTranslationModel,
		},
		OpenAI: OpenAI{
			TimeoutSeconds: defaultOpenAITimeout,
		},
		Bilibili: Bilibili{
			Enabled:              true,
			UploadURL:            defaultUploadURL,
			LoginURL:             defaultLoginURL,
			ProfileDir:           defaultProfileDir,
			Headless:             true,
			DefaultTitle:         defaultVideoTitle,
			DefaultDescription:   defaultVideoDescription,
			DefaultTags:          append([]string(nil), defaultVideoTags...),
			UploadTimeoutSeconds: defaultUploadTimeout,
			SubmitTimeoutSeconds: defaultSubmitTimeout,
		},
		API: API{
			CORSOrigins: []string{"*"},
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Jobs:           true,
			Queue:          true,
			Errors:         true,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			HeartbeatInterval:  defaultHeartbeatInterval,
			HeartbeatTimeout:   defaultHeartbeatTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
