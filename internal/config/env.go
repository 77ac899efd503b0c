package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// environment lists the secrets that may be supplied through the process
// environment instead of the config file. File values win.
type environment struct {
	OpenAIKey         string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL     string `env:"OPENAI_BASE_URL"`
	GoogleAPIKey      string `env:"GOOGLE_TRANSLATE_API_KEY"`
	GoogleCredentials string `env:"GOOGLE_APPLICATION_CREDENTIALS"`
	APIToken          string `env:"YTBILI_API_TOKEN"`
	NtfyTopic         string `env:"YTBILI_NTFY_TOPIC"`
}

func (c *Config) applyEnvironment() error {
	var values environment
	if err := env.Parse(&values); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	fillEmpty(&c.OpenAI.APIKey, values.OpenAIKey)
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = strings.TrimRight(strings.TrimSpace(values.OpenAIBaseURL), "/")
	}
	fillEmpty(&c.Translation.GoogleAPIKey, values.GoogleAPIKey)
	if c.Translation.GoogleCredentialsFile == "" && strings.TrimSpace(values.GoogleCredentials) != "" {
		expanded, err := expandPath(strings.TrimSpace(values.GoogleCredentials))
		if err != nil {
			return fmt.Errorf("GOOGLE_APPLICATION_CREDENTIALS: %w", err)
		}
		c.Translation.GoogleCredentialsFile = expanded
	}
	fillEmpty(&c.Paths.APIToken, values.APIToken)
	fillEmpty(&c.Notifications.NtfyTopic, values.NtfyTopic)
	return nil
}

func fillEmpty(target *string, value string) {
	if *target != "" {
		return
	}
	*target = strings.TrimSpace(value)
}
